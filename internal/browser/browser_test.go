package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextOptionsFillsUserAgentAndHeaderDefaults(t *testing.T) {
	ctxOpts := contextOptions(&Options{})

	require.NotNil(t, ctxOpts.UserAgent)
	assert.Equal(t, DefaultOptions().UserAgent, *ctxOpts.UserAgent)
	assert.NotEmpty(t, *ctxOpts.UserAgent)
	assert.Equal(t, DefaultOptions().ExtraHeaders["Accept"], ctxOpts.ExtraHttpHeaders["Accept"])
}

func TestContextOptionsKeepsExplicitUserAgent(t *testing.T) {
	ctxOpts := contextOptions(&Options{UserAgent: "custom-agent/1.0"})

	require.NotNil(t, ctxOpts.UserAgent)
	assert.Equal(t, "custom-agent/1.0", *ctxOpts.UserAgent)
}

func TestContextOptionsAppliesAcceptLanguage(t *testing.T) {
	ctxOpts := contextOptions(&Options{AcceptLanguage: "de-DE,de;q=0.9"})

	assert.Equal(t, "de-DE,de;q=0.9", ctxOpts.ExtraHttpHeaders["Accept-Language"])
}

func TestContextOptionsOmitsEmptyLocaleAndViewport(t *testing.T) {
	ctxOpts := contextOptions(&Options{})

	assert.Nil(t, ctxOpts.Locale)
	assert.Nil(t, ctxOpts.TimezoneId)
	assert.Nil(t, ctxOpts.Viewport)

	full := contextOptions(DefaultOptions())
	require.NotNil(t, full.Locale)
	require.NotNil(t, full.Viewport)
	assert.Equal(t, 1920, full.Viewport.Width)
}
