// Package dom abstracts the rendering engine behind the small surface the
// extraction cascade needs: query elements, read text and attributes,
// evaluate scripts in the page context, wait and scroll. Probe-level
// failures (no match, detached element, timeout) are reported as absence;
// only resource-level failures of the page itself surface as errors.
package dom

import (
	"errors"
	"strings"
	"time"
)

// ErrPageGone marks a page that can no longer be interacted with (closed,
// crashed, navigation destroyed). It is the one condition readers must
// propagate instead of swallowing.
var ErrPageGone = errors.New("page is gone")

type Page interface {
	// URL returns the page's current address.
	URL() string
	// Content returns the rendered HTML of the page.
	Content() (string, error)
	// QueryOne returns the first element matching selector, or nil when
	// nothing matches.
	QueryOne(selector string) (Element, error)
	// QueryAll returns every element matching selector.
	QueryAll(selector string) ([]Element, error)
	// Evaluate runs a script in the page's global scope and returns its
	// structured-clone-safe result.
	Evaluate(script string) (any, error)
	// WaitFor waits until selector matches. It never fails: a timeout is
	// reported as false.
	WaitFor(selector string, timeout time.Duration) bool
	// ScrollBy scrolls the viewport vertically by the given pixel delta.
	ScrollBy(deltaY int) error
}

type Element interface {
	// Text returns the element's text content.
	Text() (string, error)
	// Attribute returns the named attribute, or "" when it is absent.
	Attribute(name string) (string, error)
	// Evaluate runs a script against the element (receives it as `el`).
	Evaluate(script string) (any, error)
}

var fatalFragments = []string{
	"target closed",
	"target page, context or browser has been closed",
	"page closed",
	"browser has been closed",
	"context has been closed",
	"navigation failed",
	"frame was detached",
	"page crashed",
}

// IsFatal reports whether an error from a page interaction is a
// resource-level failure that must propagate to the caller for retry
// handling, as opposed to a per-probe failure treated as absence.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPageGone) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range fatalFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
