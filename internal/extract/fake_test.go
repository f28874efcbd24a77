package extract

import (
	"errors"
	"strings"
	"time"

	"github.com/crawlkit/shopscraper/internal/dom"
)

// fakeElement implements dom.Element for tests.
type fakeElement struct {
	tag           string
	text          string
	attrs         map[string]string
	pictureSrcset string
}

func (e *fakeElement) Text() (string, error) {
	return e.text, nil
}

func (e *fakeElement) Attribute(name string) (string, error) {
	return e.attrs[name], nil
}

func (e *fakeElement) Evaluate(script string) (any, error) {
	if strings.Contains(script, "tagName") {
		if e.tag == "" {
			return "img", nil
		}
		return e.tag, nil
	}
	if strings.Contains(script, "closest('picture')") {
		return e.pictureSrcset, nil
	}
	return nil, nil
}

// fakePage implements dom.Page over static test data and records how it
// was probed.
type fakePage struct {
	url       string
	content   string
	elements  map[string][]*fakeElement
	stateJSON string

	evaluateCalls int
	queryCalls    int
	scrolls       int
	gone          bool
}

func (p *fakePage) URL() string {
	return p.url
}

func (p *fakePage) Content() (string, error) {
	if p.gone {
		return "", dom.ErrPageGone
	}
	return p.content, nil
}

func (p *fakePage) QueryOne(selector string) (dom.Element, error) {
	p.queryCalls++
	if p.gone {
		return nil, dom.ErrPageGone
	}
	if list := p.elements[selector]; len(list) > 0 {
		return list[0], nil
	}
	return nil, nil
}

func (p *fakePage) QueryAll(selector string) ([]dom.Element, error) {
	p.queryCalls++
	if p.gone {
		return nil, dom.ErrPageGone
	}
	list := p.elements[selector]
	out := make([]dom.Element, 0, len(list))
	for _, el := range list {
		out = append(out, el)
	}
	return out, nil
}

func (p *fakePage) Evaluate(script string) (any, error) {
	p.evaluateCalls++
	if p.gone {
		return nil, dom.ErrPageGone
	}
	if strings.Contains(script, "window[name]") {
		if p.stateJSON == "" {
			return nil, nil
		}
		return p.stateJSON, nil
	}
	return nil, errors.New("unexpected script")
}

func (p *fakePage) WaitFor(selector string, timeout time.Duration) bool {
	return true
}

func (p *fakePage) ScrollBy(deltaY int) error {
	p.scrolls++
	if p.gone {
		return dom.ErrPageGone
	}
	return nil
}
