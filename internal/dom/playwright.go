package dom

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// playwrightPage adapts a playwright.Page to the Page interface. Each probe
// gets its own short timeout so a single stubborn selector cannot exhaust
// the page-level navigation budget.
type playwrightPage struct {
	page         playwright.Page
	probeTimeout time.Duration
}

const defaultProbeTimeout = 2 * time.Second

func NewPage(page playwright.Page) Page {
	return &playwrightPage{page: page, probeTimeout: defaultProbeTimeout}
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Content() (string, error) {
	content, err := p.page.Content()
	if err != nil {
		return "", p.classify(err)
	}
	return content, nil
}

func (p *playwrightPage) QueryOne(selector string) (Element, error) {
	handle, err := p.page.QuerySelector(selector)
	if err != nil {
		return nil, p.classify(err)
	}
	if handle == nil {
		return nil, nil
	}
	return &playwrightElement{handle: handle}, nil
}

func (p *playwrightPage) QueryAll(selector string) ([]Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, p.classify(err)
	}
	elements := make([]Element, 0, len(handles))
	for _, handle := range handles {
		if handle == nil {
			continue
		}
		elements = append(elements, &playwrightElement{handle: handle})
	}
	return elements, nil
}

func (p *playwrightPage) Evaluate(script string) (any, error) {
	result, err := p.page.Evaluate(script)
	if err != nil {
		return nil, p.classify(err)
	}
	return result, nil
}

func (p *playwrightPage) WaitFor(selector string, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = p.probeTimeout
	}
	handle, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return err == nil && handle != nil
}

func (p *playwrightPage) ScrollBy(deltaY int) error {
	_, err := p.page.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", deltaY))
	if err != nil {
		return p.classify(err)
	}
	return nil
}

// classify folds playwright's fatal page conditions into ErrPageGone so
// callers can match with errors.Is; probe-level errors pass unchanged.
func (p *playwrightPage) classify(err error) error {
	if IsFatal(err) {
		return fmt.Errorf("%w: %v", ErrPageGone, err)
	}
	return err
}

type playwrightElement struct {
	handle playwright.ElementHandle
}

func (e *playwrightElement) Text() (string, error) {
	return e.handle.TextContent()
}

func (e *playwrightElement) Attribute(name string) (string, error) {
	value, err := e.handle.GetAttribute(name)
	if err != nil {
		return "", err
	}
	return value, nil
}

func (e *playwrightElement) Evaluate(script string) (any, error) {
	return e.handle.Evaluate(script)
}
