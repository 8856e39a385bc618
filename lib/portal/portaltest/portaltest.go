// Package portaltest provides an in-memory portal.Page backed by
// parsed HTML, so login and extraction flows are testable without a
// browser.
package portaltest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dp-pcs/noah-hw-mcp/lib/portal"

	"github.com/PuerkitoBio/goquery"
)

type Page struct {
	// html served per url on Navigate
	Docs map[string]string
	// errors returned from Navigate per url
	NavigateErr map[string]error
	// returned from every WaitStable call
	StableErr error
	// when set, observes fills, clicks and key presses. tests use it
	// to swap documents mid-flow the way a real portal would.
	OnAction func(kind, selector, value string)

	CurrentUrl   string
	Navigations  []string
	Filled       map[string]string
	Clicked      []string
	EnterPresses int
	Screenshots  []string

	doc *goquery.Document
	raw string
}

func NewPage(docs map[string]string) *Page {
	return &Page{
		Docs:   docs,
		Filled: map[string]string{},
	}
}

var _ portal.Page = (*Page)(nil)

// SetHTML replaces the current document without a navigation.
func (p *Page) SetHTML(html string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		panic(err)
	}
	p.doc = doc
	p.raw = html
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.Navigations = append(p.Navigations, url)
	if err, ok := p.NavigateErr[url]; ok {
		return err
	}
	html, ok := p.Docs[url]
	if !ok {
		return fmt.Errorf("no document for %s", url)
	}
	p.CurrentUrl = url
	p.SetHTML(html)
	return nil
}

func (p *Page) WaitStable(ctx context.Context, timeout time.Duration) error {
	return p.StableErr
}

func (p *Page) Find(ctx context.Context, selectors []string) (portal.Element, bool) {
	if p.doc == nil {
		return nil, false
	}
	for _, selector := range selectors {
		if p.doc.Find(selector).Length() > 0 {
			return &Element{page: p, selector: selector}, true
		}
	}
	return nil, false
}

func (p *Page) Probe(ctx context.Context, marker string) bool {
	if p.doc == nil {
		return false
	}
	if needle, ok := strings.CutPrefix(marker, "text="); ok {
		text := p.doc.Find("body").Text()
		return strings.Contains(strings.ToLower(text), strings.ToLower(needle))
	}
	return p.doc.Find(marker).Length() > 0
}

func (p *Page) PressEnter(ctx context.Context) error {
	p.EnterPresses++
	p.act("enter", "", "")
	return nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.raw, nil
}

func (p *Page) Screenshot(ctx context.Context, path string) error {
	p.Screenshots = append(p.Screenshots, path)
	return nil
}

func (p *Page) act(kind, selector, value string) {
	if p.OnAction != nil {
		p.OnAction(kind, selector, value)
	}
}

type Element struct {
	page     *Page
	selector string
}

var _ portal.Element = (*Element)(nil)

func (e *Element) Fill(ctx context.Context, value string) error {
	e.page.Filled[e.selector] = value
	e.page.act("fill", e.selector, value)
	return nil
}

func (e *Element) Click(ctx context.Context) error {
	e.page.Clicked = append(e.page.Clicked, e.selector)
	e.page.act("click", e.selector, "")
	return nil
}

// Session pairs a fake page with persist and release counters. It
// satisfies both the authenticator's and the dispatcher's session
// interfaces.
type Session struct {
	P          *Page
	PersistErr error
	Persists   int
	Releases   int
}

func (s *Session) Page() portal.Page { return s.P }

func (s *Session) Persist(ctx context.Context) error {
	s.Persists++
	return s.PersistErr
}

func (s *Session) Release() {
	s.Releases++
}
