package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dp-pcs/noah-hw-mcp/lib/portal"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

const loadTimeout = 30 * time.Second

type Page struct {
	page       *rod.Page
	currentUrl string
	// localStorage waiting for the first navigation onto its origin
	pendingStorage []OriginState
}

var _ portal.Page = (*Page)(nil)

func (p *Page) Navigate(ctx context.Context, target string) error {
	pg := p.page.Context(ctx)
	err := pg.Navigate(target)
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", target, err)
	}
	err = pg.Timeout(loadTimeout).WaitLoad()
	if err != nil {
		return fmt.Errorf("wait for %s to load: %w", target, err)
	}
	p.currentUrl = target
	p.injectPendingStorage(ctx)
	return nil
}

func (p *Page) WaitStable(ctx context.Context, timeout time.Duration) error {
	return p.page.Context(ctx).Timeout(timeout).WaitStable(time.Second)
}

func (p *Page) Find(ctx context.Context, selectors []string) (portal.Element, bool) {
	pg := p.page.Context(ctx)
	for _, selector := range selectors {
		has, el, err := pg.Has(selector)
		if err != nil || !has {
			continue
		}
		return &Element{el: el}, true
	}
	return nil, false
}

func (p *Page) Probe(ctx context.Context, marker string) bool {
	pg := p.page.Context(ctx)

	if needle, ok := strings.CutPrefix(marker, "text="); ok {
		// innerText only carries rendered text, so hidden elements and
		// script bodies can't fake a match
		res, err := pg.Evaluate(&rod.EvalOptions{
			JS: `(needle) => {
				const text = (document.body && document.body.innerText) || "";
				return text.toLowerCase().includes(needle.toLowerCase());
			}`,
			JSArgs:       []interface{}{needle},
			ByValue:      true,
			AwaitPromise: true,
		})
		if err != nil || res == nil {
			return false
		}
		return res.Value.Bool()
	}

	has, el, err := pg.Has(marker)
	if err != nil || !has {
		return false
	}
	visible, err := el.Visible()
	return err == nil && visible
}

func (p *Page) PressEnter(ctx context.Context) error {
	return p.page.Context(ctx).Keyboard.Press(input.Enter)
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *Page) Screenshot(ctx context.Context, path string) error {
	data, err := p.page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		return fmt.Errorf("take screenshot: %w", err)
	}
	err = os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (p *Page) Close() {
	err := p.page.Close()
	if err != nil {
		slog.Debug("failed to close page", "err", err)
	}
}

func (p *Page) storageSnapshot(ctx context.Context) (OriginState, bool) {
	res, err := p.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS: `() => {
			try {
				const items = [];
				for (let i = 0; i < localStorage.length; i++) {
					const key = localStorage.key(i);
					items.push({name: key, value: localStorage.getItem(key)});
				}
				return {origin: location.origin, localStorage: items};
			} catch (e) {
				return null;
			}
		}`,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil || res == nil || res.Value.Nil() {
		return OriginState{}, false
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return OriginState{}, false
	}
	var origin OriginState
	err = json.Unmarshal(raw, &origin)
	if err != nil || origin.Origin == "" {
		return OriginState{}, false
	}
	return origin, len(origin.LocalStorage) > 0
}

func (p *Page) injectPendingStorage(ctx context.Context) {
	if len(p.pendingStorage) == 0 {
		return
	}
	pending := p.pendingStorage
	p.pendingStorage = nil

	for _, origin := range pending {
		if !sameOrigin(origin.Origin, p.currentUrl) {
			continue
		}
		raw, err := json.Marshal(origin.LocalStorage)
		if err != nil {
			continue
		}
		_, err = p.page.Context(ctx).Evaluate(&rod.EvalOptions{
			JS: `(raw) => {
				try {
					for (const item of JSON.parse(raw)) {
						localStorage.setItem(item.name, item.value);
					}
				} catch (e) {}
			}`,
			JSArgs:       []interface{}{string(raw)},
			ByValue:      true,
			AwaitPromise: true,
			UserGesture:  true,
		})
		if err != nil {
			slog.DebugContext(ctx, "failed to restore localStorage",
				"origin", origin.Origin, "err", err)
		}
	}
}

func sameOrigin(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(ua.Scheme, ub.Scheme) && strings.EqualFold(ua.Host, ub.Host)
}

type Element struct {
	el *rod.Element
}

var _ portal.Element = (*Element)(nil)

// Fill focuses the element, selects whatever it holds and types over
// it, the same motions a person goes through.
func (e *Element) Fill(ctx context.Context, value string) error {
	el := e.el.Context(ctx)
	err := el.Click(proto.InputMouseButtonLeft, 1)
	if err != nil {
		return fmt.Errorf("focus element: %w", err)
	}
	err = el.SelectAllText()
	if err != nil {
		return fmt.Errorf("select text: %w", err)
	}
	err = el.Input(value)
	if err != nil {
		return fmt.Errorf("input text: %w", err)
	}
	return nil
}

func (e *Element) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}
