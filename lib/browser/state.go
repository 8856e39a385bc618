package browser

import (
	"encoding/json"
	"os"

	"github.com/go-rod/rod/lib/proto"
)

// Cookie mirrors the storage-state shape other portal tooling writes,
// so state files are interchangeable between scrapers.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HttpOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

type StorageItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type OriginState struct {
	Origin       string        `json:"origin"`
	LocalStorage []StorageItem `json:"localStorage"`
}

// State is a portable snapshot of a logged-in browser: every cookie
// the browser holds plus per-origin localStorage.
type State struct {
	Cookies []Cookie      `json:"cookies"`
	Origins []OriginState `json:"origins"`
}

func (s State) Empty() bool {
	return len(s.Cookies) == 0 && len(s.Origins) == 0
}

// ReadStateFile loads a snapshot from disk. A missing or corrupt file
// reads as no state: the snapshot is a cache, losing it just means
// logging in again.
func ReadStateFile(path string) (State, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return State{}, false
	}
	var state State
	err = json.Unmarshal(raw, &state)
	if err != nil || state.Empty() {
		return State{}, false
	}
	return state, true
}

// WriteStateFile persists a snapshot. Cookies are session secrets, the
// file is written owner-only.
func WriteStateFile(path string, state State) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0600)
}

func fromNetworkCookies(cookies []*proto.NetworkCookie) []Cookie {
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  float64(c.Expires),
			HttpOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	return out
}

func cookieParams(cookies []Cookie) []*proto.NetworkCookieParam {
	out := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		param := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if c.Expires > 0 {
			param.Expires = proto.TimeSinceEpoch(c.Expires)
		}
		if c.SameSite != "" {
			param.SameSite = proto.NetworkCookieSameSite(c.SameSite)
		}
		out = append(out, param)
	}
	return out
}
