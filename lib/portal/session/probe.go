package session

import (
	"bytes"
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/dp-pcs/noah-hw-mcp/lib/browser"
	"github.com/dp-pcs/noah-hw-mcp/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

type ProbeOptions struct {
	BaseUrl string
	Markers []string
	State   browser.State
}

// Probe replays persisted cookies over plain http and checks the base
// page for logged-in markers, without the cost of a browser. It is
// advisory: a hit means the stored session probably still works, the
// authenticator verifies for real. Any failure reads as "no".
func Probe(ctx context.Context, opts ProbeOptions) bool {
	ctx, span := tracer.Start(ctx, "client:Probe")
	defer span.End()

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil || baseUrl.Host == "" {
		return false
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return false
	}
	jar.SetCookies(baseUrl, probeCookies(opts.State.Cookies, baseUrl))
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 10)

	telemetry.InstrumentResty(client, "portal/session/probe")

	res, err := client.R().SetContext(ctx).Get("/")
	if err != nil || res.StatusCode() != http.StatusOK {
		// offsite sso redirects land here via the domain check, which
		// is exactly the logged-out shape
		return false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return false
	}
	return probeMarkers(doc, opts.Markers)
}

func probeMarkers(doc *goquery.Document, markers []string) bool {
	bodyText := strings.ToLower(doc.Find("body").Text())
	for _, marker := range markers {
		if needle, ok := strings.CutPrefix(marker, "text="); ok {
			if strings.Contains(bodyText, strings.ToLower(needle)) {
				return true
			}
			continue
		}
		if doc.Find(marker).Length() > 0 {
			return true
		}
	}
	return false
}

// probeCookies keeps the cookies that apply to the base host. Cookies
// scoped to other domains (sso providers and the like) don't matter to
// a same-origin probe.
func probeCookies(cookies []browser.Cookie, baseUrl *url.URL) []*http.Cookie {
	host := strings.ToLower(baseUrl.Hostname())
	var out []*http.Cookie
	for _, c := range cookies {
		domain := strings.ToLower(strings.TrimPrefix(c.Domain, "."))
		if domain != "" && host != domain && !strings.HasSuffix(host, "."+domain) {
			continue
		}
		out = append(out, &http.Cookie{
			Name:  c.Name,
			Value: c.Value,
			Path:  c.Path,
		})
	}
	return out
}
