// Package probe checks that the upstream search portals answer over plain
// HTTP, without paying for a browser launch.
package probe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/use-agent/propsearch/cache"
	"github.com/use-agent/propsearch/models"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"
	maxBody   = 1 << 20
	maxProbes = 4
)

// chromeH1Spec is a Chrome ClientHello with ALPN limited to http/1.1.
// http.Transport cannot speak h2 over a utls conn.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// Target is one portal to probe.
type Target struct {
	Name string
	URL  string
}

// Prober issues lightweight GETs against portals. Some of the government
// portals reset connections from non-browser TLS stacks, so HTTPS dials
// present a Chrome fingerprint.
type Prober struct {
	client  *http.Client
	timeout time.Duration

	// recent holds statuses per URL so frequent health checks do not
	// hammer the portals. nil when caching is off.
	recent *cache.Cache[models.SiteStatus]
}

// New creates a Prober whose individual checks are bounded by timeout.
// Results are reused for cacheTTL; cacheTTL <= 0 disables reuse.
func New(timeout, cacheTTL time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := &http.Transport{
		DialTLSContext:    dialChromeTLS,
		ForceAttemptHTTP2: false,
	}
	p := &Prober{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		timeout: timeout,
	}
	if cacheTTL > 0 {
		p.recent = cache.New[models.SiteStatus](64, cacheTTL)
	}
	return p
}

func dialChromeTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("probe: apply tls spec: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// Check probes a single target. A portal is reachable when it answers
// with a non-5xx status.
func (p *Prober) Check(ctx context.Context, t Target) models.SiteStatus {
	st := models.SiteStatus{Site: t.Name, URL: t.URL}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		st.Error = err.Error()
		return finish(st, start)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := p.client.Do(req)
	if err != nil {
		st.Error = err.Error()
		return finish(st, start)
	}
	defer resp.Body.Close()

	st.StatusCode = resp.StatusCode
	st.Reachable = resp.StatusCode < 500
	if isHTMLContentType(resp.Header.Get("Content-Type")) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		st.Title = extractTitle(string(body))
	}
	return finish(st, start)
}

func finish(st models.SiteStatus, start time.Time) models.SiteStatus {
	st.LatencyMs = time.Since(start).Milliseconds()
	return st
}

// CheckAll probes targets concurrently, reusing recent results. Results
// keep the order of targets.
func (p *Prober) CheckAll(ctx context.Context, targets []Target) []models.SiteStatus {
	out := make([]models.SiteStatus, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxProbes)
	for i, t := range targets {
		if p.recent != nil {
			if st, ok := p.recent.Get(t.URL); ok {
				st.Site = t.Name
				out[i] = st
				continue
			}
		}
		g.Go(func() error {
			out[i] = p.Check(gctx, t)
			if p.recent != nil {
				p.recent.Set(t.URL, out[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

// extractTitle returns the text of the first <title> element.
func extractTitle(htmlStr string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	inTitle := false
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		case html.EndTagToken:
			if inTitle {
				return ""
			}
		}
	}
}
