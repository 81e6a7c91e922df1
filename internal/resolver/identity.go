package resolver

import (
	"net/http"
	"net/url"
	"sync/atomic"
)

// Relay endpoints rebroadcast whatever identity we hand them, so proxied
// requests carry a rotating desktop-browser profile instead of Go's default
// client signature.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
}

var uaCursor atomic.Uint32

func nextUserAgent() string {
	n := uaCursor.Add(1)
	return userAgents[int(n)%len(userAgents)]
}

// ApplyBrowserIdentity decorates a proxied request so the upstream sees an
// ordinary browser fetch originating from the stream's own site.
func ApplyBrowserIdentity(req *http.Request, target string) {
	req.Header.Set("User-Agent", nextUserAgent())
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "cross-site")

	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return
	}
	origin := u.Scheme + "://" + u.Host
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", origin+"/")
}
