package http

import (
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"opennotes-gateway/internal/domain"
)

// UpstreamProxy forwards vetted requests to the notes API. It injects the
// fixed upstream credential and first-party origin; the caller's own
// credential never crosses upstream.
type UpstreamProxy struct {
	baseURL string
	apiKey  string
	origin  string
	client  *http.Client
}

func NewUpstreamProxy(baseURL, apiKey, origin string, timeout time.Duration) *UpstreamProxy {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &UpstreamProxy{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		origin:  origin,
		client:  &http.Client{Timeout: timeout},
	}
}

// Forward relays the request, mapping the gateway's /api prefix onto the
// upstream base URL and forwarding all query parameters.
func (p *UpstreamProxy) Forward(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	target := p.baseURL + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		respondError(w, domain.ErrUpstream)
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	if accept := r.Header.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Origin", p.origin)
	req.Header.Set("Referer", p.origin+"/")

	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("upstream request failed: %v", err)
		respondError(w, domain.ErrUpstream)
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Printf("copy upstream response: %v", err)
	}
}
