// Package testutil holds shared test helpers.
package testutil

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/meza/minecraft-launcher/internal/httpclient"
)

// HostRewriteDoer sends every request to one test server and remembers where each request
// was originally headed, so a single httptest server can stand in for several upstream APIs.
type HostRewriteDoer struct {
	base *url.URL
	next httpclient.Doer

	mu        sync.Mutex
	requested []string
}

func NewHostRewriteDoer(serverURL string, next httpclient.Doer) (*HostRewriteDoer, error) {
	if next == nil {
		return nil, fmt.Errorf("next doer is nil")
	}

	base, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("server url must include scheme and host")
	}

	return &HostRewriteDoer{base: base, next: next}, nil
}

func MustNewHostRewriteDoer(serverURL string, next httpclient.Doer) *HostRewriteDoer {
	doer, err := NewHostRewriteDoer(serverURL, next)
	if err != nil {
		panic(err)
	}
	return doer
}

func (d *HostRewriteDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	d.requested = append(d.requested, req.Method+" "+req.URL.Host+req.URL.Path)
	d.mu.Unlock()

	cloned := req.Clone(req.Context())
	cloned.URL.Scheme = d.base.Scheme
	cloned.URL.Host = d.base.Host
	cloned.Host = d.base.Host
	// The upstream host travels along for handlers that serve more than one API.
	cloned.Header.Set("X-Original-Host", req.URL.Host)
	return d.next.Do(cloned)
}

// Requested lists "METHOD host/path" for each request in the order they were made.
func (d *HostRewriteDoer) Requested() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.requested...)
}
