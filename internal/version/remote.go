package version

import (
	"context"
	"io"
	"net/http"

	"github.com/meza/minecraft-launcher/internal/downloader"
	"github.com/meza/minecraft-launcher/internal/httpclient"
	"github.com/meza/minecraft-launcher/internal/minecraft"
	"github.com/pkg/errors"
)

var newRequestWithContext = http.NewRequestWithContext

// getBody fetches a small metadata document. Non-200 answers become *downloader.StatusError.
func getBody(ctx context.Context, client httpclient.Doer, url string) ([]byte, error) {
	ctx, cancel := httpclient.WithMetadataTimeout(ctx)
	defer cancel()

	request, err := newRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	request.Header.Set("Accept", "application/json")

	response, err := client.Do(request)
	if err != nil {
		return nil, errors.Wrapf(httpclient.WrapTimeoutError(err), "fetch %s", url)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, &downloader.StatusError{URL: url, StatusCode: response.StatusCode}
	}
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", url)
	}
	return body, nil
}

// FetchManifest resolves id against the version list and returns the vendor manifest without
// caching it anywhere. The server installer uses it for downloads.server.
func FetchManifest(ctx context.Context, client httpclient.Doer, id string) (*Manifest, error) {
	entry, err := minecraft.Lookup(ctx, client, id)
	if err != nil {
		return nil, Classify("manifest", err)
	}
	body, err := getBody(ctx, client, entry.URL)
	if err != nil {
		return nil, Classify("manifest", err)
	}
	manifest, err := ParseManifest(body)
	if err != nil {
		return nil, newError(Malformed, "manifest", err)
	}
	return manifest, nil
}
