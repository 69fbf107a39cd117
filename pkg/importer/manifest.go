package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Resource is one entry in the data.gov.au package manifest - a ZIP archive
// published for one period. The manifest lists resources newest first.
type Resource struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

type packageResponse struct {
	Result struct {
		Resources []Resource `json:"resources"`
	} `json:"result"`
}

// FeedClient fetches the dataset package manifest and archive from the PHIO
// feed hosted on data.gov.au.
type FeedClient struct {
	packageURL string
	client     *http.Client
}

func NewFeedClient(packageURL string, timeout time.Duration) *FeedClient {
	return &FeedClient{
		packageURL: packageURL,
		client:     &http.Client{Timeout: timeout},
	}
}

// LatestResource returns the most recent archive listed in the manifest.
func (c *FeedClient) LatestResource(ctx context.Context) (*Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.packageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching data package manifest: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching data package manifest: unexpected status %s", resp.Status)
	}

	var pkg packageResponse
	if err := json.NewDecoder(resp.Body).Decode(&pkg); err != nil {
		return nil, fmt.Errorf("decoding data package manifest: %w", err)
	}
	if len(pkg.Result.Resources) == 0 {
		return nil, fmt.Errorf("data package manifest lists no resources")
	}
	return &pkg.Result.Resources[0], nil
}

// Download streams the archive to a temporary file and returns its path.
// ZIP central directories need random access, so the archive cannot be
// processed as a pure stream; members are still decompressed lazily.
func (c *FeedClient) Download(ctx context.Context, url string) (string, func(), error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("fetching data archive: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("fetching data archive: unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp("", "phi-dataset-*.zip")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("saving data archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return tmp.Name(), cleanup, nil
}
