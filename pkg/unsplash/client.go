// Package unsplash looks up stock photos for slide backgrounds.
package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.unsplash.com"

// ImageResult carries the download URL plus the attribution Unsplash
// requires.
type ImageResult struct {
	URL    string
	Author string
	Source string
}

type Client struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client
}

func NewClient(accessKey string) (*Client, error) {
	if accessKey == "" {
		return nil, fmt.Errorf("unsplash access key is empty")
	}
	return &Client{
		baseURL:    defaultBaseURL,
		accessKey:  accessKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// NewClientWithHTTP is intended for tests.
func NewClientWithHTTP(accessKey, baseURL string, httpClient *http.Client) (*Client, error) {
	c, err := NewClient(accessKey)
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		c.baseURL = baseURL
	}
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c, nil
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"results"`
}

// Search returns the best landscape match for a query, or a nil result when
// nothing matches.
func (c *Client) Search(ctx context.Context, query string) (*ImageResult, error) {
	if query == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", "1")
	q.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unsplash: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unsplash: unexpected status %d", resp.StatusCode)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("unsplash: decode response: %w", err)
	}
	if len(out.Results) == 0 {
		return nil, nil
	}

	first := out.Results[0]
	return &ImageResult{
		URL:    first.URLs.Regular,
		Author: first.User.Name,
		Source: first.Links.HTML,
	}, nil
}

// Download fetches the photo bytes for local compositing.
func (c *Client) Download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unsplash: download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unsplash: unexpected status %d on download", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unsplash: read photo: %w", err)
	}
	return data, nil
}
