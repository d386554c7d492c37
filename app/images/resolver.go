package images

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const unsplashEndpoint = "https://api.unsplash.com/search/photos"

// Image is a resolved stock photo for use as an article hero.
type Image struct {
	URL     string
	AltText string
	PhotoID string
	Credit  string
}

// Resolver finds a hero image for a set of search terms. A nil Image with
// a nil error means no match was found; callers treat that as non-fatal.
type Resolver interface {
	Resolve(ctx context.Context, searchTerms []string) (*Image, error)
}

// UnsplashResolver implements Resolver against the Unsplash search API.
type UnsplashResolver struct {
	httpClient *http.Client
	accessKey  string
}

func NewUnsplashResolver(accessKey string) *UnsplashResolver {
	return &UnsplashResolver{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		accessKey:  accessKey,
	}
}

func (r *UnsplashResolver) Resolve(ctx context.Context, searchTerms []string) (*Image, error) {
	query := strings.TrimSpace(strings.Join(searchTerms, " "))
	if query == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s?query=%s&per_page=1&orientation=landscape",
		unsplashEndpoint, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image search request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+r.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image search returned status %d", resp.StatusCode)
	}

	var payload struct {
		Results []struct {
			ID             string `json:"id"`
			AltDescription string `json:"alt_description"`
			URLs           struct {
				Regular string `json:"regular"`
			} `json:"urls"`
			User struct {
				Name string `json:"name"`
			} `json:"user"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode image search response: %w", err)
	}

	if len(payload.Results) == 0 {
		return nil, nil
	}

	first := payload.Results[0]
	alt := first.AltDescription
	if alt == "" {
		alt = query
	}

	return &Image{
		URL:     first.URLs.Regular,
		AltText: alt,
		PhotoID: first.ID,
		Credit:  first.User.Name,
	}, nil
}
