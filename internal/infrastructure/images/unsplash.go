package images

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"HempNewsPipeline/internal/config"
	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/ports"
)

// SourceTagUnsplash marks stock photos found on Unsplash.
const SourceTagUnsplash = "unsplash"

// UnsplashSearch looks up a landscape stock photo for the query.
type UnsplashSearch struct {
	endpoint   string
	accessKey  string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.ImageProvider = (*UnsplashSearch)(nil)

// NewUnsplashSearch builds the search client.
func NewUnsplashSearch(cfg config.UnsplashConfig, logger *slog.Logger) *UnsplashSearch {
	if logger == nil {
		logger = slog.Default()
	}
	return &UnsplashSearch{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		accessKey:  cfg.AccessKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Name identifies the provider in logs.
func (u *UnsplashSearch) Name() string { return SourceTagUnsplash }

type unsplashPhoto struct {
	URLs struct {
		Regular string `json:"regular"`
		Small   string `json:"small"`
	} `json:"urls"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
	Links struct {
		HTML             string `json:"html"`
		DownloadLocation string `json:"download_location"`
	} `json:"links"`
}

type unsplashSearchResponse struct {
	Results []unsplashPhoto `json:"results"`
}

// Find searches with the request query and retries once with the category query.
func (u *UnsplashSearch) Find(ctx context.Context, req domain.ImageRequest) (*domain.ImageAsset, error) {
	if u.accessKey == "" {
		return nil, nil
	}

	query := strings.TrimSpace(req.Query)
	fallback := req.FallbackCategory.ImageQuery()
	if query == "" {
		query = fallback
	}

	photo, err := u.search(ctx, query)
	if err != nil {
		return nil, err
	}
	if photo == nil && fallback != query {
		u.logger.Debug("unsplash empty, trying category query", "query", query, "fallback", fallback)
		if photo, err = u.search(ctx, fallback); err != nil {
			return nil, err
		}
	}
	if photo == nil {
		return nil, nil
	}

	u.trackDownload(ctx, photo.Links.DownloadLocation)

	return &domain.ImageAsset{
		URL:             photo.URLs.Regular,
		ThumbnailURL:    photo.URLs.Small,
		AttributionText: fmt.Sprintf("Фото: %s / Unsplash", photo.User.Name),
		AttributionURL:  photo.User.Links.HTML,
		PageURL:         photo.Links.HTML,
		SourceTag:       SourceTagUnsplash,
	}, nil
}

func (u *UnsplashSearch) search(ctx context.Context, query string) (*unsplashPhoto, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "1")
	params.Set("orientation", "landscape")
	params.Set("content_filter", "high")

	var resp unsplashSearchResponse
	if err := doJSON(ctx, u.httpClient, http.MethodGet, u.endpoint+"/search/photos?"+params.Encode(), u.headers(), nil, &resp); err != nil {
		return nil, fmt.Errorf("unsplash search %q: %w", query, err)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

// trackDownload reports usage as the API guidelines require. Failures are ignored.
func (u *UnsplashSearch) trackDownload(ctx context.Context, location string) {
	if location == "" {
		return
	}
	if err := doJSON(ctx, u.httpClient, http.MethodGet, location, u.headers(), nil, nil); err != nil {
		u.logger.Debug("unsplash download ping failed", "error", err)
	}
}

func (u *UnsplashSearch) headers() map[string]string {
	return map[string]string{
		"Authorization":  "Client-ID " + u.accessKey,
		"Accept-Version": "v1",
	}
}
