// Package imagery picks an illustration for a draft from an ordered list of providers.
package imagery

import (
	"context"
	"log/slog"
	"strings"

	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/ports"
)

// SourceTagEmbedded marks images taken from the feed entry itself.
const SourceTagEmbedded = "source"

// Resolver asks each provider in turn and returns the first image found.
type Resolver struct {
	providers []ports.ImageProvider
	logger    *slog.Logger
}

var _ ports.ImageResolver = (*Resolver)(nil)

// NewResolver keeps the given provider order.
func NewResolver(providers []ports.ImageProvider, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{providers: providers, logger: logger}
}

// Resolve never fails because of a provider; a nil asset means nothing matched.
func (r *Resolver) Resolve(ctx context.Context, req domain.ImageRequest) (*domain.ImageAsset, error) {
	if strings.TrimSpace(req.Query) == "" {
		req.Query = req.FallbackCategory.ImageQuery()
	}
	for _, p := range r.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		asset, err := p.Find(ctx, req)
		if err != nil {
			r.logger.Warn("image provider failed", "provider", p.Name(), "candidate", req.CandidateID, "error", err)
			continue
		}
		if asset != nil {
			r.logger.Debug("image resolved", "provider", p.Name(), "candidate", req.CandidateID, "url", asset.URL)
			return asset, nil
		}
	}
	r.logger.Info("no image found", "candidate", req.CandidateID, "query", req.Query)
	return nil, nil
}

// SourceProvider reuses the first image embedded in the feed entry.
type SourceProvider struct{}

var _ ports.ImageProvider = SourceProvider{}

// Name identifies the provider in logs.
func (SourceProvider) Name() string { return SourceTagEmbedded }

// Find returns nil when the entry carried no usable image.
func (SourceProvider) Find(_ context.Context, req domain.ImageRequest) (*domain.ImageAsset, error) {
	for _, img := range req.SourceImages {
		if img.URL == "" {
			continue
		}
		asset := &domain.ImageAsset{
			URL:          img.URL,
			ThumbnailURL: img.URL,
			SourceTag:    SourceTagEmbedded,
		}
		if req.SourceLabel != "" {
			asset.AttributionText = "Фото: " + req.SourceLabel
		}
		return asset, nil
	}
	return nil, nil
}
