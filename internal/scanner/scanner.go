package scanner

import (
	"context"
	"fmt"

	"HempNewsPipeline/internal/domain"
)

// Request carries all parameters required to execute a scan.
type Request struct {
	SourceName string
	URL        string
}

// Scanner captures a single strategy implementation (RSS/Atom, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) (domain.Feed, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
	fallback string
}

// NewRegistry builds an empty registry. Sources that name no scanner resolve to fallback.
func NewRegistry(fallback string) *Registry {
	return &Registry{scanners: map[string]Scanner{}, fallback: fallback}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if name == "" {
		name = r.fallback
	}
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
