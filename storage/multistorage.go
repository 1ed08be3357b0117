package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hierreg/naming-registry-backend/interfaces"
)

// MultiBackend aggregates several backends for redundancy. Stores go to
// every available backend; fetches return from the first backend holding
// the content.
type MultiBackend struct {
	backends []interfaces.MetadataBackend
	log      *slog.Logger
}

func NewMultiBackend(backends []interfaces.MetadataBackend, log *slog.Logger) *MultiBackend {
	if log == nil {
		log = slog.Default()
	}
	return &MultiBackend{backends: backends, log: log}
}

// Fetch returns the document from the first available backend that holds
// it.
func (m *MultiBackend) Fetch(ctx context.Context, id interfaces.ContentID, kind interfaces.ContentKind) ([]byte, error) {
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("backend unavailable", "backend", backend.Name(), "contentID", id)
			continue
		}

		data, err := backend.Fetch(ctx, id, kind)
		if err == nil {
			return data, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
	}

	m.log.Error("all backends failed to fetch content", "contentID", id, "failedBackends", len(errs))
	return nil, fmt.Errorf("all backends failed to fetch %s: %v", id, errs)
}

// Store saves the document to every available backend. Succeeds if at least
// one backend accepted it.
func (m *MultiBackend) Store(ctx context.Context, data []byte, kind interfaces.ContentKind) (interfaces.ContentID, error) {
	var result interfaces.ContentID
	var success bool
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("backend unavailable", "backend", backend.Name())
			continue
		}

		id, err := backend.Store(ctx, data, kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			continue
		}
		if !success {
			result = id
			success = true
		} else if !result.Equal(id) {
			// Same data must hash to the same id everywhere.
			m.log.Warn("inconsistent content ids from backends",
				"backend", backend.Name(), "expected", result, "actual", id)
		}
	}

	if !success {
		return result, fmt.Errorf("all backends failed to store data: %v", errs)
	}
	return result, nil
}

// Available reports whether any backend is reachable.
func (m *MultiBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

func (m *MultiBackend) Name() string {
	return "multi-storage"
}

func (m *MultiBackend) LocationURI() string {
	locations := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}
	return "multi:[" + strings.Join(locations, ",") + "]"
}
