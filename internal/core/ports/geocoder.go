package ports

import (
	"context"
	"io"

	"github.com/estateline/crm-api/internal/core/domain"
)

// Geocoder resolves coordinates to a human-readable address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// GeocodeCache caches resolved addresses keyed by rounded coordinates, so
// nearby report submissions do not hammer the external lookup.
type GeocodeCache interface {
	Get(ctx context.Context, lat, lng float64) (string, bool, error)
	Set(ctx context.Context, lat, lng float64, address string) error
}

// GeocodeJob asks the workers to resolve and store one report's address.
type GeocodeJob struct {
	ReportID string
	Location domain.Coordinates
}

// GeocodeEnqueuer hands geocode jobs to the background dispatcher.
type GeocodeEnqueuer interface {
	Enqueue(job GeocodeJob)
}

// FileStore persists uploaded files and returns the stored path.
type FileStore interface {
	Save(filename string, contentType string, src io.Reader) (string, error)
	Remove(path string) error
}
