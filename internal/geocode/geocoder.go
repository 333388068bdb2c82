// Package geocode resolves free-form place names to coordinates inside one
// configured locality.
package geocode

import (
	"context"
	"log/slog"
	"strings"

	"voicenav/internal/domain"
	"voicenav/internal/ors"
)

// Searcher is the geocoding backend, satisfied by *ors.Client.
type Searcher interface {
	Search(ctx context.Context, text string, size int) (ors.GeocodeResponse, error)
}

type Geocoder struct {
	searcher Searcher
	locality string
	logger   *slog.Logger
}

func NewGeocoder(searcher Searcher, locality string, logger *slog.Logger) *Geocoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Geocoder{searcher: searcher, locality: strings.TrimSpace(locality), logger: logger}
}

// Query is the text actually sent to the backend. The locality suffix is
// always appended.
func (g *Geocoder) Query(text string) string {
	return text + ", " + g.locality
}

// Geocode returns the single best match for text within the locality. An
// empty label is treated as omitted and replaced by the query.
func (g *Geocoder) Geocode(ctx context.Context, text string) (domain.GeocodeResult, error) {
	const op = "geocode.Geocode"
	query := g.Query(text)

	resp, err := g.searcher.Search(ctx, query, 1)
	if err != nil {
		g.logger.Error("geocode search failed", "query", query, "error", err)
		return domain.GeocodeResult{}, domain.NewError(domain.KindGeocodeService, op, err.Error(), err)
	}
	if len(resp.Features) == 0 {
		g.logger.Info("geocode no match", "query", query)
		return domain.GeocodeResult{}, domain.NewError(domain.KindNoGeocodeMatch, op, "No geocoding result", nil)
	}

	best := resp.Features[0]
	coords := best.Geometry.Coordinates
	if len(coords) < 2 {
		return domain.GeocodeResult{}, domain.NewError(domain.KindGeocodeService, op, "geocoding result has no coordinates", nil)
	}
	label := best.Properties.Label
	if label == "" {
		label = query
	}
	return domain.GeocodeResult{Lat: coords[1], Lon: coords[0], Label: label}, nil
}
