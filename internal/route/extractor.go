// Package route requests walking routes and flattens them into the
// turn-by-turn steps shown to the client.
package route

import (
	"context"
	"fmt"
	"log/slog"

	"voicenav/internal/domain"
	"voicenav/internal/ors"
)

// Router is the routing backend, satisfied by *ors.Client.
type Router interface {
	Directions(ctx context.Context, profile string, from, to domain.Coordinate) (ors.DirectionsResponse, error)
}

type Extractor struct {
	router Router
	origin domain.Coordinate
	logger *slog.Logger
}

func NewExtractor(router Router, origin domain.Coordinate, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{router: router, origin: origin, logger: logger}
}

func (e *Extractor) Origin() domain.Coordinate {
	return e.origin
}

// Steps returns the walking steps from the fixed origin to dest. A response
// without route features yields an empty, non-nil slice.
func (e *Extractor) Steps(ctx context.Context, dest domain.Coordinate) ([]domain.StepView, error) {
	const op = "route.Steps"
	resp, err := e.router.Directions(ctx, ors.ProfileFootWalking, e.origin, dest)
	if err != nil {
		e.logger.Error("directions request failed", "dest_lat", dest.Lat, "dest_lon", dest.Lon, "error", err)
		return nil, domain.NewError(domain.KindRoutingService, op, err.Error(), err)
	}
	steps, err := Flatten(resp)
	if err != nil {
		e.logger.Error("directions response malformed", "error", err)
		return nil, domain.NewError(domain.KindRoutingService, op, err.Error(), err)
	}
	return steps, nil
}

// Flatten concatenates the steps of every segment of the first feature in
// order, placing each step at geometry[way_points[0]] with lon/lat swapped.
func Flatten(resp ors.DirectionsResponse) ([]domain.StepView, error) {
	out := []domain.StepView{}
	if len(resp.Features) == 0 {
		return out, nil
	}

	feature := resp.Features[0]
	geometry := feature.Geometry.Coordinates
	for si, seg := range feature.Properties.Segments {
		for i, step := range seg.Steps {
			if len(step.WayPoints) == 0 {
				return nil, fmt.Errorf("segment %d step %d has no way points", si, i)
			}
			idx := step.WayPoints[0]
			if idx < 0 || idx >= len(geometry) {
				return nil, fmt.Errorf("segment %d step %d way point %d outside geometry of %d points", si, i, idx, len(geometry))
			}
			pt := geometry[idx]
			if len(pt) < 2 {
				return nil, fmt.Errorf("geometry point %d has %d axes", idx, len(pt))
			}
			out = append(out, domain.StepView{
				Instruction: step.Instruction,
				Distance:    step.Distance,
				Duration:    step.Duration,
				Lat:         pt[1],
				Lon:         pt[0],
			})
		}
	}
	return out, nil
}
