package service

import (
	"context"
	"fmt"

	"github.com/MehvishSheikh/attendance-webapp/internal/apperror"
	"github.com/MehvishSheikh/attendance-webapp/internal/model"
	"github.com/MehvishSheikh/attendance-webapp/internal/repository"
)

// GeoResolver maps GPS coordinates to a registered location.
//
// There is no geospatial index behind the registry, so Nearest is an
// approximation: it always answers with the first registered location.
// Clients that know their office should send an explicit locationId.
type GeoResolver struct {
	locations repository.LocationRepository
}

func NewGeoResolver(locations repository.LocationRepository) *GeoResolver {
	return &GeoResolver{locations: locations}
}

// Nearest returns the location used for a check-in at (lat, lng).
func (g *GeoResolver) Nearest(ctx context.Context, lat, lng float64) (*model.Location, error) {
	if lat < -90 || lat > 90 {
		return nil, apperror.ValidationFailed("latitude", "latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return nil, apperror.ValidationFailed("longitude", "longitude must be between -180 and 180")
	}

	locations, err := g.locations.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/geo: listing locations: %w", err)
	}
	if len(locations) == 0 {
		return nil, apperror.ValidationFailed("locationId", "no locations are registered")
	}
	return &locations[0], nil
}
