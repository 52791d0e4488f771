package app

import (
	"github.com/example/lotledger/internal/core/tracking"
	"github.com/example/lotledger/internal/models"
)

// TrackingServiceImpl implements the TrackingService interface.
type TrackingServiceImpl struct{}

// NewTrackingService creates a new TrackingService.
func NewTrackingService() *TrackingServiceImpl {
	return &TrackingServiceImpl{}
}

// ValidateTracking checks the serial/lot pair for the given kind.
func (s *TrackingServiceImpl) ValidateTracking(serial, lot string, kind models.ItemKind, declared models.TrackingType) (models.TrackingType, error) {
	return tracking.Validate(serial, lot, kind, declared)
}
