package sensor

import (
	"context"
	"fmt"

	"github.com/wonny/sectrack/internal/entity"
	"github.com/wonny/sectrack/internal/pricing"
	"github.com/wonny/sectrack/pkg/logger"
)

// ConstantEntityID is the fixed entity id of the constants sensor.
const ConstantEntityID = "sensor.sec_constant_sensor"

// ConstantSensor exposes the region constants (grid tariffs and the like)
// for the configured zip code as one sensor whose attributes carry the full
// constant set.
type ConstantSensor struct {
	api      pricing.API
	registry *entity.Registry
	logger   *logger.Logger
	zipCode  string
}

// NewConstantSensor builds the constants sensor for a zip code.
func NewConstantSensor(api pricing.API, reg *entity.Registry, log *logger.Logger, zipCode string) *ConstantSensor {
	return &ConstantSensor{
		api:      api,
		registry: reg,
		logger:   log,
		zipCode:  zipCode,
	}
}

// EntityID returns the constants sensor's entity id.
func (s *ConstantSensor) EntityID() string {
	return ConstantEntityID
}

// Start fetches the constants once and publishes them. No polling; the
// constants only change between reloads.
func (s *ConstantSensor) Start(ctx context.Context) {
	constants, err := s.api.Constants(ctx, s.zipCode)
	if err != nil {
		s.logger.WithError(err).Warn("Constants fetch failed")
		return
	}

	state := "0"
	if postcode, ok := constants["postcode"]; ok {
		state = fmt.Sprintf("%v", postcode)
	}
	s.registry.Set(ConstantEntityID, state, constants)
}

// Stop is a no-op; the constants sensor holds no background work.
func (s *ConstantSensor) Stop() {}
