package sensor

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/sectrack/internal/entity"
	"github.com/wonny/sectrack/internal/pricing"
	"github.com/wonny/sectrack/internal/store"
	"github.com/wonny/sectrack/pkg/logger"
)

// Materializer turns the stored configuration into the active sensor set.
// Reload is the single entry point: the wizard calls it after every
// mutation, and startup calls it once.
type Materializer struct {
	store    *store.Store
	api      pricing.API
	registry *entity.Registry
	logger   *logger.Logger
	entryID  string
	zipCode  string

	mu     sync.Mutex
	active map[string]Sensor
}

// NewMaterializer creates a materializer with no active sensors.
func NewMaterializer(st *store.Store, api pricing.API, reg *entity.Registry, log *logger.Logger, entryID, zipCode string) *Materializer {
	return &Materializer{
		store:    st,
		api:      api,
		registry: reg,
		logger:   log,
		entryID:  entryID,
		zipCode:  zipCode,
		active:   make(map[string]Sensor),
	}
}

// Reload stops every active sensor and rebuilds the set from the store:
// one polling sensor per contract, three alias sensors per custom sensor
// row, plus the constants sensor. Contract sensor ids are written back to
// their rows before the sensors start.
func (m *Materializer) Reload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	contracts, err := m.store.Contracts(ctx, m.entryID)
	if err != nil {
		return fmt.Errorf("load contracts: %w", err)
	}

	var sensors []Sensor
	seen := make(map[string]bool)
	for _, c := range contracts {
		s := NewContractSensor(c, m.api, m.registry, m.logger, m.zipCode)
		if seen[s.EntityID()] {
			// Two contracts normalizing to the same id; first wins.
			m.logger.WithField("entity_id", s.EntityID()).Warn("Skipping duplicate sensor id")
			continue
		}
		seen[s.EntityID()] = true
		if err := m.store.SetContractSensorID(ctx, c, s.EntityID()); err != nil {
			return fmt.Errorf("record sensor id: %w", err)
		}
		sensors = append(sensors, s)
	}

	aliases, err := m.store.Aliases(ctx, m.entryID)
	if err != nil {
		return fmt.Errorf("load aliases: %w", err)
	}
	for _, a := range aliases {
		for _, kind := range []Kind{KindFull, KindDraw, KindFeedIn} {
			sensors = append(sensors, NewAliasSensor(a.Name, a.OriginalSensorID, kind, m.registry))
		}
	}

	sensors = append(sensors, NewConstantSensor(m.api, m.registry, m.logger, m.zipCode))

	for _, s := range sensors {
		s.Start(ctx)
		m.active[s.EntityID()] = s
	}

	m.logger.WithField("sensors", len(sensors)).Info("Sensors materialized")
	return nil
}

// Stop deactivates every sensor and clears their registry entries.
func (m *Materializer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// ActiveIDs returns the entity ids of the currently active sensors.
func (m *Materializer) ActiveIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	return ids
}

func (m *Materializer) stopLocked() {
	for id, s := range m.active {
		s.Stop()
		m.registry.Remove(id)
		delete(m.active, id)
	}
}
