package sensor

import (
	"context"
	"fmt"

	"github.com/wonny/sectrack/internal/entity"
	"github.com/wonny/sectrack/internal/identifier"
)

// Kind selects which view of the source sensor an alias exposes.
type Kind string

const (
	// KindFull mirrors the source state and attributes verbatim.
	KindFull Kind = "full"
	// KindDraw exposes the current consumption price (prices_afname).
	KindDraw Kind = "afname"
	// KindFeedIn exposes the current injection price (prices_injectie).
	KindFeedIn Kind = "injectie"
)

// AliasSensor re-publishes a contract sensor's state under a user-chosen
// name. It follows the source entity on the bus while active and seeds
// itself from the registry snapshot on activation.
type AliasSensor struct {
	kind     Kind
	entityID string
	sourceID string
	registry *entity.Registry

	unsub func()
}

// NewAliasSensor builds an alias sensor of the given kind. Draw and feed-in
// variants append their kind to the alias name.
func NewAliasSensor(name, sourceID string, kind Kind, reg *entity.Registry) *AliasSensor {
	if kind != KindFull {
		name = fmt.Sprintf("%s_%s", name, kind)
	}

	return &AliasSensor{
		kind:     kind,
		entityID: identifier.SensorDomain + identifier.Format(name),
		sourceID: sourceID,
		registry: reg,
	}
}

// EntityID returns the alias sensor's entity id.
func (s *AliasSensor) EntityID() string {
	return s.entityID
}

// Start subscribes to the source entity and publishes an initial state from
// the current registry snapshot, if the source exists yet.
func (s *AliasSensor) Start(ctx context.Context) {
	s.unsub = s.registry.Bus().Subscribe(s.sourceID, func(ev entity.Event) {
		s.apply(ev.New)
	})

	if src, ok := s.registry.Get(s.sourceID); ok {
		s.apply(src)
	}
}

// Stop unsubscribes from the source entity.
func (s *AliasSensor) Stop() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}

func (s *AliasSensor) apply(src entity.State) {
	switch s.kind {
	case KindDraw:
		s.registry.Set(s.entityID, currentPrice(src.Attributes, "prices_afname"), priceAttributes())
	case KindFeedIn:
		s.registry.Set(s.entityID, currentPrice(src.Attributes, "prices_injectie"), priceAttributes())
	default:
		s.registry.Set(s.entityID, src.Value, src.Attributes)
	}
}

// currentPrice digs attributes[key]["current_price"] out of the source
// attributes, defaulting to 0 when any level is missing.
func currentPrice(attributes map[string]any, key string) string {
	prices, ok := attributes[key].(map[string]any)
	if !ok {
		return "0"
	}
	price, ok := prices["current_price"]
	if !ok {
		return "0"
	}
	return fmt.Sprintf("%v", price)
}

func priceAttributes() map[string]any {
	return map[string]any{
		"unit_of_measurement": "€/kWh",
		"device_class":        "monetary",
	}
}
