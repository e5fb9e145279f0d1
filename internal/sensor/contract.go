package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/sectrack/internal/entity"
	"github.com/wonny/sectrack/internal/identifier"
	"github.com/wonny/sectrack/internal/pricing"
	"github.com/wonny/sectrack/internal/store"
	"github.com/wonny/sectrack/pkg/logger"
)

// ContractSensor polls the pricing API for one tracked contract and
// publishes the current offer as its state. Poll failures keep the last
// published state; a stale price beats no price.
type ContractSensor struct {
	contract store.Contract
	api      pricing.API
	registry *entity.Registry
	logger   *logger.Logger
	zipCode  string

	entityID string
	name     string
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewContractSensor builds the sensor for a contract, deriving its display
// name and entity id from the contract fields.
func NewContractSensor(c store.Contract, api pricing.API, reg *entity.Registry, log *logger.Logger, zipCode string) *ContractSensor {
	id := fmt.Sprintf("sec_%s_%s_%s_%s_%s_%s",
		c.Supplier, c.ContractName, c.EnergyType, c.ContractType, c.PriceComponent, c.Segment)
	if c.Month != "" && c.Year != "" {
		id = fmt.Sprintf("%s_%s_%s", id, c.Month, c.Year)
	}

	return &ContractSensor{
		contract: c,
		api:      api,
		registry: reg,
		logger:   log,
		zipCode:  zipCode,
		entityID: identifier.SensorDomain + identifier.Format(id),
		name: fmt.Sprintf("SEC: %s, %s, %s, %s, %s",
			c.Supplier, c.ContractName, c.PriceComponent, c.EnergyType, c.ContractType),
		now: time.Now,
	}
}

// EntityID returns the sensor's entity id.
func (s *ContractSensor) EntityID() string {
	return s.entityID
}

// Name returns the sensor's display name.
func (s *ContractSensor) Name() string {
	return s.name
}

// Start refreshes once and begins the background poll loop.
func (s *ContractSensor) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
}

// Stop ends the poll loop and waits for it to exit.
func (s *ContractSensor) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
}

func (s *ContractSensor) run(ctx context.Context) {
	defer close(s.done)

	s.refresh(ctx)
	for {
		timer := time.NewTimer(UpdateInterval(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.refresh(ctx)
		}
	}
}

func (s *ContractSensor) facets() pricing.Facets {
	return pricing.Facets{
		EnergyType:   s.contract.EnergyType,
		ContractType: s.contract.ContractType,
		Segment:      s.contract.Segment,
		Supplier:     s.contract.Supplier,
		Product:      s.contract.ContractName,
		Component:    s.contract.PriceComponent,
		Month:        s.contract.Month,
		Year:         s.contract.Year,
		ZipCode:      s.zipCode,
		ShowPrices:   true,
	}
}

// refresh polls once. The previous state survives any failure or empty
// response.
func (s *ContractSensor) refresh(ctx context.Context) {
	components, err := s.api.PriceComponents(ctx, s.facets())
	if err != nil {
		s.logger.WithError(err).WithField("entity_id", s.entityID).Warn("Price poll failed, keeping last state")
		return
	}
	if len(components) == 0 {
		s.logger.WithField("entity_id", s.entityID).Warn("Price poll returned no data, keeping last state")
		return
	}

	first := components[0]
	attributes := make(map[string]any, len(first.Raw)+1)
	for k, v := range first.Raw {
		attributes[k] = v
	}
	attributes["icon"] = "mdi:currency-eur"

	s.registry.Set(s.entityID, fmt.Sprintf("%s: %s", first.Supplier, first.Product), attributes)
}
