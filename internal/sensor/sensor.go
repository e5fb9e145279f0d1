// Package sensor materializes the stored configuration into live sensors:
// one polling sensor per tracked contract, three derived sensors per alias,
// and a constants sensor. Sensors publish their state through the entity
// registry.
package sensor

import (
	"context"
	"time"
)

// Sensor is one live sensor. Start activates it (initial refresh plus any
// background work) and Stop deactivates it; both are idempotent per
// activation cycle.
type Sensor interface {
	EntityID() string
	Start(ctx context.Context)
	Stop()
}

// UpdateInterval returns how long a contract sensor waits before its next
// poll. Prices move around midday, so between 12:00 and 14:00 local time
// polls run every 10 minutes; outside that window the sensor aligns to the
// top of the hour.
func UpdateInterval(now time.Time) time.Duration {
	if now.Hour() >= 12 && now.Hour() < 14 {
		return 10 * time.Minute
	}

	nextFullHour := time.Date(
		now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location(),
	).Add(time.Hour)
	return nextFullHour.Sub(now)
}
