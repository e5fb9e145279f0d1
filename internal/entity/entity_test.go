package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SetAndGet(t *testing.T) {
	r := NewRegistry()

	assert.False(t, r.Exists("sensor.sec_test"))

	r.Set("sensor.sec_test", "Engie: Flex", map[string]any{"icon": "mdi:currency-eur"})

	require.True(t, r.Exists("sensor.sec_test"))
	state, ok := r.Get("sensor.sec_test")
	require.True(t, ok)
	assert.Equal(t, "Engie: Flex", state.Value)
	assert.Equal(t, "mdi:currency-eur", state.Attributes["icon"])
	assert.False(t, state.UpdatedAt.IsZero())
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()
	r.Set("sensor.sec_test", "x", nil)
	r.Remove("sensor.sec_test")

	assert.False(t, r.Exists("sensor.sec_test"))
	assert.Empty(t, r.EntityIDs())
}

func TestBus_SubscribeDeliversOnlyMatchingEntity(t *testing.T) {
	r := NewRegistry()

	var got []Event
	unsub := r.Bus().Subscribe("sensor.sec_a", func(ev Event) {
		got = append(got, ev)
	})
	defer unsub()

	r.Set("sensor.sec_a", "first", nil)
	r.Set("sensor.sec_b", "other", nil)
	r.Set("sensor.sec_a", "second", nil)

	require.Len(t, got, 2)
	assert.Nil(t, got[0].Old)
	assert.Equal(t, "first", got[0].New.Value)
	require.NotNil(t, got[1].Old)
	assert.Equal(t, "first", got[1].Old.Value)
	assert.Equal(t, "second", got[1].New.Value)
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	r := NewRegistry()

	count := 0
	unsub := r.Bus().Subscribe("sensor.sec_a", func(Event) { count++ })

	r.Set("sensor.sec_a", "one", nil)
	unsub()
	r.Set("sensor.sec_a", "two", nil)

	assert.Equal(t, 1, count)
}

func TestBus_SubscribeAll(t *testing.T) {
	r := NewRegistry()

	var ids []string
	unsub := r.Bus().SubscribeAll(func(ev Event) { ids = append(ids, ev.EntityID) })
	defer unsub()

	r.Set("sensor.sec_a", "x", nil)
	r.Set("sensor.sec_b", "y", nil)

	assert.Equal(t, []string{"sensor.sec_a", "sensor.sec_b"}, ids)
}

func TestBus_HandlerMayUnsubscribeItself(t *testing.T) {
	r := NewRegistry()

	count := 0
	var unsub func()
	unsub = r.Bus().Subscribe("sensor.sec_a", func(Event) {
		count++
		unsub()
	})

	r.Set("sensor.sec_a", "one", nil)
	r.Set("sensor.sec_a", "two", nil)

	assert.Equal(t, 1, count)
}
