package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_AddGetRemove(t *testing.T) {
	m := NewManager(time.Minute)

	f := &Flow{step: StepInit}
	id := m.Add(f)
	require.NotEmpty(t, id)

	got, err := m.Get(id)
	require.NoError(t, err)
	assert.Same(t, f, got)

	m.Remove(id)
	_, err = m.Get(id)
	assert.Error(t, err)
}

func TestManager_EvictsIdleAndFinishedFlows(t *testing.T) {
	m := NewManager(time.Minute)

	idle := m.Add(&Flow{step: StepInit})
	m.flows[idle].lastSeen = time.Now().Add(-2 * time.Minute)
	done := m.Add(&Flow{step: StepDone})
	fresh := m.Add(&Flow{step: StepInit})

	// Eviction piggybacks on Add.
	m.Add(&Flow{step: StepInit})

	_, err := m.Get(idle)
	assert.Error(t, err, "idle flow evicted")
	_, err = m.Get(done)
	assert.Error(t, err, "finished flow evicted")
	_, err = m.Get(fresh)
	assert.NoError(t, err)
}
