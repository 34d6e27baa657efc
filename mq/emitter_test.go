package mq

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_EmitReachesSubscribers(t *testing.T) {
	b := NewBus()
	var got []Event
	unsub := b.Subscribe(func(e Event) { got = append(got, e) })

	require.NoError(t, b.Emit("diagnosis.created", Index{EntityType: "diagnosis", Method: "POST", EntityId: "d1"}))
	require.Len(t, got, 1)
	assert.Equal(t, "diagnosis.created", got[0].Name)
	assert.Equal(t, "d1", got[0].Index.EntityId)

	unsub()
	unsub()
	require.NoError(t, b.Emit("diagnosis.created", Index{EntityId: "d2"}))
	assert.Len(t, got, 1)
}

func TestBus_ConcurrentEmit(t *testing.T) {
	b := NewBus()
	var mu sync.Mutex
	count := 0
	defer b.Subscribe(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Emit("tip.created", Index{})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, count)
}
