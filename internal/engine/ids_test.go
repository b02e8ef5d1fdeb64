package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeqIDs_StartsAtOne(t *testing.T) {
	g := NewSeqIDs()
	assert.Equal(t, int64(0), g.Current())
	assert.Equal(t, "t1", g.NextID())
	assert.Equal(t, "t2", g.NextID())
	assert.Equal(t, int64(2), g.Current())
}

func TestSeqIDs_NewSeqIDsAt(t *testing.T) {
	g := NewSeqIDsAt(41)
	assert.Equal(t, "t42", g.NextID())
}

func TestSeqIDs_ThreadSafe(t *testing.T) {
	g := NewSeqIDs()
	const goroutines = 50
	const perGoroutine = 100

	var wg sync.WaitGroup
	ids := make(chan string, goroutines*perGoroutine)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				ids <- g.NextID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %s generated twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, goroutines*perGoroutine)
}

func TestMakeTask_UniqueIDsAcrossBuilders(t *testing.T) {
	ids := NewSeqIDs()
	seen := make(map[string]bool)

	s := InitialState()
	for i := 0; i < 20; i++ {
		b := NewBuilder(s, ids)
		for j := 0; j < 10; j++ {
			task := b.EnqueueMicro("x", nil)
			assert.False(t, seen[task.ID], "id %s reused", task.ID)
			seen[task.ID] = true
		}
		s = b.Build()
	}
	assert.Len(t, seen, 200)
}
