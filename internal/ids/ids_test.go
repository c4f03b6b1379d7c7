package ids

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UniqueAndSorted(t *testing.T) {
	const n = 1000
	prev := ""
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := New()
		require.Len(t, id, 26)
		require.Greater(t, id, prev)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
		prev = id
	}
}

func TestNew_Concurrent(t *testing.T) {
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		seen = map[string]struct{}{}
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := New()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 1600)
}

func TestTime_RoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC)
	got, err := Time(NewAt(at))
	require.NoError(t, err)
	assert.True(t, at.Equal(got.UTC()), "got %v", got)

	_, err = Time("not-a-ulid")
	assert.Error(t, err)
}
