package testutil

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockIsFrozen(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := NewClock(start)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start, clock.Now(), "time must not pass on its own")
}

func TestClockAdvance(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := NewClock(start)

	clock.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), clock.Now())
}

func TestClockSet(t *testing.T) {
	clock := NewClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	later := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	clock.Set(later)
	assert.Equal(t, later, clock.Now())
}

func TestClockConcurrentUse(t *testing.T) {
	clock := NewClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
			_ = clock.Now()
		}()
	}
	wg.Wait()

	want := time.Date(2026, 1, 2, 3, 4, 21, 0, time.UTC)
	assert.Equal(t, want, clock.Now(), "advances must not be lost under concurrency")
}

func TestSeqReaderIsReproducible(t *testing.T) {
	r1, err := io.ReadAll(SeqReader(252, 10))
	require.NoError(t, err)
	r2, err := io.ReadAll(SeqReader(252, 10))
	require.NoError(t, err)

	assert.Equal(t, r1, r2, "same parameters must yield the same bytes")
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, r1)
}

func TestSeqReaderWrapsAtLimit(t *testing.T) {
	data, err := io.ReadAll(SeqReader(3, 7))
	require.NoError(t, err)

	assert.Equal(t, []byte{0, 1, 2, 0, 1, 2, 0}, data)
}
