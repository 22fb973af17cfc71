package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffSequence(t *testing.T) {
	d := backoffFloor
	var got []time.Duration
	for i := 0; i < 7; i++ {
		got = append(got, d)
		d = nextBackoff(d)
	}

	want := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
		60 * time.Second,
		60 * time.Second,
	}
	assert.Equal(t, want, got)
}

func TestSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	assert.False(t, sleep(ctx, time.Minute))
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleepElapsed(t *testing.T) {
	assert.True(t, sleep(context.Background(), time.Millisecond))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, []byte("abc"), truncate([]byte("abc"), 5))
	assert.Equal(t, []byte("ab"), truncate([]byte("abc"), 2))
}
