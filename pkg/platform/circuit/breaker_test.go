package circuit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// outcome is one primary call result fed to the breaker.
type outcome bool

const (
	ok   outcome = true
	fail outcome = false
)

func TestBreakerDefaults(t *testing.T) {
	b := New("ratelimit-redis")
	assert.Equal(t, "ratelimit-redis", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())

	for range 4 {
		useFallback, _ := b.RecordFailure()
		assert.False(t, useFallback)
	}
	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback, "fifth straight failure opens a default breaker")
	assert.True(t, change.Opened)
	assert.Equal(t, "open", b.State().String())
}

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		successes int
		calls     []outcome
		wantOpen  bool
		opened    int
		closed    int
	}{
		{
			name:     "below failure threshold stays on primary",
			failures: 3, successes: 2,
			calls:    []outcome{fail, fail},
			wantOpen: false,
		},
		{
			name:     "failure threshold opens once",
			failures: 3, successes: 2,
			calls:    []outcome{fail, fail, fail, fail},
			wantOpen: true, opened: 1,
		},
		{
			name:     "success on primary resets failure streak",
			failures: 3, successes: 2,
			calls:    []outcome{fail, fail, ok, fail, fail},
			wantOpen: false,
		},
		{
			name:     "recovery needs consecutive successes",
			failures: 1, successes: 3,
			calls:    []outcome{fail, ok, ok, fail, ok, ok},
			wantOpen: true, opened: 1,
		},
		{
			name:     "closes after success threshold",
			failures: 1, successes: 2,
			calls:    []outcome{fail, ok, ok},
			wantOpen: false, opened: 1, closed: 1,
		},
		{
			name:     "reopens after recovery",
			failures: 2, successes: 1,
			calls:    []outcome{fail, fail, ok, fail, fail},
			wantOpen: true, opened: 2, closed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("ratelimit-redis", WithFailureThreshold(tt.failures), WithSuccessThreshold(tt.successes))
			var opened, closed int
			for _, call := range tt.calls {
				var change StateChange
				if call == ok {
					_, change = b.RecordSuccess()
				} else {
					_, change = b.RecordFailure()
				}
				if change.Opened {
					opened++
				}
				if change.Closed {
					closed++
				}
			}
			assert.Equal(t, tt.wantOpen, b.IsOpen())
			assert.Equal(t, tt.opened, opened, "open transitions")
			assert.Equal(t, tt.closed, closed, "close transitions")
		})
	}
}

func TestBreakerOpenServesFallback(t *testing.T) {
	b := New("ratelimit-redis", WithFailureThreshold(1), WithSuccessThreshold(2))
	b.RecordFailure()

	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.Equal(t, StateChange{}, change, "already open")

	usePrimary, _ := b.RecordSuccess()
	assert.False(t, usePrimary, "a single recovered call is not trusted yet")
}

func TestBreakerReset(t *testing.T) {
	b := New("ratelimit-redis", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	usePrimary, _ := b.RecordSuccess()
	assert.True(t, usePrimary)
}

func TestBreakerConcurrentFailures(t *testing.T) {
	b := New("ratelimit-redis", WithFailureThreshold(10))
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		opened int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, change := b.RecordFailure(); change.Opened {
				mu.Lock()
				opened++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.True(t, b.IsOpen())
	assert.Equal(t, 1, opened, "exactly one caller observes the transition")
}
