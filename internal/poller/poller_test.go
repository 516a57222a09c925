package poller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// recordingHandler captures log records for assertions.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

// count returns the number of records at or above level.
func (h *recordingHandler) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level >= level {
			n++
		}
	}
	return n
}

func (h *recordingHandler) attr(level slog.Level, key string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.records {
		if r.Level != level {
			continue
		}
		var (
			val   string
			found bool
		)
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == key {
				val, found = a.Value.String(), true
				return false
			}
			return true
		})
		if found {
			return val, true
		}
	}
	return "", false
}

func newTestPoller(t *testing.T, url string, interval time.Duration, consume Consumer) (*Poller, *recordingHandler) {
	t.Helper()
	rec := &recordingHandler{}
	client := NewClient()
	t.Cleanup(client.Close)

	p, err := New(Job{Name: "projects", URL: url, Timeout: 2 * time.Second, Interval: interval}, client, consume, slog.New(rec))
	require.NoError(t, err)
	return p, rec
}

func TestNew_Validation(t *testing.T) {
	noop := func([]byte) error { return nil }

	tests := []struct {
		name    string
		job     Job
		consume Consumer
	}{
		{name: "empty name", job: Job{URL: "http://x", Interval: time.Second}, consume: noop},
		{name: "empty url", job: Job{Name: "a", Interval: time.Second}, consume: noop},
		{name: "zero interval", job: Job{Name: "a", URL: "http://x"}, consume: noop},
		{name: "negative interval", job: Job{Name: "a", URL: "http://x", Interval: -time.Second}, consume: noop},
		{name: "nil consumer", job: Job{Name: "a", URL: "http://x", Interval: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.job, nil, tt.consume, nil)
			assert.Error(t, err)
		})
	}
}

func TestNew_DefaultsTimeout(t *testing.T) {
	p, err := New(Job{Name: "a", URL: "http://x", Interval: time.Second}, nil, func([]byte) error { return nil }, nil)
	require.NoError(t, err)
	assert.Equal(t, defaultTimeout, p.job.Timeout)
}

// TestActivate_FetchesImmediately verifies the first fetch does not wait for
// the interval to elapse.
func TestActivate_FetchesImmediately(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ft_container":3}`))
	}))
	defer server.Close()

	got := make(chan string, 1)
	p, _ := newTestPoller(t, server.URL, time.Hour, func(body []byte) error {
		got <- string(body)
		return nil
	})

	h := p.Activate(context.Background())
	defer h.Stop()

	select {
	case body := <-got:
		assert.Equal(t, `{"ft_container":3}`, body)
	case <-time.After(2 * time.Second):
		t.Fatal("no immediate fetch")
	}
}

// TestActivate_RepeatsOnInterval verifies fetches keep happening per tick.
func TestActivate_RepeatsOnInterval(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	p, _ := newTestPoller(t, server.URL, 20*time.Millisecond, func([]byte) error { return nil })
	h := p.Activate(context.Background())

	require.Eventually(t, func() bool { return hits.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
	h.Stop()
	h.Wait()
}

// TestPoll_FailedFetchKeepsStateAndLogsOnce verifies that a failing backend
// leaves consumer state untouched and produces exactly one warning per tick.
func TestPoll_FailedFetchKeepsStateAndLogsOnce(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	var mu sync.Mutex
	state := "previous"
	p, rec := newTestPoller(t, server.URL, time.Hour, func(body []byte) error {
		mu.Lock()
		defer mu.Unlock()
		state = string(body)
		return nil
	})

	h := p.Activate(context.Background())
	require.Eventually(t, func() bool { return rec.count(slog.LevelWarn) == 1 }, 2*time.Second, 10*time.Millisecond)
	h.Stop()
	h.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "previous", state)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 1, rec.count(slog.LevelWarn))
}

// TestPoll_ConsumerErrorLoggedOnce verifies parse failures surface as a single
// warning carrying the consumer error.
func TestPoll_ConsumerErrorLoggedOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	p, rec := newTestPoller(t, server.URL, time.Hour, func([]byte) error {
		return errors.New("invalid character 'o'")
	})

	h := p.Activate(context.Background())
	require.Eventually(t, func() bool { return rec.count(slog.LevelWarn) == 1 }, 2*time.Second, 10*time.Millisecond)
	h.Stop()
	h.Wait()

	msg, ok := rec.attr(slog.LevelWarn, "error")
	require.True(t, ok)
	assert.Contains(t, msg, "invalid character")
}

// TestStop_DropsInFlightResult verifies that a response arriving after
// teardown never reaches the consumer.
func TestStop_DropsInFlightResult(t *testing.T) {
	received := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(received)
		<-release
		_, _ = w.Write([]byte(`{"late":1}`))
	}))
	defer server.Close()

	var calls atomic.Int32
	p, rec := newTestPoller(t, server.URL, time.Hour, func([]byte) error {
		calls.Add(1)
		return nil
	})

	h := p.Activate(context.Background())

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("request never reached backend")
	}

	h.Stop()
	close(release)
	h.Wait()

	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, 0, rec.count(slog.LevelWarn))
}

// TestTick_SkipsWhileOutstanding verifies that overlapping ticks never run
// two requests at once.
func TestTick_SkipsWhileOutstanding(t *testing.T) {
	var (
		concurrent atomic.Int32
		maxSeen    atomic.Int32
		hits       atomic.Int32
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := concurrent.Add(1)
		defer concurrent.Add(-1)
		for {
			old := maxSeen.Load()
			if n <= old || maxSeen.CompareAndSwap(old, n) {
				break
			}
		}
		hits.Add(1)
		time.Sleep(60 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	p, _ := newTestPoller(t, server.URL, 10*time.Millisecond, func([]byte) error { return nil })
	h := p.Activate(context.Background())

	require.Eventually(t, func() bool { return hits.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)
	h.Stop()
	h.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
}

// TestActivate_NewGenerationDropsOldResults verifies that re-activation makes
// responses from the previous activation stale.
func TestActivate_NewGenerationDropsOldResults(t *testing.T) {
	var first atomic.Bool
	first.Store(true)
	release := make(chan struct{})
	firstSeen := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if first.CompareAndSwap(true, false) {
			close(firstSeen)
			<-release
			_, _ = w.Write([]byte(`old`))
			return
		}
		_, _ = w.Write([]byte(`new`))
	}))
	defer server.Close()

	var mu sync.Mutex
	var bodies []string
	p, _ := newTestPoller(t, server.URL, time.Hour, func(body []byte) error {
		mu.Lock()
		defer mu.Unlock()
		bodies = append(bodies, string(body))
		return nil
	})

	h1 := p.Activate(context.Background())
	<-firstSeen

	h2 := p.Activate(context.Background())
	assert.Equal(t, uint64(2), p.Generation())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(bodies) == 1
	}, 2*time.Second, 10*time.Millisecond)

	close(release)
	h1.Wait()
	h2.Stop()
	h2.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"new"}, bodies)
}

// TestPoll_ConsumerPanicRecovered verifies a panicking consumer is logged
// with a correlation ID and does not kill the loop.
func TestPoll_ConsumerPanicRecovered(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	p, rec := newTestPoller(t, server.URL, 20*time.Millisecond, func([]byte) error {
		panic("aggregator exploded")
	})

	h := p.Activate(context.Background())
	require.Eventually(t, func() bool { return hits.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	h.Stop()
	h.Wait()

	id, ok := rec.attr(slog.LevelError, "correlation_id")
	require.True(t, ok, "expected consumer panic to be logged")
	assert.NotEmpty(t, id)

	msg, ok := rec.attr(slog.LevelWarn, "error")
	require.True(t, ok)
	assert.Contains(t, msg, id)
}

// TestHandle_ContextCancellationStopsLoop verifies the parent context ends
// the activation like Stop does.
func TestHandle_ContextCancellationStopsLoop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	p, _ := newTestPoller(t, server.URL, time.Hour, func([]byte) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	h := p.Activate(ctx)
	cancel()

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after context cancellation")
	}
	h.Wait()
	assert.False(t, h.active())
}

// TestHandle_StopIsIdempotent verifies repeated Stop calls do not block or panic.
func TestHandle_StopIsIdempotent(t *testing.T) {
	p, _ := newTestPoller(t, "http://127.0.0.1:1", time.Hour, func([]byte) error { return nil })
	h := p.Activate(context.Background())
	h.Stop()
	h.Stop()
	h.Wait()
}

// TestHandle_StopReleasesGoroutines verifies that teardown leaves no timer or
// fetch goroutines behind.
func TestHandle_StopReleasesGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))

	client := NewClient()
	p, err := New(Job{Name: "users", URL: server.URL, Interval: 5 * time.Millisecond}, client,
		func([]byte) error { return nil }, slog.New(&recordingHandler{}))
	require.NoError(t, err)

	h := p.Activate(context.Background())
	time.Sleep(30 * time.Millisecond)
	h.Stop()
	h.Wait()

	client.Close()
	server.Close()
}
