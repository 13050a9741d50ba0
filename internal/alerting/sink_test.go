package alerting

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-health-monitor/internal/severity"
)

type fakeSink struct {
	mu       sync.Mutex
	messages []string
	failures int
	closed   bool
}

func (f *fakeSink) LogAlert(_ context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("port gone")
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSink) snapshot() ([]string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...), f.closed
}

// blockingSink never returns from LogAlert until released or closed.
type blockingSink struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingSink() *blockingSink {
	return &blockingSink{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (b *blockingSink) LogAlert(context.Context, string) error {
	b.started <- struct{}{}
	<-b.release
	return nil
}

func (b *blockingSink) Close() error {
	b.once.Do(func() { close(b.release) })
	return nil
}

func TestGuardedDisablesOnFirstFailure(t *testing.T) {
	inner := &fakeSink{failures: 1}
	g := NewGuarded("fake", inner, testLogger())
	ctx := context.Background()

	require.True(t, g.Active())
	assert.NoError(t, g.LogAlert(ctx, "first"))
	require.Eventually(t, func() bool { return !g.Active() }, 2*time.Second, 5*time.Millisecond)

	// no retry after failure
	assert.NoError(t, g.LogAlert(ctx, "second"))
	g.Close()

	messages, closed := inner.snapshot()
	assert.Empty(t, messages)
	assert.True(t, closed)
}

func TestGuardedForwards(t *testing.T) {
	inner := &fakeSink{}
	g := NewGuarded("fake", inner, testLogger())
	for _, m := range []string{"a", "b"} {
		require.NoError(t, g.LogAlert(context.Background(), m))
	}

	// Close drains the queue before releasing the sink.
	g.Close()
	messages, closed := inner.snapshot()
	assert.Equal(t, []string{"a", "b"}, messages)
	assert.True(t, closed)
	assert.False(t, g.Active())

	assert.NoError(t, g.LogAlert(context.Background(), "after close"))
	g.Close()
}

func TestGuardedDoesNotBlockOnSlowSink(t *testing.T) {
	inner := newBlockingSink()
	g := NewGuarded("slow", inner, testLogger(), WithQueueSize(1), WithDrainTimeout(50*time.Millisecond))
	ctx := context.Background()

	require.NoError(t, g.LogAlert(ctx, "one"))
	<-inner.started

	returned := make(chan struct{})
	go func() {
		defer close(returned)
		for i := 0; i < 5; i++ {
			_ = g.LogAlert(ctx, "more")
		}
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("LogAlert blocked on a stuck sink")
	}
	// one slot in the queue, the rest dropped
	assert.Equal(t, int64(4), g.Dropped())

	closed := make(chan struct{})
	go func() {
		g.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close hung on a stuck sink")
	}
	assert.False(t, g.Active())
}

func TestUnavailableIsNoop(t *testing.T) {
	g := Unavailable("serial", errors.New("no such port"), testLogger())
	assert.False(t, g.Active())
	assert.NoError(t, g.LogAlert(context.Background(), "ignored"))
	g.Close()
}

func TestDispatcherFiltersByLevel(t *testing.T) {
	low := &fakeSink{}
	broken := &fakeSink{failures: 5}
	lowGuard := NewGuarded("low", low, testLogger())
	brokenGuard := NewGuarded("broken", broken, testLogger())
	d := NewDispatcher(severity.Moderate, lowGuard, brokenGuard)
	ctx := context.Background()

	d.Dispatch(ctx, severity.Low, "quiet")
	assert.Equal(t, []string{"low", "broken"}, d.Active())

	d.Dispatch(ctx, severity.Moderate, "warn")
	d.Dispatch(ctx, severity.High, "alarm")
	require.Eventually(t, func() bool { return !brokenGuard.Active() }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"low"}, d.Active())

	d.Close()
	assert.Empty(t, d.Active())
	messages, _ := low.snapshot()
	assert.Equal(t, []string{"warn", "alarm"}, messages)

	var nilDispatcher *Dispatcher
	nilDispatcher.Dispatch(ctx, severity.High, "ignored")
	nilDispatcher.Close()
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)
	require.NoError(t, s.LogAlert(context.Background(), "line one"))
	require.NoError(t, s.LogAlert(context.Background(), "line two"))
	assert.Equal(t, "line one\nline two\n", buf.String())
}

type bufferPort struct {
	bytes.Buffer
	closed bool
}

func (p *bufferPort) Close() error {
	p.closed = true
	return nil
}

func TestSerialSinkTerminatesLines(t *testing.T) {
	port := &bufferPort{}
	s := NewSerialSink(port)
	require.NoError(t, s.LogAlert(context.Background(), "Vehicle stable."))
	assert.Equal(t, "Vehicle stable.\n", port.String())
	require.NoError(t, s.Close())
	assert.True(t, port.closed)
}

func TestOpenSerialMissingPort(t *testing.T) {
	_, err := OpenSerial("/dev/does-not-exist-vhmon", 9600)
	assert.Error(t, err)
}

func TestOpenRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := OpenRedis(ctx, RedisOptions{Addr: "127.0.0.1:1", Channel: "vhmon:alerts"})
	assert.Error(t, err)
}
