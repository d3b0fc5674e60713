package locker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"research-assistant-be/pkg/apperr"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLocalLockerSerializesSameKey(t *testing.T) {
	l := NewLocalLocker()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "session-1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, l.Held())
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	l := NewLocalLocker()
	unlockA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestLocalLockerContextCancel(t *testing.T) {
	l := NewLocalLocker()
	unlock, err := l.Lock(context.Background(), "s")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "s")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindBusy))

	unlock()
	unlock() // second call is a no-op
	assert.Equal(t, 0, l.Held())
}

type logLine struct {
	level, message string
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (l *recordingLogger) add(level, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, logLine{level, message})
}

func (l *recordingLogger) Debug(module, message string, details map[string]interface{}) {
	l.add("debug", message)
}

func (l *recordingLogger) Info(module, message string, details map[string]interface{}) {
	l.add("info", message)
}

func (l *recordingLogger) Warn(module, message string, details map[string]interface{}) {
	l.add("warn", message)
}

func (l *recordingLogger) Error(module, message string, details map[string]interface{}) {
	l.add("error", message)
}

func (l *recordingLogger) Sync() error { return nil }

func (l *recordingLogger) has(level, message string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if line.level == level && line.message == message {
			return true
		}
	}
	return false
}

func newRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return m, rdb
}

func TestRedisLocker(t *testing.T) {
	m, rdb := newRedis(t)

	l := NewRedisLocker(rdb, "test:lock:", time.Second, nil)
	unlock, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, m.Exists("test:lock:s1"))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "s1")
	assert.True(t, apperr.IsKind(err, apperr.KindBusy))

	unlock()
	unlock()
	assert.False(t, m.Exists("test:lock:s1"))

	unlock2, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)
	unlock2()
}

func TestRedisLockerRenewsLeaseWhileHeld(t *testing.T) {
	m, rdb := newRedis(t)
	const ttl = 300 * time.Millisecond

	holder := NewRedisLocker(rdb, "test:lock:", ttl, nil)
	unlock, err := holder.Lock(context.Background(), "s1")
	require.NoError(t, err)

	// most of the lease passes without the holder finishing
	m.FastForward(200 * time.Millisecond)
	require.Eventually(t, func() bool {
		return m.TTL("test:lock:s1") > 200*time.Millisecond
	}, 2*time.Second, 10*time.Millisecond)

	// past the original lease the key still belongs to the holder
	m.FastForward(200 * time.Millisecond)
	assert.True(t, m.Exists("test:lock:s1"))

	other := NewRedisLocker(rdb, "test:lock:", ttl, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = other.Lock(ctx, "s1")
	assert.True(t, apperr.IsKind(err, apperr.KindBusy))

	unlock()
	assert.False(t, m.Exists("test:lock:s1"))
}

func TestRedisLockerLogsLostLease(t *testing.T) {
	m, rdb := newRedis(t)
	log := &recordingLogger{}

	l := NewRedisLocker(rdb, "test:lock:", 150*time.Millisecond, log)
	unlock, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)
	defer unlock()

	require.NoError(t, m.Set("test:lock:s1", "someone-else"))
	require.Eventually(t, func() bool {
		return log.has("error", "Lock lease lost before unlock")
	}, 2*time.Second, 10*time.Millisecond)

	unlock()
	got, err := m.Get("test:lock:s1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLockerLogsFailedRelease(t *testing.T) {
	m, rdb := newRedis(t)
	log := &recordingLogger{}

	l := NewRedisLocker(rdb, "test:lock:", time.Minute, log)
	unlock, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)

	m.SetError("ERR injected failure")
	unlock()
	m.SetError("")

	assert.True(t, log.has("warn", "Failed to release lock, it expires with its lease"))
	assert.True(t, m.Exists("test:lock:s1"))
}
