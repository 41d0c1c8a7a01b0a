package telephony

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// recordingHook answers every command locally and keeps its arguments.
type recordingHook struct {
	mu     sync.Mutex
	args   [][]any
	evalTo int64
}

func (h *recordingHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, fmt.Errorf("unexpected dial to %s", addr)
	}
}

func (h *recordingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.mu.Lock()
		h.args = append(h.args, cmd.Args())
		h.mu.Unlock()
		if c, ok := cmd.(*redis.Cmd); ok {
			c.SetVal(h.evalTo)
		}
		return nil
	}
}

func (h *recordingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func recordingClient(t *testing.T, evalTo int64) (*redis.Client, *recordingHook) {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = rdb.Close() })
	h := &recordingHook{evalTo: evalTo}
	rdb.AddHook(h)
	return rdb, h
}

func TestRedisBridgeLimiter_KeyLimitAndTTL(t *testing.T) {
	rdb, hook := recordingClient(t, 1)
	lim := NewRedisBridgeLimiter(rdb, 3, 90*time.Minute)

	ok, err := lim.Acquire(context.Background(), "+15550009999")
	if err != nil || !ok {
		t.Fatalf("expected slot, got ok=%v err=%v", ok, err)
	}
	if err := lim.Release(context.Background(), "+15550009999"); err != nil {
		t.Fatalf("release: %v", err)
	}

	if len(hook.args) != 2 {
		t.Fatalf("expected two script calls, got %v", hook.args)
	}
	// evalsha <sha> <numkeys> <key> <args...>
	acquire := hook.args[0]
	if fmt.Sprint(acquire[0]) != "evalsha" || fmt.Sprint(acquire[3]) != "ivr:bridge:+15550009999" {
		t.Fatalf("unexpected acquire call %v", acquire)
	}
	if fmt.Sprint(acquire[4]) != "3" || fmt.Sprint(acquire[5]) != fmt.Sprint((90 * time.Minute).Milliseconds()) {
		t.Fatalf("expected limit 3 and ttl in ms, got %v", acquire[4:])
	}
	release := hook.args[1]
	if len(release) != 4 || fmt.Sprint(release[3]) != "ivr:bridge:+15550009999" {
		t.Fatalf("unexpected release call %v", release)
	}
}

func TestRedisBridgeLimiter_FullCapAndDefaults(t *testing.T) {
	rdb, hook := recordingClient(t, -1)
	lim := NewRedisBridgeLimiter(rdb, 0, 0)

	ok, err := lim.Acquire(context.Background(), "+15550009999")
	if err != nil || ok {
		t.Fatalf("expected full cap, got ok=%v err=%v", ok, err)
	}
	if fmt.Sprint(hook.args[0][4]) != "1" || fmt.Sprint(hook.args[0][5]) != fmt.Sprint((2 * time.Hour).Milliseconds()) {
		t.Fatalf("expected default limit 1 and 2h ttl, got %v", hook.args[0][4:])
	}
}
