package cache

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	k := NewScopedKeyer(NewDefaultKeyer(), "tenant:a:")
	routeKey := k.RouteKey("scenario", RouteKeyOpts{Step: 1})
	if err := c.Set(ctx, routeKey, []byte("result"), TTLRoute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, routeKey)
	if err != nil || hit || data != nil {
		t.Errorf("Get after Set = %q, %v, %v; want a plain miss", data, hit, err)
	}
	for _, format := range []string{"svg", "png"} {
		c.Get(ctx, k.ArtifactKey("result", ArtifactKeyOpts{Format: format}))
	}
	c.Get(ctx, "unkeyed")
	if err := c.Delete(ctx, routeKey); err != nil {
		t.Errorf("Delete error: %v", err)
	}

	routes, artifacts := c.(*NullCache).Misses()
	if routes != 1 || artifacts != 2 {
		t.Errorf("Misses() = %d routes, %d artifacts; want 1, 2", routes, artifacts)
	}
}

func TestKindOf(t *testing.T) {
	k := NewDefaultKeyer()
	tests := []struct {
		key, want string
	}{
		{k.RouteKey("s", RouteKeyOpts{}), kindRoute},
		{k.ArtifactKey("r", ArtifactKeyOpts{Format: "txt"}), kindArtifact},
		{NewScopedKeyer(k, "project:east:").RouteKey("s", RouteKeyOpts{}), kindRoute},
		{"plain", ""},
	}
	for _, tt := range tests {
		if got := kindOf(tt.key); got != tt.want {
			t.Errorf("kindOf(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "route:abc"); hit {
		t.Error("empty cache reported a hit")
	}
	if err := c.Set(ctx, "route:abc", []byte("payload"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "route:abc")
	if err != nil || !hit || string(data) != "payload" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	// Expired entries are misses and get removed
	if err := c.Set(ctx, "stale", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "stale"); hit {
		t.Error("expired entry reported as hit")
	}

	if err := c.Delete(ctx, "route:abc"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if err := c.Delete(ctx, "route:abc"); err != nil {
		t.Errorf("Delete of missing key should not fail: %v", err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("%d shard directories left after Clear", len(entries))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// RouteKey should include options in hash
	rk1 := k.RouteKey("scenario123", RouteKeyOpts{Step: 1, TurnPenalty: 20})
	rk2 := k.RouteKey("scenario123", RouteKeyOpts{Step: 1, TurnPenalty: 40})
	if rk1 == rk2 {
		t.Error("Different RouteKeyOpts should produce different keys")
	}
	if rk1 != k.RouteKey("scenario123", RouteKeyOpts{Step: 1, TurnPenalty: 20}) {
		t.Error("RouteKey should be deterministic")
	}
	if !strings.HasPrefix(rk1, "route:") {
		t.Errorf("RouteKey unexpected: %s", rk1)
	}

	// ArtifactKey
	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "png"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "project:east:")

	// All keys should be prefixed
	opts := RouteKeyOpts{Step: 0.5}
	routeKey := scoped.RouteKey("abc", opts)
	if routeKey != "project:east:"+inner.RouteKey("abc", opts) {
		t.Errorf("ScopedKeyer RouteKey unexpected: %s", routeKey)
	}

	artifactKey := scoped.ArtifactKey("abc", ArtifactKeyOpts{Format: "svg"})
	if !strings.HasPrefix(artifactKey, "project:east:artifact:") {
		t.Errorf("ScopedKeyer ArtifactKey should be prefixed: %s", artifactKey)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.RouteKey("abc", RouteKeyOpts{})
	if key != "prefix:"+NewDefaultKeyer().RouteKey("abc", RouteKeyOpts{}) {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		addr     string
		wantAddr string
		wantDB   int
		wantErr  bool
	}{
		{"localhost:6379", "localhost:6379", 0, false},
		{"redis://cache.internal:6380/2", "cache.internal:6380", 2, false},
		{"", "", 0, true},
	}
	for _, tt := range tests {
		opts, err := redisOptions(tt.addr)
		if (err != nil) != tt.wantErr {
			t.Errorf("redisOptions(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		if opts.Addr != tt.wantAddr || opts.DB != tt.wantDB {
			t.Errorf("redisOptions(%q) = %s db %d", tt.addr, opts.Addr, opts.DB)
		}
	}
}

// replyError stands in for a Redis error reply such as OOM.
type replyError string

func (e replyError) Error() string { return string(e) }
func (replyError) RedisError()     {}

func TestClassifyRedis(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	tests := []struct {
		name      string
		err       error
		want      error
		retryable bool
	}{
		{"connection refused", refused, ErrNetwork, true},
		{"dropped connection", io.EOF, ErrNetwork, true},
		{"error reply", replyError("OOM command not allowed"), ErrBackend, false},
		{"closed client", redis.ErrClosed, ErrClosed, false},
		{"cancelled", context.Canceled, context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyRedis("get", tt.err)
			if !errors.Is(err, tt.want) {
				t.Errorf("classifyRedis(%v) = %v, want %v", tt.err, err, tt.want)
			}
			if IsRetryable(err) != tt.retryable {
				t.Errorf("IsRetryable = %v, want %v", IsRetryable(err), tt.retryable)
			}
		})
	}
	if classifyRedis("set", nil) != nil {
		t.Error("nil error should stay nil")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond
	ctx := context.Background()
	refused := classifyRedis("ping", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED})

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"first try", 0, nil, 1, nil},
		{"backend error is final", 5, classifyRedis("ping", replyError("LOADING")), 1, ErrBackend},
		{"recovers after refusal", 2, refused, 3, nil},
		{"gives up", 5, refused, 3, ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr == nil && err != nil || tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond

	// Port 1 on loopback refuses connections.
	c, err := NewRedisCache(context.Background(), "127.0.0.1:1", "ductrouter:")
	if c != nil {
		t.Error("got a cache for an unreachable server")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}
}
