package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/revisit-loyalty/internal/config"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	if Enabled() || Client() != nil {
		t.Fatalf("cache should be disabled")
	}
	ctx := context.Background()
	if err := SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute); err != nil {
		t.Fatalf("set on disabled cache should be noop: %v", err)
	}
	var dest map[string]int
	hit, err := GetJSON(ctx, "k", &dest)
	if err != nil || hit {
		t.Fatalf("get on disabled cache should miss, hit=%v err=%v", hit, err)
	}
	if err := Del(ctx, "a", "b"); err != nil {
		t.Fatalf("del on disabled cache should be noop: %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	redisPrefix = "rv"
	if got := BuildKey(TenantSlugKey(" Cantina ")); got != "rv:tenant:slug:cantina" {
		t.Fatalf("unexpected tenant key: %s", got)
	}
	if got := CardBalanceKey("r1", "#0001-9"); got != "card:r1:0001-9" {
		t.Fatalf("unexpected card key: %s", got)
	}
	if got := RateLimitBlockKey("register", "1.2.3.4"); got != "ratelimit:register:1.2.3.4:block" {
		t.Fatalf("unexpected block key: %s", got)
	}
}

type cachedThing struct {
	Name string `json:"name"`
}

func TestRememberLoadsWhenDisabled(t *testing.T) {
	if err := InitRedis(nil); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	calls := 0
	load := func(ctx context.Context) (*cachedThing, error) {
		calls++
		return &cachedThing{Name: "cantina"}, nil
	}
	for i := 0; i < 2; i++ {
		got, err := Remember(context.Background(), TenantSlugKey("cantina"), time.Minute, load)
		if err != nil || got == nil || got.Name != "cantina" {
			t.Fatalf("unexpected remember result: %+v err=%v", got, err)
		}
	}
	if calls != 2 {
		t.Fatalf("disabled cache should load every time, calls=%d", calls)
	}
}

func TestRememberPropagatesLoadError(t *testing.T) {
	sentinel := errors.New("boom")
	got, err := Remember(context.Background(), "card:r1:0001-9", time.Minute, func(ctx context.Context) (*cachedThing, error) {
		return nil, sentinel
	})
	if !errors.Is(err, sentinel) || got != nil {
		t.Fatalf("expected load error, got %+v err=%v", got, err)
	}
}

func TestRedisUnreachableFallsBackToDisabled(t *testing.T) {
	err := InitRedis(&config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1})
	if err != nil {
		t.Fatalf("unreachable redis should not fail init: %v", err)
	}
	if Enabled() {
		t.Fatalf("cache should be disabled when redis is unreachable")
	}
}

func TestKeyspaceLabel(t *testing.T) {
	cases := map[string]string{
		"tenant:slug:cantina": "tenant",
		"card:r1:0001-9":      "card",
		"  ":                  "unknown",
		"plain":               "plain",
	}
	for key, want := range cases {
		if got := keyspace(key); got != want {
			t.Fatalf("keyspace(%q)=%s want %s", key, got, want)
		}
	}
}

func TestDelPrefixDisabledAndCardPrefix(t *testing.T) {
	if err := InitRedis(nil); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	deleted, err := DelPrefix(context.Background(), CardBalancePrefix("r1"))
	if err != nil || deleted != 0 {
		t.Fatalf("disabled cache should delete nothing: %d %v", deleted, err)
	}
	if key := CardBalanceKey("r1", "#0001-9"); !strings.HasPrefix(key, CardBalancePrefix("r1")) {
		t.Fatalf("card key %s must share the tenant prefix", key)
	}
	if strings.HasPrefix(CardBalanceKey("r10", "#0001-9"), CardBalancePrefix("r1")) {
		t.Fatalf("tenant prefix must not match another tenant")
	}
}
