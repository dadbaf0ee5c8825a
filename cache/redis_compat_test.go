//go:build integration

package cache_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/MrEthical07/recipeauth/cache"
	"github.com/MrEthical07/recipeauth/ledger"
	"github.com/MrEthical07/recipeauth/session"
)

// redisMode is one Redis deployment the suite runs against. miniredis is
// always present; REDIS_ADDR, REDIS_CLUSTER_ADDRS and REDIS_SENTINEL_ADDRS
// add real servers.
type redisMode struct {
	name  string
	setup func(t *testing.T) redis.UniversalClient
}

func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{{
		name: "miniredis",
		setup: func(t *testing.T) redis.UniversalClient {
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = rdb.Close() })
			return rdb
		},
	}}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) redis.UniversalClient {
				return connect(t, redis.NewClient(&redis.Options{Addr: addr}))
			},
		})
	}
	if addrs := os.Getenv("REDIS_CLUSTER_ADDRS"); addrs != "" {
		modes = append(modes, redisMode{
			name: "cluster",
			setup: func(t *testing.T) redis.UniversalClient {
				return connect(t, redis.NewClusterClient(&redis.ClusterOptions{Addrs: splitAddrs(addrs)}))
			},
		})
	}
	if addrs := os.Getenv("REDIS_SENTINEL_ADDRS"); addrs != "" {
		master := os.Getenv("REDIS_SENTINEL_MASTER")
		if master == "" {
			master = "mymaster"
		}
		modes = append(modes, redisMode{
			name: "sentinel",
			setup: func(t *testing.T) redis.UniversalClient {
				return connect(t, redis.NewFailoverClient(&redis.FailoverOptions{
					MasterName:    master,
					SentinelAddrs: splitAddrs(addrs),
				}))
			},
		})
	}
	return modes
}

func connect(t *testing.T, rdb redis.UniversalClient) redis.UniversalClient {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("redis not reachable: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func splitAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// uniquePrefix keeps runs against a shared server apart.
func uniquePrefix(t *testing.T) string {
	return "compat-" + strings.ReplaceAll(t.Name(), "/", "-") + "-" + time.Now().Format("150405.000000000")
}

func TestRedisCompat_LedgerQuotaSurvivesReconnect(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb := mode.setup(t)
			prefix := uniquePrefix(t)
			ctx := context.Background()
			log := zaptest.NewLogger(t)

			first := ledger.New(cache.NewRedis(rdb, prefix), ledger.DefaultConfig(), ledger.WithLogger(log))
			require.NoError(t, first.Record(ctx, "cook@example.com", ledger.Email))
			require.NoError(t, first.Record(ctx, "cook@example.com", ledger.Password))

			second := ledger.New(cache.NewRedis(rdb, prefix), ledger.DefaultConfig(), ledger.WithLogger(log))
			q, err := second.Quota(ctx, "cook@example.com")
			require.NoError(t, err)
			require.Equal(t, ledger.Quota{Email: 2, Password: 2}, q)

			t.Cleanup(func() { _ = rdb.Del(context.Background(), prefix+":"+ledger.DefaultConfig().Key).Err() })
		})
	}
}

func TestRedisCompat_SessionRecordRoundTrip(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb := mode.setup(t)
			prefix := uniquePrefix(t)
			ctx := context.Background()
			log := zaptest.NewLogger(t)

			c := session.NewCache(cache.NewRedis(rdb, prefix), session.DefaultKey, log)
			rec := &session.Session{
				ID:            "uid-1",
				DisplayName:   "Cook",
				Email:         "cook@example.com",
				Authenticated: true,
				Provider:      session.ProviderRemote,
				EstablishedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			}
			require.NoError(t, c.Save(ctx, rec))

			got, healed, err := session.NewCache(cache.NewRedis(rdb, prefix), session.DefaultKey, log).Load(ctx)
			require.NoError(t, err)
			require.False(t, healed)
			require.Equal(t, rec.Email, got.Email)
			require.Equal(t, rec.ID, got.ID)
			require.True(t, got.IsRemote())

			require.NoError(t, c.Clear(ctx))
			got, _, err = c.Load(ctx)
			require.NoError(t, err)
			require.Nil(t, got)
		})
	}
}
