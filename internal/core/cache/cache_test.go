package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewWithClient(rdb, "test"), mr
}

func TestKey(t *testing.T) {
	c := &Cache{Prefix: "rd"}
	assert.Equal(t, "rd:report:id:7", c.Key("report", "id", "7"))
	var nilCache *Cache
	assert.Equal(t, "report:user:3", nilCache.Key("report", "user", "3"))
}

func TestGetOrLoadJSONCachesWithTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	var loads atomic.Int32
	load := func(context.Context) (*item, error) {
		loads.Add(1)
		return &item{ID: 1, Name: "Q3"}, nil
	}

	got, err := GetOrLoadJSON(c, ctx, c.Key("item", "1"), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, &item{ID: 1, Name: "Q3"}, got)

	got, err = GetOrLoadJSON(c, ctx, c.Key("item", "1"), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "Q3", got.Name)
	assert.Equal(t, int32(1), loads.Load())

	assert.Equal(t, time.Minute, mr.TTL("test:item:1"))
	mr.FastForward(time.Minute + time.Second)
	_, err = GetOrLoadJSON(c, ctx, c.Key("item", "1"), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, int32(2), loads.Load())
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	c, mr := newTestCache(t)
	boom := errors.New("boom")
	_, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestGetOrLoadCollapsesConcurrentMisses(t *testing.T) {
	c, _ := newTestCache(t)
	var loads atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) ([]byte, error) {
		loads.Add(1)
		<-release
		return []byte(`"v"`), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := c.GetOrLoad(context.Background(), "shared", time.Minute, load)
			assert.NoError(t, err)
			assert.Equal(t, `"v"`, string(b))
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), loads.Load())
}

func TestGetOrLoadSurvivesCancelledLeader(t *testing.T) {
	c, mr := newTestCache(t)
	started := make(chan struct{})
	release := make(chan struct{})
	var loads atomic.Int32
	load := func(ctx context.Context) ([]byte, error) {
		if loads.Add(1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []byte(`"v"`), nil
	}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrLoad(leaderCtx, "shared", time.Minute, load)
		leaderErr <- err
	}()
	<-started

	type result struct {
		b   []byte
		err error
	}
	follower := make(chan result, 1)
	go func() {
		b, err := c.GetOrLoad(context.Background(), "shared", time.Minute, load)
		follower <- result{b, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelLeader()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)
	close(release)

	got := <-follower
	require.NoError(t, got.err)
	assert.Equal(t, `"v"`, string(got.b))
	assert.Equal(t, int32(1), loads.Load())

	v, err := mr.Get("shared")
	require.NoError(t, err)
	assert.Equal(t, `"v"`, v)
}

func TestRedisDownFallsBackToLoad(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()
	b, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return []byte("fresh"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(b))
}

func TestNilCachePassesThrough(t *testing.T) {
	var c *Cache
	b, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return []byte("direct"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", string(b))
	assert.NoError(t, c.Delete(context.Background(), "k"))
	assert.NoError(t, c.Ping(context.Background()))
}

func TestDelete(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("a", "1"))
	require.NoError(t, c.Delete(context.Background(), "a", "missing"))
	assert.False(t, mr.Exists("a"))
}

func TestGetOrLoadJSONReplacesCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	key := c.Key("item", "9")
	require.NoError(t, mr.Set(key, "{not json"))

	got, err := GetOrLoadJSON(c, ctx, key, time.Minute, func(context.Context) (*item, error) {
		return &item{ID: 9, Name: "fresh"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, &item{ID: 9, Name: "fresh"}, got)

	raw, err := mr.Get(key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":9,"name":"fresh"}`, raw)
}

func TestGetOrLoadJSONRejectsNilValue(t *testing.T) {
	c, mr := newTestCache(t)
	key := c.Key("item", "0")
	_, err := GetOrLoadJSON(c, context.Background(), key, time.Minute, func(context.Context) (*item, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrNilValue)
	assert.False(t, mr.Exists(key))
}
