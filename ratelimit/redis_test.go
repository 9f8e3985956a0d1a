package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/httprate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := NewRedis(mr.Addr(), "", "test:ratelimit")
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return mr, r
}

func TestCounterIncrementAndGet(t *testing.T) {
	mr, r := newTestRedis(t)
	c := r.Counter("login")
	c.Config(5, time.Minute)

	curr := time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC)
	prev := curr.Add(-time.Minute)

	require.NoError(t, c.Increment("1.2.3.4:/api/login", prev))
	require.NoError(t, c.Increment("1.2.3.4:/api/login", curr))
	require.NoError(t, c.IncrementBy("1.2.3.4:/api/login", curr, 2))

	got, before, err := c.Get("1.2.3.4:/api/login", curr, prev)
	require.NoError(t, err)
	assert.Equal(t, 3, got)
	assert.Equal(t, 1, before)

	got, before, err = c.Get("5.6.7.8:/api/login", curr, prev)
	require.NoError(t, err)
	assert.Zero(t, got)
	assert.Zero(t, before)

	key := "test:ratelimit:login:1.2.3.4:/api/login:" + "1772366460"
	require.True(t, mr.Exists(key))
	assert.Equal(t, 2*time.Minute, mr.TTL(key))
}

func TestCountersAreScopedByName(t *testing.T) {
	_, r := newTestRedis(t)
	login, api := r.Counter("login"), r.Counter("api")
	login.Config(5, time.Minute)
	api.Config(100, time.Minute)
	w := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, login.Increment("ip", w))
	got, _, err := api.Get("ip", w, w.Add(-time.Minute))
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestCounterRequiresConfig(t *testing.T) {
	_, r := newTestRedis(t)
	assert.Error(t, r.Counter("x").Increment("ip", time.Now()))
}

func TestCounterBacksHTTPRate(t *testing.T) {
	_, r := newTestRedis(t)
	l := httprate.NewRateLimiter(2, time.Hour, httprate.WithLimitCounter(r.Counter("register")))

	limited := func(key string) bool {
		req := httptest.NewRequest(http.MethodPost, "/api/register", nil)
		return l.OnLimit(httptest.NewRecorder(), req, key)
	}
	assert.False(t, limited("1.2.3.4:/api/register"))
	assert.False(t, limited("1.2.3.4:/api/register"))
	assert.True(t, limited("1.2.3.4:/api/register"))
	assert.False(t, limited("5.6.7.8:/api/register"))
}

func TestCounterErrorsWhenRedisDown(t *testing.T) {
	mr, r := newTestRedis(t)
	c := r.Counter("api")
	c.Config(1, time.Second)
	mr.Close()

	_, _, err := c.Get("ip", time.Now(), time.Now().Add(-time.Second))
	assert.Error(t, err)
	assert.Error(t, c.Increment("ip", time.Now()))
}

func TestNewRedisRequiresAddr(t *testing.T) {
	r, err := NewRedis("  ", "", "")
	assert.Error(t, err)
	assert.Nil(t, r)
}
