package geocode

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/triplog/internal/config"
	"github.com/TheMichaelB/triplog/internal/events"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *bytes.Buffer) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	var buf bytes.Buffer
	c := NewClient(&config.GeocodeConfig{
		Enabled:    true,
		BaseURL:    server.URL + "/",
		Timeout:    2 * time.Second,
		MaxRetries: 2,
		UserAgent:  "triplog-test",
	}, events.NewTestLogger(events.DebugLevel, "json", &buf))
	c.retryDelay = 5 * time.Millisecond
	return c, &buf
}

func TestReverse(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "52.520000", r.URL.Query().Get("lat"))
		assert.Equal(t, "13.405000", r.URL.Query().Get("lon"))
		assert.Equal(t, "triplog-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "de", r.Header.Get("Accept-Language"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"display_name":"Unter den Linden 1, Berlin, Germany","address":{"road":"Unter den Linden","house_number":"1","city":"Berlin"}}`))
	})
	c.SetLanguage("de")

	place, err := c.Reverse(context.Background(), 52.52, 13.405)
	require.NoError(t, err)
	assert.Equal(t, "Unter den Linden 1, Berlin", place.Label())
	assert.Equal(t, "Berlin", place.Address.Locality())
}

func TestReverseRetriesServerErrors(t *testing.T) {
	var calls int32
	c, buf := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"display_name":"Somewhere","address":{"village":"Hamlet"}}`))
	})

	place, err := c.Reverse(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Hamlet", place.Label())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Contains(t, buf.String(), "Retrying request")
}

func TestReverseDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	_, err := c.Reverse(context.Background(), 1, 2)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestReverseNoResult(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	})

	_, err := c.Reverse(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestReverseGuards(t *testing.T) {
	disabled := NewClient(&config.GeocodeConfig{}, events.Discard())
	_, err := disabled.Reverse(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrDisabled)

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err = c.Reverse(context.Background(), 91, 0)
	assert.ErrorIs(t, err, ErrCoordinates)
}

func TestReverseContextTimeout(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c.retryDelay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Reverse(ctx, 1, 2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseCoordinates(t *testing.T) {
	lat, lon, err := ParseCoordinates(" 52.52, 13.405 ")
	require.NoError(t, err)
	assert.Equal(t, 52.52, lat)
	assert.Equal(t, 13.405, lon)

	for _, in := range []string{"", "1", "a,b", "100,0", "1,2,3"} {
		_, _, err := ParseCoordinates(in)
		assert.Error(t, err, "input %q", in)
	}
}
