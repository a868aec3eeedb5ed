package factorapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/factors", r.URL.Path)
		assert.Equal(t, "fiber/cotton/india", r.URL.Query().Get("key"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Factor{
			Key:    "fiber/cotton/india",
			Values: map[string]float64{"climate_change": 6.1, "water_use": 320},
			Source: "test",
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	f, err := c.Lookup(context.Background(), "fiber/cotton/india")
	require.NoError(t, err)
	assert.Equal(t, 6.1, f.Values["climate_change"])
	assert.Equal(t, "test", f.Source)
}

func TestLookup_NotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient("", WithBaseURL(srv.URL)).Lookup(context.Background(), "fiber/unobtainium/global")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLookup_EmptyValues(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"key":"x/y/z","values":{}}`))
	}))
	defer srv.Close()

	_, err := NewClient("", WithBaseURL(srv.URL)).Lookup(context.Background(), "x/y/z")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookup_StatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer srv.Close()

	_, err := NewClient("", WithBaseURL(srv.URL)).Lookup(context.Background(), "x/y/z")
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Contains(t, err.Error(), "503")
}

func TestLookup_BadJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	_, err := NewClient("", WithBaseURL(srv.URL)).Lookup(context.Background(), "x/y/z")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
