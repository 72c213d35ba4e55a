package bypass

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danniel-isiah-libor/talos-io/internal/domain"
)

func TestHTTPHarvester_CollectsCookies(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		http.SetCookie(w, &http.Cookie{Name: "cf_clearance", Value: "abc123", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "xyz", Path: "/"})
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewHTTPHarvester(srv.URL, time.Second, nil)
	cookies, err := h.Harvest(context.Background(), domain.Task{ProxyGroup: "res-a"})
	require.NoError(t, err)

	names := make(map[string]string, len(cookies))
	for _, c := range cookies {
		names[c.Name] = c.Value
	}
	assert.Equal(t, "abc123", names["cf_clearance"])
	assert.Equal(t, "xyz", names["session"])
}

func TestHTTPHarvester_NoCookiesIsNotAnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewHTTPHarvester(srv.URL, time.Second, nil)
	cookies, err := h.Harvest(context.Background(), domain.Task{})
	require.NoError(t, err)
	assert.Empty(t, cookies)
}

func TestHTTPHarvester_TransportFailure(t *testing.T) {
	t.Parallel()

	h := NewHTTPHarvester("http://127.0.0.1:1", 200*time.Millisecond, nil)
	_, err := h.Harvest(context.Background(), domain.Task{})
	assert.Error(t, err)
}
