package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"salmon-stats/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url, token string) *NicknameClient {
	return NewNicknameClient(&config.Config{NicknameAPIURL: url, NicknameAPIToken: token}, zerolog.Nop())
}

func TestResolveWithoutEndpoint(t *testing.T) {
	c := newTestClient("", "")

	names, err := c.Resolve(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, names, 2)
	assert.Equal(t, "a", names["a"].PlayerID)
	assert.Empty(t, names["a"].DisplayName)
}

func TestResolveFetchesNicknames(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var resp NicknamesResponse
		for _, id := range r.URL.Query()["id"] {
			resp.NicknameAndIcons = append(resp.NicknameAndIcons, NicknameAndIcon{
				NsaID:        id,
				Nickname:     "name-" + id,
				ThumbnailURL: "https://img.example/" + id,
			})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "secret")
	names, err := c.Resolve(context.Background(), []string{"p1", "p2"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "name-p1", names["p1"].DisplayName)
	assert.Equal(t, "https://img.example/p2", names["p2"].AvatarURL)
}

func TestResolveReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	_, err := c.Resolve(context.Background(), []string{"p1"})
	assert.ErrorContains(t, err, "API error: 502")
}

func TestResolveCancelled(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Resolve(ctx, []string{"p1"})
	assert.ErrorIs(t, err, context.Canceled)
}
