package controllers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/journey/pkg/controllers"
)

func TestHTTPMatcher(t *testing.T) {
	var gotSession string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/check", r.URL.Path)
		gotSession = r.Header.Get("session-id")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		switch gotBody["nino"] {
		case "QQ123456C":
			w.WriteHeader(http.StatusOK)
		case "QQ123456A":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"retry_allowed": true}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	m := controllers.NewHTTPMatcher(srv.URL+"/", nil)
	ctx := context.Background()

	res, err := m.Match(ctx, "s1", "QQ123456C")
	require.NoError(t, err)
	assert.Equal(t, controllers.MatchResult{Matched: true}, res)
	assert.Equal(t, "s1", gotSession)

	res, err = m.Match(ctx, "s1", "QQ123456A")
	require.NoError(t, err)
	assert.Equal(t, controllers.MatchResult{RetryAllowed: true}, res)

	_, err = m.Match(ctx, "s1", "QQ123456B")
	assert.ErrorContains(t, err, "unexpected status 502")
}
