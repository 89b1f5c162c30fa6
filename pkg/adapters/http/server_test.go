package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/journey"
	"github.com/aretw0/journey/internal/logging"
	"github.com/aretw0/journey/pkg/adapters/file"
	httpAdapter "github.com/aretw0/journey/pkg/adapters/http"
	"github.com/aretw0/journey/pkg/adapters/memory"
	"github.com/aretw0/journey/pkg/domain"
	"github.com/aretw0/journey/pkg/dsl"
	"github.com/aretw0/journey/pkg/ports"
	"github.com/aretw0/journey/pkg/registry"
)

func newJourney(t *testing.T, store ports.StateStore) *journey.Controller {
	t.Helper()
	b := dsl.New()
	b.Add("entry").Entry().Skip().Go("A")
	b.Add("A").Fields("nino").Handler("nino").When("needsRetry", "B").Go("/callback")
	b.Add("B").Fields("retryChoice").Prereqs("A").If("retryChoice", "retry", "A").Go("abandon")
	b.Add("abandon").Skip().Handler("abandon").Go("/callback")

	handlers := registry.NewHandlers().
		Register("nino", ports.HandlerFuncs{
			ValidateFunc: func(_ context.Context, sc *domain.StepContext) (map[string]string, error) {
				nino := strings.ToUpper(strings.ReplaceAll(sc.Submitted["nino"], " ", ""))
				if len(nino) != 9 {
					return nil, domain.NewValidationError(sc.Step.ID, "nino", "pattern")
				}
				return map[string]string{"nino": nino}, nil
			},
			PredicateFuncs: map[string]ports.Predicate{
				"needsRetry": func(_ context.Context, sc *domain.StepContext) bool {
					return strings.HasPrefix(sc.Fields["nino"], "ZZ")
				},
			},
		}).
		Register("abandon", ports.HandlerFuncs{
			ValidateFunc: func(_ context.Context, sc *domain.StepContext) (map[string]string, error) {
				sc.State.Set(domain.KeyAbandoned, true)
				return map[string]string{}, nil
			},
		})

	ctrl, err := journey.New("sample",
		journey.WithLoader(b),
		journey.WithHandlers(handlers),
		journey.WithStore(store),
	)
	require.NoError(t, err)
	return ctrl
}

// newClient returns a client that keeps cookies and does not follow redirects.
func newClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, c *http.Client, u string) *http.Response {
	t.Helper()
	resp, err := c.Get(u)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func post(t *testing.T, c *http.Client, u string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(u, form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeOutcome(t *testing.T, resp *http.Response) domain.Outcome {
	t.Helper()
	var out domain.Outcome
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestServer_Journey(t *testing.T) {
	store := memory.NewStore()
	srv := httptest.NewServer(httpAdapter.NewHandler(newJourney(t, store)))
	defer srv.Close()
	c := newClient(t)

	resp := get(t, c, srv.URL+"/check/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/check/entry", resp.Header.Get("Location"))

	resp = get(t, c, srv.URL+"/check/entry")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/check/A", resp.Header.Get("Location"))

	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, httpAdapter.DefaultCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	sessionID := cookies[0].Value

	resp = get(t, c, srv.URL+"/check/A")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeOutcome(t, resp)
	assert.Equal(t, domain.OutcomeRender, out.Kind)
	assert.Equal(t, []string{"nino"}, out.Fields)
	assert.Empty(t, resp.Cookies(), "the session cookie is only set once")

	resp = post(t, c, srv.URL+"/check/A", url.Values{"nino": {"bad"}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	out = decodeOutcome(t, resp)
	assert.Equal(t, map[string]string{"nino": "pattern"}, out.Errors)

	resp = post(t, c, srv.URL+"/check/A", url.Values{"nino": {"zz 12 34 56 a"}})
	assert.Equal(t, "/check/B", resp.Header.Get("Location"))

	resp = post(t, c, srv.URL+"/check/B", url.Values{"retryChoice": {"giveup"}})
	assert.Equal(t, "/check/abandon", resp.Header.Get("Location"))

	resp = get(t, c, srv.URL+"/check/abandon")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/callback", resp.Header.Get("Location"))

	state, err := store.Load(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"entry", "A", "B", "abandon"}, state.Completed)
	assert.True(t, state.Flag(domain.KeyAbandoned))
}

func TestServer_JSONSubmission(t *testing.T) {
	srv := httptest.NewServer(httpAdapter.NewHandler(newJourney(t, memory.NewStore()),
		httpAdapter.WithBasePath("/journey/")))
	defer srv.Close()
	c := newClient(t)

	get(t, c, srv.URL+"/journey/entry")

	resp, err := c.Post(srv.URL+"/journey/A", "application/json", strings.NewReader(`{"nino":"QQ123456C"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/callback", resp.Header.Get("Location"))

	bad, err := c.Post(srv.URL+"/journey/A", "application/json", strings.NewReader(`{"nino":`))
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestServer_Errors(t *testing.T) {
	t.Run("Unknown Step", func(t *testing.T) {
		srv := httptest.NewServer(httpAdapter.NewHandler(newJourney(t, memory.NewStore())))
		defer srv.Close()

		resp := get(t, newClient(t), srv.URL+"/check/nope")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Store Failure", func(t *testing.T) {
		srv := httptest.NewServer(httpAdapter.NewHandler(newJourney(t, failingStore{memory.NewStore()})))
		defer srv.Close()

		resp := get(t, newClient(t), srv.URL+"/check/entry")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.NotContains(t, string(body), "disk full", "internal errors are not leaked")
	})

	t.Run("Session ID Failure", func(t *testing.T) {
		srv := httptest.NewServer(httpAdapter.NewHandler(newJourney(t, memory.NewStore()),
			httpAdapter.WithSessionIDGenerator(func() (string, error) { return "", errors.New("no entropy") })))
		defer srv.Close()

		resp := get(t, newClient(t), srv.URL+"/check/entry")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

type failingStore struct{ *memory.Store }

func (failingStore) Save(context.Context, string, *domain.JourneyState) error {
	return errors.New("disk full")
}

func TestServer_Cookie(t *testing.T) {
	srv := httptest.NewServer(httpAdapter.NewHandler(newJourney(t, memory.NewStore()),
		httpAdapter.WithCookie("sid", 10*time.Minute),
		httpAdapter.WithSecureCookie(true),
		httpAdapter.WithSessionIDGenerator(func() (string, error) { return "fixed", nil }),
	))
	defer srv.Close()

	resp := get(t, newClient(t), srv.URL+"/check/entry")
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Equal(t, "fixed", cookies[0].Value)
	assert.Equal(t, 600, cookies[0].MaxAge)
	assert.True(t, cookies[0].Secure)
}

func TestServer_MalformedCookie(t *testing.T) {
	srv := httptest.NewServer(httpAdapter.NewHandler(newJourney(t, file.NewStore(t.TempDir()))))
	defer srv.Close()

	for _, value := range []string{"stale.cookie", "index", "../../etc/passwd"} {
		t.Run(value, func(t *testing.T) {
			client := newClient(t)
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/check/entry", nil)
			require.NoError(t, err)
			req.AddCookie(&http.Cookie{Name: httpAdapter.DefaultCookieName, Value: value})

			resp, err := client.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
			cookies := resp.Cookies()
			require.Len(t, cookies, 1, "a fresh session replaces the malformed one")
			_, err = uuid.Parse(cookies[0].Value)
			assert.NoError(t, err)
		})
	}
}

func TestServer_CustomSessionIDs(t *testing.T) {
	srv := httptest.NewServer(httpAdapter.NewHandler(newJourney(t, memory.NewStore()),
		httpAdapter.WithSessionIDGenerator(func() (string, error) { return "fixed", nil }),
		httpAdapter.WithSessionIDValidator(func(v string) bool { return v == "fixed" }),
	))
	defer srv.Close()
	client := newClient(t)

	resp := get(t, client, srv.URL+"/check/entry")
	require.Len(t, resp.Cookies(), 1)

	resp = get(t, client, srv.URL+"/check/A")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Cookies(), "an accepted session keeps its cookie")
}

func TestServer_Endpoints(t *testing.T) {
	srv := httptest.NewServer(httpAdapter.NewHandler(newJourney(t, memory.NewStore()),
		httpAdapter.WithMetricsHandler(promhttp.Handler()),
		httpAdapter.WithInfo(httpAdapter.Info{App: "journey-http", Version: "1.2.3", Journey: "sample"}),
	))
	defer srv.Close()
	c := newClient(t)

	resp := get(t, c, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, c, srv.URL+"/info")
	var info httpAdapter.Info
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "sample", info.Journey)

	resp = get(t, c, srv.URL+"/graph")
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(body), "graph TD\n"))
	assert.Contains(t, string(body), `entry(("entry"))`)

	resp = get(t, c, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := httpAdapter.NewHTTPServer(ln.Addr().String(), httpAdapter.NewHandler(newJourney(t, memory.NewStore())))
	assert.Equal(t, httpAdapter.IdleTimeout, srv.IdleTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- httpAdapter.Serve(ctx, srv, ln, logging.NewNop()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(httpAdapter.ShutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}
