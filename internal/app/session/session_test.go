package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolhub/internal/app/apiclient"
	"schoolhub/internal/app/authsvc"
	"schoolhub/internal/app/tokenstore"
	"schoolhub/internal/app/user"
	"schoolhub/internal/pkg/errs"
	"schoolhub/internal/pkg/kv"
)

// backend is a scriptable fake of the auth endpoints.
type backend struct {
	loginStatus int
	loginBody   string
	userStatus  int
	userBody    string
	logoutCalls atomic.Int32
	userCalls   atomic.Int32
	loginGate   chan struct{}
}

func (b *backend) router() http.Handler {
	r := chi.NewRouter()
	reply := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		if status != 0 {
			w.WriteHeader(status)
		}
		_, _ = w.Write([]byte(body))
	}
	r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
		if b.loginGate != nil {
			<-b.loginGate
		}
		reply(w, b.loginStatus, b.loginBody)
	})
	r.Post("/register", func(w http.ResponseWriter, r *http.Request) {
		reply(w, b.loginStatus, b.loginBody)
	})
	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		b.logoutCalls.Add(1)
		reply(w, 0, `{}`)
	})
	r.Get("/user", func(w http.ResponseWriter, r *http.Request) {
		b.userCalls.Add(1)
		reply(w, b.userStatus, b.userBody)
	})
	return r
}

type harness struct {
	server *httptest.Server
	area   *kv.Memory
	tokens *tokenstore.Store
	client *apiclient.Client
	ctrl   *Controller
}

func newHarness(t *testing.T, b *backend, seed func(*tokenstore.Store)) *harness {
	t.Helper()

	server := httptest.NewServer(b.router())
	t.Cleanup(server.Close)

	area := kv.NewMemory()
	tokens := tokenstore.New(area)
	if seed != nil {
		seed(tokens)
	}

	client, err := apiclient.New(server.URL, 2*time.Second, tokens)
	require.NoError(t, err)

	ctrl := New(context.Background(), authsvc.New(client, tokens), tokens)
	client.OnUnauthorized(ctrl.Evict)

	return &harness{server: server, area: area, tokens: tokens, client: client, ctrl: ctrl}
}

func (h *harness) assertStorageCleared(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, key := range []string{tokenstore.KeyToken, tokenstore.KeyRole, tokenstore.KeyUser} {
		_, ok, err := h.area.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, "key %q should be cleared", key)
	}
}

var creds = authsvc.Credentials{Email: "a@b.com", Password: "x"}

func TestLogin_Scenario(t *testing.T) {
	h := newHarness(t, &backend{
		loginBody: `{"access_token":"T1","user":{"role":"teacher","name":"Ann"}}`,
	}, nil)

	_, err := h.ctrl.Login(context.Background(), creds)
	require.NoError(t, err)

	s := h.ctrl.Snapshot()
	assert.Equal(t, PhaseAuthenticated, s.Phase)
	assert.Equal(t, "T1", s.Token)
	assert.Equal(t, "teacher", s.Role)
	assert.Equal(t, "Ann", s.DisplayName())
	assert.True(t, h.ctrl.IsAuthenticated())
	assert.False(t, s.Loading)
	assert.Empty(t, s.Error)

	token, _ := h.tokens.Token(context.Background())
	assert.Equal(t, "T1", token)
}

func TestLogin_FetchesUserWhenEnvelopeHasNone(t *testing.T) {
	b := &backend{
		loginBody: `{"data":{"token":"T3"}}`,
		userBody:  `{"data":{"role":"admin","full_name":"Root Admin"}}`,
	}
	h := newHarness(t, b, nil)

	_, err := h.ctrl.Login(context.Background(), creds)
	require.NoError(t, err)

	assert.Equal(t, "T3", h.ctrl.Token())
	assert.Equal(t, "admin", h.ctrl.Role())
	assert.Equal(t, "Root Admin", h.ctrl.DisplayName())

	role, ok := h.tokens.Role(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "admin", role)
}

func TestLogin_UserFetchFailureIsAdvisory(t *testing.T) {
	h := newHarness(t, &backend{
		loginBody:  `{"token":"T4"}`,
		userStatus: http.StatusInternalServerError,
		userBody:   `{"message":"boom"}`,
	}, nil)

	_, err := h.ctrl.Login(context.Background(), creds)
	require.NoError(t, err)

	s := h.ctrl.Snapshot()
	assert.Equal(t, PhaseAuthenticated, s.Phase)
	assert.Equal(t, "T4", s.Token)
	assert.Empty(t, s.Role)
	assert.Empty(t, s.Error)
}

func TestLogin_UserFetchUnauthorizedFailsLogin(t *testing.T) {
	h := newHarness(t, &backend{
		loginBody:  `{"token":"T9"}`,
		userStatus: http.StatusUnauthorized,
		userBody:   `{"message":"Unauthenticated."}`,
	}, nil)

	_, err := h.ctrl.Login(context.Background(), creds)
	assert.True(t, errs.Is(err, errs.ErrUnauthorized))

	s := h.ctrl.Snapshot()
	assert.Equal(t, PhaseAnonymous, s.Phase)
	assert.Empty(t, s.Token)
	assert.False(t, s.Loading)
	h.assertStorageCleared(t)

	// The busy guard is released.
	_, err = h.ctrl.Login(context.Background(), creds)
	assert.False(t, errs.Is(err, errs.ErrSessionBusy))
}

func TestLogin_FailureKeepsHeldSession(t *testing.T) {
	h := newHarness(t, &backend{
		loginStatus: http.StatusInternalServerError,
		loginBody:   `{"message":"boom"}`,
	}, func(s *tokenstore.Store) {
		ctx := context.Background()
		s.SetToken(ctx, "OLD")
		s.SetProfile(ctx, user.Profile{"role": "admin"})
	})

	_, err := h.ctrl.Login(context.Background(), creds)
	assert.True(t, errs.Is(err, errs.ErrServerError))

	s := h.ctrl.Snapshot()
	assert.Equal(t, PhaseAuthenticated, s.Phase)
	assert.Equal(t, "OLD", s.Token)
	assert.Equal(t, "admin", s.Role)
	assert.Equal(t, "boom", s.Error)
	assert.False(t, s.Loading)

	token, _ := h.tokens.Token(context.Background())
	assert.Equal(t, "OLD", token)
}

func TestLogin_ServerMessageOnFailure(t *testing.T) {
	h := newHarness(t, &backend{
		loginStatus: http.StatusUnprocessableEntity,
		loginBody:   `{"message":"These credentials do not match our records."}`,
	}, nil)

	_, err := h.ctrl.Login(context.Background(), creds)
	require.Error(t, err)

	s := h.ctrl.Snapshot()
	assert.Equal(t, PhaseAnonymous, s.Phase)
	assert.Equal(t, "These credentials do not match our records.", s.Error)
	assert.False(t, s.Loading)
	assert.False(t, s.IsAuthenticated())
}

func TestLogin_GenericMessageOnLocalFailure(t *testing.T) {
	h := newHarness(t, &backend{}, nil)

	_, err := h.ctrl.Login(context.Background(), authsvc.Credentials{Email: "a@b.com"})
	assert.True(t, errs.Is(err, errs.ErrInvalidInput))
	assert.Equal(t, "Login failed", h.ctrl.Snapshot().Error)

	h.ctrl.ClearError()
	assert.Empty(t, h.ctrl.Snapshot().Error)
}

func TestRegister_GenericMessageOnNetworkFailure(t *testing.T) {
	h := newHarness(t, &backend{}, nil)
	h.server.Close()

	_, err := h.ctrl.Register(context.Background(), authsvc.Registration{Email: "s@b.com", Password: "pw"})
	assert.True(t, errs.Is(err, errs.ErrNetwork))
	assert.Equal(t, "Registration failed", h.ctrl.Snapshot().Error)
	assert.Equal(t, PhaseAnonymous, h.ctrl.Snapshot().Phase)
}

func TestRegister_Success(t *testing.T) {
	h := newHarness(t, &backend{
		loginBody: `{"data":{"access_token":"T5","user":{"role":"student","username":"sam"}}}`,
	}, nil)

	_, err := h.ctrl.Register(context.Background(), authsvc.Registration{Email: "s@b.com", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, "T5", h.ctrl.Token())
	assert.Equal(t, "student", h.ctrl.Role())
	assert.Equal(t, "sam", h.ctrl.DisplayName())
}

func TestLogin_RejectsConcurrentSubmission(t *testing.T) {
	b := &backend{
		loginBody: `{"token":"T1","user":{"role":"teacher"}}`,
		loginGate: make(chan struct{}),
	}
	h := newHarness(t, b, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = h.ctrl.Login(context.Background(), creds)
	}()

	require.Eventually(t, func() bool {
		return h.ctrl.Snapshot().Phase == PhaseAuthenticating
	}, time.Second, 5*time.Millisecond)

	_, err := h.ctrl.Login(context.Background(), creds)
	assert.True(t, errs.Is(err, errs.ErrSessionBusy))
	_, err = h.ctrl.Register(context.Background(), authsvc.Registration{Email: "a@b.com", Password: "x"})
	assert.True(t, errs.Is(err, errs.ErrSessionBusy))

	close(b.loginGate)
	wg.Wait()
	require.NoError(t, firstErr)

	_, err = h.ctrl.Login(context.Background(), creds)
	assert.NoError(t, err)
}

func TestLogout_RemoteFailureStillClears(t *testing.T) {
	h := newHarness(t, &backend{}, func(s *tokenstore.Store) {
		s.SetToken(context.Background(), "T1")
		s.SetProfile(context.Background(), user.Profile{"role": "admin"})
	})
	require.True(t, h.ctrl.IsAuthenticated())

	h.server.Close()
	h.ctrl.Logout(context.Background())

	assert.False(t, h.ctrl.IsAuthenticated())
	assert.Equal(t, State{Phase: PhaseAnonymous}, h.ctrl.Snapshot())
	h.assertStorageCleared(t)
}

func TestNew_RestoresFromStorage(t *testing.T) {
	h := newHarness(t, &backend{}, func(s *tokenstore.Store) {
		ctx := context.Background()
		s.SetToken(ctx, "T1")
		s.SetProfile(ctx, user.Profile{"role": "student", "email": "s@b.com"})
	})

	s := h.ctrl.Snapshot()
	assert.Equal(t, PhaseAuthenticated, s.Phase)
	assert.Equal(t, "T1", s.Token)
	assert.Equal(t, "student", s.Role)
	assert.Equal(t, "s@b.com", s.DisplayName())
}

func TestNew_IgnoresMarkerToken(t *testing.T) {
	h := newHarness(t, &backend{}, func(s *tokenstore.Store) {
		s.SetToken(context.Background(), "undefined")
	})

	assert.Equal(t, PhaseAnonymous, h.ctrl.Snapshot().Phase)
}

func TestCheckAuth_InvalidTokenLogsOut(t *testing.T) {
	b := &backend{}
	h := newHarness(t, b, nil)
	require.NoError(t, h.area.Set(context.Background(), tokenstore.KeyToken, "null"))
	require.NoError(t, h.area.Set(context.Background(), tokenstore.KeyRole, "admin"))

	h.ctrl.CheckAuth(context.Background())

	assert.Equal(t, PhaseAnonymous, h.ctrl.Snapshot().Phase)
	assert.Equal(t, int32(1), b.logoutCalls.Load())
	h.assertStorageCleared(t)
}

func TestCheckAuth_CachedProfileSkipsNetwork(t *testing.T) {
	b := &backend{}
	h := newHarness(t, b, func(s *tokenstore.Store) {
		ctx := context.Background()
		s.SetToken(ctx, "T1")
		s.SetProfile(ctx, user.Profile{"name": "Ann"})
	})
	require.NoError(t, h.area.Set(context.Background(), tokenstore.KeyRole, "teacher"))

	h.ctrl.CheckAuth(context.Background())

	s := h.ctrl.Snapshot()
	assert.Equal(t, PhaseAuthenticated, s.Phase)
	assert.Equal(t, "teacher", s.Role, "role falls back to the stored role")
	assert.Equal(t, "Ann", s.DisplayName())
	assert.Zero(t, b.userCalls.Load())
}

func TestCheckAuth_FetchesAndPersistsProfile(t *testing.T) {
	b := &backend{userBody: `{"user":{"role":"admin","username":"root"}}`}
	h := newHarness(t, b, func(s *tokenstore.Store) {
		s.SetToken(context.Background(), "T1")
	})

	h.ctrl.CheckAuth(context.Background())

	assert.Equal(t, PhaseAuthenticated, h.ctrl.Snapshot().Phase)
	assert.Equal(t, "admin", h.ctrl.Role())

	profile, ok := h.tokens.Profile(context.Background())
	require.True(t, ok)
	assert.Equal(t, user.Profile{"role": "admin", "username": "root"}, profile)
	role, _ := h.tokens.Role(context.Background())
	assert.Equal(t, "admin", role)
}

func TestCheckAuth_UserFetchFailureScenario(t *testing.T) {
	b := &backend{userStatus: http.StatusInternalServerError, userBody: `{"message":"boom"}`}
	h := newHarness(t, b, func(s *tokenstore.Store) {
		s.SetToken(context.Background(), "T1")
	})

	h.ctrl.CheckAuth(context.Background())

	assert.Equal(t, PhaseAnonymous, h.ctrl.Snapshot().Phase)
	assert.False(t, h.ctrl.IsAuthenticated())
	h.assertStorageCleared(t)
}

func TestCheckAuth_EmptyUserLogsOut(t *testing.T) {
	h := newHarness(t, &backend{userBody: `{}`}, func(s *tokenstore.Store) {
		s.SetToken(context.Background(), "T1")
	})

	h.ctrl.CheckAuth(context.Background())

	assert.Equal(t, PhaseAnonymous, h.ctrl.Snapshot().Phase)
	h.assertStorageCleared(t)
}

func TestEvict_OnUnauthorizedResponse(t *testing.T) {
	b := &backend{userStatus: http.StatusUnauthorized, userBody: `{"message":"Unauthenticated."}`}
	h := newHarness(t, b, func(s *tokenstore.Store) {
		ctx := context.Background()
		s.SetToken(ctx, "T1")
		s.SetProfile(ctx, user.Profile{"role": "teacher"})
	})

	var mu sync.Mutex
	var phases []Phase
	unsubscribe := h.ctrl.Subscribe(func(s State) {
		mu.Lock()
		phases = append(phases, s.Phase)
		mu.Unlock()
	})
	defer unsubscribe()

	err := h.client.Get(context.Background(), "/user", nil, nil)
	assert.True(t, errs.Is(err, errs.ErrUnauthorized))

	assert.False(t, h.ctrl.IsAuthenticated())
	h.assertStorageCleared(t)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Phase{PhaseExpired, PhaseAnonymous}, phases)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	h := newHarness(t, &backend{}, nil)

	var calls atomic.Int32
	unsubscribe := h.ctrl.Subscribe(func(State) { calls.Add(1) })

	h.ctrl.ClearError()
	unsubscribe()
	h.ctrl.ClearError()

	assert.Equal(t, int32(1), calls.Load())
}

func TestPurge(t *testing.T) {
	b := &backend{}
	h := newHarness(t, b, func(s *tokenstore.Store) {
		s.SetToken(context.Background(), "T1")
	})

	h.ctrl.Purge(context.Background())

	assert.False(t, h.ctrl.IsAuthenticated())
	assert.Zero(t, b.logoutCalls.Load())
	h.assertStorageCleared(t)
}
