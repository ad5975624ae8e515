package authsvc

import (
	"context"
	"encoding/json"
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
	"schoolhub/internal/app/tokenstore"
	"schoolhub/internal/app/user"
	"schoolhub/internal/pkg/errs"
	"schoolhub/internal/pkg/kv"
)

type backend struct {
	calls      atomic.Int32
	userStatus int
	userBody   string
	logoutFail bool

	mu       sync.Mutex
	lastBody map[string]any
}

func (b *backend) record(body map[string]any) {
	b.mu.Lock()
	b.lastBody = body
	b.mu.Unlock()
}

func (b *backend) last() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastBody
}

func (b *backend) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b.calls.Add(1)
			next.ServeHTTP(w, r)
		})
	})
	r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.record(body)
		if body["password"] != "x" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"These credentials do not match our records."}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"T1","user":{"role":"teacher","name":"Ann"}}`))
	})
	r.Post("/register", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.record(body)
		_, _ = w.Write([]byte(`{"data":{"token":"T2","user":{"role":"student","email":"s@b.com"}}}`))
	})
	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		if b.logoutFail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"message":"Logged out"}`))
	})
	r.Get("/user", func(w http.ResponseWriter, r *http.Request) {
		if b.userStatus != 0 {
			w.WriteHeader(b.userStatus)
		}
		_, _ = w.Write([]byte(b.userBody))
	})
	return r
}

func newService(t *testing.T, b *backend) (*Service, *tokenstore.Store, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(b.router())
	t.Cleanup(server.Close)

	tokens := tokenstore.New(kv.NewMemory())
	client, err := apiclient.New(server.URL, time.Second, tokens)
	require.NoError(t, err)

	return New(client, tokens), tokens, server
}

func TestLogin_RequiresEmailAndPassword(t *testing.T) {
	b := &backend{}
	svc, _, _ := newService(t, b)

	for _, creds := range []Credentials{
		{},
		{Email: "a@b.com"},
		{Password: "x"},
		{Email: "   ", Password: "x"},
	} {
		_, err := svc.Login(context.Background(), creds)
		assert.True(t, errs.Is(err, errs.ErrInvalidInput))
		assert.Equal(t, "Email and password are required", errs.As(err).Message)
	}

	assert.Zero(t, b.calls.Load(), "no request may be sent before local validation passes")

	_, err := svc.Login(context.Background(), Credentials{Email: "a@b.com"})
	fields := errs.As(err).Fields
	assert.Contains(t, fields, "password")
	assert.NotContains(t, fields, "email")
}

func TestLogin_ReturnsRawEnvelope(t *testing.T) {
	svc, _, _ := newService(t, &backend{})

	env, err := svc.Login(context.Background(), Credentials{Email: "a@b.com", Password: "x"})
	require.NoError(t, err)

	token, ok := env.Token()
	assert.True(t, ok)
	assert.Equal(t, "T1", token)
}

func TestLogin_PropagatesHTTPFailure(t *testing.T) {
	svc, _, _ := newService(t, &backend{})

	_, err := svc.Login(context.Background(), Credentials{Email: "a@b.com", Password: "wrong"})

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrValidationFailed))
	assert.Equal(t, "These credentials do not match our records.", errs.As(err).Message)
}

func TestRegister_SendsExtraFields(t *testing.T) {
	b := &backend{}
	svc, _, _ := newService(t, b)

	env, err := svc.Register(context.Background(), Registration{
		Email:    "s@b.com",
		Password: "secret1",
		Extra:    map[string]any{"name": "Sam", "email": "ignored@b.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"name": "Sam", "email": "s@b.com", "password": "secret1"}, b.last())
	token, _ := env.Token()
	assert.Equal(t, "T2", token)
}

func TestRegister_RequiresEmailAndPassword(t *testing.T) {
	b := &backend{}
	svc, _, _ := newService(t, b)

	_, err := svc.Register(context.Background(), Registration{Email: "s@b.com"})
	assert.True(t, errs.Is(err, errs.ErrInvalidInput))
	assert.Zero(t, b.calls.Load())
}

func TestLogout_NeverFails(t *testing.T) {
	svc, _, server := newService(t, &backend{logoutFail: true})

	res := svc.Logout(context.Background())
	assert.Equal(t, LogoutResult{Success: false, Message: "Logout failed"}, res)

	server.Close()
	res = svc.Logout(context.Background())
	assert.False(t, res.Success)
}

func TestLogout_Success(t *testing.T) {
	svc, _, _ := newService(t, &backend{})

	assert.True(t, svc.Logout(context.Background()).Success)
}

func TestCurrentUser_Normalizes(t *testing.T) {
	cases := map[string]string{
		"user":      `{"user":{"role":"admin","name":"Root"}}`,
		"data.user": `{"data":{"user":{"role":"admin","name":"Root"}}}`,
		"data":      `{"data":{"role":"admin","name":"Root"}}`,
		"root":      `{"role":"admin","name":"Root"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _, _ := newService(t, &backend{userBody: body})

			profile, err := svc.CurrentUser(context.Background())
			require.NoError(t, err)
			assert.Equal(t, user.Profile{"role": "admin", "name": "Root"}, profile)
		})
	}
}

func TestCurrentUser_EmptyBody(t *testing.T) {
	svc, _, _ := newService(t, &backend{})

	profile, err := svc.CurrentUser(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, profile)
}

func TestFetchUser_IsAdvisory(t *testing.T) {
	svc, _, _ := newService(t, &backend{userStatus: http.StatusInternalServerError, userBody: `{"message":"boom"}`})

	res := svc.FetchUser(context.Background())
	assert.False(t, res.OK())
	assert.True(t, errs.Is(res.Err, errs.ErrServerError))
}

func TestPassthroughs(t *testing.T) {
	svc, tokens, _ := newService(t, &backend{})
	ctx := context.Background()

	env, err := svc.Login(ctx, Credentials{Email: "a@b.com", Password: "x"})
	require.NoError(t, err)
	svc.SetAuthData(ctx, env)

	assert.True(t, svc.IsAuthenticated(ctx))
	role, _ := svc.Role(ctx)
	assert.Equal(t, "teacher", role)
	profile, _ := svc.Profile(ctx)
	assert.Equal(t, "Ann", profile.DisplayName())

	svc.ClearAuthData(ctx)
	assert.False(t, svc.IsAuthenticated(ctx))
	_, ok := tokens.Profile(ctx)
	assert.False(t, ok)
}
