package main

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/time/rate"

	"schoolhub/internal/app/apiclient"
	"schoolhub/internal/app/authsvc"
	"schoolhub/internal/app/classroom"
	"schoolhub/internal/app/grade"
	"schoolhub/internal/app/guard"
	"schoolhub/internal/app/session"
	"schoolhub/internal/app/student"
	"schoolhub/internal/app/tokenstore"
	"schoolhub/internal/configs"
	"schoolhub/internal/pkg/kv"
	"schoolhub/internal/pkg/limiter"
	"schoolhub/internal/pkg/logx"
)

// app holds the wired client components for one command run.
type app struct {
	store  kv.Store
	close  func() error
	tokens *tokenstore.Store

	client  *apiclient.Client
	auth    *authsvc.Service
	session *session.Controller
	router  *guard.Router

	classrooms *classroom.Service
	students   *student.Service
	grades     *grade.Service
}

func newApp(ctx context.Context, cfg *configs.AppConfig) (*app, error) {
	a := &app{close: func() error { return nil }}

	switch cfg.StoreBackend {
	case configs.StoreRedis:
		r, err := kv.NewRedis(ctx, cfg.RedisURL, cfg.RedisKeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		a.store, a.close = r, r.Close
	case configs.StoreMemory:
		a.store = kv.NewMemory()
	default:
		a.store = kv.NewFile(cfg.StorePath)
	}
	a.tokens = tokenstore.New(a.store)

	var opts []apiclient.Option
	if cfg.RateLimit > 0 {
		opts = append(opts, apiclient.WithRateLimiter(limiter.NewHostRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)))
	}

	client, err := apiclient.New(cfg.APIBaseURL, cfg.Timeout(), a.tokens, opts...)
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("invalid API_BASE_URL: %w", err)
	}
	a.client = client

	a.auth = authsvc.New(client, a.tokens)
	a.session = session.New(ctx, a.auth, a.tokens)
	a.router = guard.New(a.session)

	client.OnUnauthorized(a.session.Evict)
	client.SetNavigator(a.router)

	a.session.Subscribe(func(s session.State) {
		logx.Debug("Session changed", "phase", string(s.Phase), "role", s.Role, "loading", s.Loading)
	})

	a.classrooms = classroom.New(client)
	a.students = student.New(client)
	a.grades = grade.New(client)

	return a, nil
}

// Close releases the session store.
func (a *app) Close() {
	if err := a.close(); err != nil {
		logx.Error(err, "Failed to close session store")
	}
}

// open rehydrates the session and navigates to page. It fails when the guard
// sends the user elsewhere.
func (a *app) open(ctx context.Context, page string) error {
	a.session.CheckAuth(ctx)

	loc, err := a.router.Navigate(ctx, page)
	if err != nil {
		return err
	}

	want := page
	if u, err := url.Parse(page); err == nil {
		want = u.Path
	}
	if a.router.CurrentPath() == want {
		return nil
	}

	if u, err := url.Parse(loc); err == nil {
		if msg := u.Query().Get("message"); msg != "" {
			return fmt.Errorf("%s Run `schoolhub login` first", msg)
		}
	}
	if a.router.CurrentPath() == guard.LoginPath {
		return fmt.Errorf("you need to sign in to open %s", want)
	}
	return fmt.Errorf("your role cannot open %s (redirected to %s)", want, loc)
}
