package httpserver

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coffee_shop/internal/config"
	"github.com/Skotchmaster/coffee_shop/internal/db"
	"github.com/Skotchmaster/coffee_shop/internal/logging"
	"github.com/Skotchmaster/coffee_shop/internal/metrics"
	"github.com/Skotchmaster/coffee_shop/internal/migrate"
	"github.com/Skotchmaster/coffee_shop/internal/mykafka"
	"github.com/Skotchmaster/coffee_shop/internal/repo"
	"github.com/Skotchmaster/coffee_shop/internal/service"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []mykafka.Event
	topics []string
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, _ string, ev mykafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type testEnv struct {
	T       *testing.T
	E       *echo.Echo
	Repo    *repo.GormRepo
	Carts   *service.CartService
	Auth    *service.AuthService
	Events  *recordingPublisher
	Metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.Open(ctx, config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, migrate.Up(ctx, gdb, config.DriverSQLite))
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := repo.New(gdb)
	events := &recordingPublisher{}
	m := metrics.New()

	carts := &service.CartService{Repo: r}
	_, err = carts.EnsureActiveCart(ctx)
	require.NoError(t, err)
	auth := &service.AuthService{Repo: r}

	e := New(logging.Discard(), nil, &Deps{
		CatalogHandler: &CatalogHTTP{Svc: &service.CatalogService{Repo: r}, Producer: events, Metrics: m},
		CartHandler:    &CartHTTP{Svc: carts, Producer: events, Metrics: m},
		AuthHandler:    &AuthHTTP{Svc: auth, Producer: events},
		Metrics:        m,
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	return &testEnv{T: t, E: e, Repo: r, Carts: carts, Auth: auth, Events: events, Metrics: m}
}

// do sends body (a string or any JSON-encodable value) and returns the recorder.
func (env *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	env.T.Helper()
	var payload string
	switch b := body.(type) {
	case nil:
	case string:
		payload = b
	default:
		raw, err := json.Marshal(b)
		require.NoError(env.T, err)
		payload = string(raw)
	}

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	if payload != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
