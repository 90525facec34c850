package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"lemuria/internal/app/presence"
	"lemuria/internal/app/terrain"
	"lemuria/internal/app/world"
	"lemuria/internal/configs"
	"lemuria/internal/pkg/auth/jwt"
)

const testSecret = "test-secret"

type memRepo struct {
	worlds []world.Record
	props  map[int][]world.Prop
	nodes  map[int][]terrain.NodeRecord
}

func (m *memRepo) ListWorlds(context.Context) ([]world.Record, error) { return m.worlds, nil }

func (m *memRepo) GetWorld(_ context.Context, id int) (world.Record, error) {
	for _, w := range m.worlds {
		if w.ID == id {
			return w, nil
		}
	}
	return world.Record{}, world.ErrNotFound
}

func (m *memRepo) FindWorldByName(_ context.Context, name string) (world.Record, error) {
	for _, w := range m.worlds {
		if strings.EqualFold(w.Name, name) {
			return w, nil
		}
	}
	return world.Record{}, world.ErrNotFound
}

func (m *memRepo) Props(_ context.Context, worldID int, b world.Bounds) ([]world.Prop, error) {
	return b.Filter(m.props[worldID]), nil
}

func (m *memRepo) ElevationNodes(_ context.Context, worldID int) ([]terrain.NodeRecord, error) {
	return m.nodes[worldID], nil
}

func (m *memRepo) PageNodes(_ context.Context, worldID, pageX, pageZ int) ([]terrain.NodeRecord, error) {
	var out []terrain.NodeRecord
	for _, n := range m.nodes[worldID] {
		if n.PageX == pageX && n.PageZ == pageZ {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memRepo) ImportWorld(context.Context, world.ImportData) (int, error) { return 0, nil }

type testEnv struct {
	server  *httptest.Server
	manager *presence.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &configs.AppConfig{
		Environment:        "development",
		JWTSecret:          testSecret,
		PositionUpdateTick: 20 * time.Millisecond,
	}

	desc := "a tree"
	repo := &memRepo{
		worlds: []world.Record{{ID: 1, Name: "Lemuria", Data: `{"welcome":"Hello"}`}},
		props: map[int][]world.Prop{1: {
			{ID: 1, WorldID: 1, Date: 1700000000, Name: "tree.rwx", X: 10, Desc: &desc},
			{ID: 2, WorldID: 1, Date: 1700000001, Name: "rock.rwx", X: -10},
		}},
		nodes: map[int][]terrain.NodeRecord{1: {
			{PageX: 0, PageZ: 0, Radius: 1, Textures: []int{3}, Heights: []int{0, 0, 0, 9}},
		}},
	}

	manager := presence.NewManager(cfg.HeartbeatInterval)
	worlds := world.NewService(repo, manager, world.CacheOptions{TTL: time.Minute, MaxKeys: 100})

	ctx, cancel := context.WithCancel(context.Background())
	server := httptest.NewServer(Router(ctx, &AppDeps{
		Presence: manager,
		Worlds:   worlds,
		Config:   cfg,
	}))
	t.Cleanup(server.Close)
	t.Cleanup(manager.Shutdown)
	t.Cleanup(cancel)

	return &testEnv{server: server, manager: manager}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func decodeBody(t *testing.T, res *http.Response, dst any) {
	t.Helper()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(bytes.NewReader(b)).Decode(dst), string(b))
}

func findCookie(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type session struct {
	SessionView
	access  *http.Cookie
	refresh *http.Cookie
}

func (e *testEnv) login(t *testing.T, name string) session {
	t.Helper()

	res := e.do(t, http.MethodPost, "/api/v1/auth", `{"login":"`+name+`","password":""}`)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var env envelope
	decodeBody(t, res, &env)

	var s session
	require.NoError(t, json.Unmarshal(env.Data, &s.SessionView))
	s.access = findCookie(res, jwt.AccessCookieName)
	s.refresh = findCookie(res, jwt.RefreshCookieName)
	require.NotNil(t, s.access)
	require.NotNil(t, s.refresh)
	return s
}
