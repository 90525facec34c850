package handler

import (
	"net/http"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lemuria/internal/pkg/errs"
)

func TestListWorlds(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodGet, "/api/v1/world", "")
	require.Equal(t, http.StatusOK, res.StatusCode)

	var list []map[string]any
	decodeBody(t, res, &list)
	assert.Equal(t, []map[string]any{{"id": float64(1), "name": "Lemuria", "users": float64(0)}}, list)
}

func TestGetWorld(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodGet, "/api/v1/world/1", "")
	require.Equal(t, http.StatusOK, res.StatusCode)

	var desc map[string]json.RawMessage
	decodeBody(t, res, &desc)
	assert.JSONEq(t, `"Lemuria"`, string(desc["name"]))
	assert.JSONEq(t, `"Hello"`, string(desc["welcome"]))
	assert.JSONEq(t, `{"0_0":{"0":[3,0],"1":[3,0],"128":[3,0],"129":[3,9]}}`, string(desc["elev"]))
}

func TestGetWorldMovesCaller(t *testing.T) {
	env := newTestEnv(t)
	s := env.login(t, "alice")

	res := env.do(t, http.MethodGet, "/api/v1/world/1", "", s.access)
	require.Equal(t, http.StatusOK, res.StatusCode)

	rec, ok := env.manager.Snapshot(s.ID)
	require.True(t, ok)
	assert.Equal(t, 1, rec.World)
}

func TestGetWorldErrors(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodGet, "/api/v1/world/9", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	var e envelope
	decodeBody(t, res, &e)
	assert.Equal(t, errs.ErrWorldNotFound, e.Code)

	res = env.do(t, http.MethodGet, "/api/v1/world/abc", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGetProps(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodGet, "/api/v1/world/1/props?min_x=0&max_x=nope", "")
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body map[string]json.RawMessage
	decodeBody(t, res, &body)
	assert.JSONEq(t, `[[1700000000,"tree.rwx",10,0,0,0,0,0,"a tree",null]]`, string(body["entries"]))
}

func TestGetTerrain(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodGet, "/api/v1/world/1/terrain?page_x=0&page_z=0", "")
	require.Equal(t, http.StatusOK, res.StatusCode)

	var page map[string]json.RawMessage
	decodeBody(t, res, &page)
	assert.JSONEq(t, `{"0":[3,0],"1":[3,0],"128":[3,0],"129":[3,9]}`, string(page["0_0"]))

	res = env.do(t, http.MethodGet, "/api/v1/world/1/terrain?page_x=2", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	decodeBody(t, res, &page)
	assert.JSONEq(t, `{}`, string(page["256_0"]))
}
