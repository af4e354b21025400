package http_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gohttp "github.com/km-arc/go-inject/framework/http"
	"github.com/km-arc/go-inject/framework/http/validation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newResponse(t *testing.T) (*gohttp.Response, *httptest.ResponseRecorder) {
	t.Helper()
	rr := httptest.NewRecorder()
	return gohttp.NewResponse(rr), rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&m))
	return m
}

// ── JSON ──────────────────────────────────────────────────────────────────────

func TestResponse_JSON(t *testing.T) {
	res, rr := newResponse(t)
	res.JSON(http.StatusOK, map[string]any{"key": "val"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "val", decodeJSON(t, rr)["key"])
}

func TestResponse_JSON_EncodeFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	res, rr := newResponse(t)
	res.JSON(http.StatusOK, map[string]any{"ch": make(chan int)})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, buf.String(), "Failed to encode JSON response")
	assert.Contains(t, buf.String(), "unsupported type")
}

func TestResponse_Success(t *testing.T) {
	res, rr := newResponse(t)
	res.Success(map[string]any{"id": float64(1)})

	assert.Equal(t, http.StatusOK, rr.Code)
	data, ok := decodeJSON(t, rr)["data"].(map[string]any)
	require.True(t, ok, "expected data envelope")
	assert.Equal(t, float64(1), data["id"])
}

func TestResponse_Raw(t *testing.T) {
	res, rr := newResponse(t)
	assert.Same(t, rr, res.Raw())
}

// ── Error helpers ─────────────────────────────────────────────────────────────

func TestResponse_Error(t *testing.T) {
	res, rr := newResponse(t)
	res.Error(http.StatusConflict, "bad state")

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "bad state", decodeJSON(t, rr)["message"])
}

func TestResponse_NotFound(t *testing.T) {
	tests := []struct {
		name    string
		message []string
		want    string
	}{
		{"Default", nil, "Not found."},
		{"Custom", []string{"no such type"}, "no such type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, rr := newResponse(t)
			res.NotFound(tt.message...)

			assert.Equal(t, http.StatusNotFound, rr.Code)
			assert.Equal(t, tt.want, decodeJSON(t, rr)["message"])
		})
	}
}

func TestResponse_Unprocessable(t *testing.T) {
	res, rr := newResponse(t)
	res.Unprocessable("dependency loop: A---A")

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "dependency loop: A---A", decodeJSON(t, rr)["message"])
}

func TestResponse_BadRequest(t *testing.T) {
	res, rr := newResponse(t)
	res.BadRequest("missing root")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestResponse_Created(t *testing.T) {
	res, rr := newResponse(t)
	res.Created(map[string]any{"id": "ord-0001"})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"data":{"id":"ord-0001"}}`, rr.Body.String())
}

func TestResponse_ValidationError(t *testing.T) {
	res, rr := newResponse(t)
	v := validation.Make(map[string]string{}, validation.Rules{"customer": "required"})
	require.True(t, v.Fails())

	res.ValidationError(v.Errors())

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var body struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "The given data was invalid.", body.Message)
	assert.Equal(t, []string{"The customer field is required."}, body.Errors["customer"])
}
