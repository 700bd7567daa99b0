package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"stamprally/internal/configs"
)

func testRouter() http.Handler {
	return Router(&AppDeps{
		Config: &configs.AppConfig{
			Environment:      "development",
			Port:             8080,
			SessionSecret:    handlerTestSecret,
			QuestionsPerGame: 5,
		},
	})
}

func TestRouterHealth(t *testing.T) {
	recorder := httptest.NewRecorder()
	testRouter().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `"status":"ok"`)
}

func TestRouterWelcomePage(t *testing.T) {
	recorder := httptest.NewRecorder()
	testRouter().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Header().Get("Content-Type"), "text/html")
	require.Contains(t, recorder.Body.String(), "Stamp Rally")
}

func TestRouterUnknownRoute(t *testing.T) {
	recorder := httptest.NewRecorder()
	testRouter().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestRouterRejectsWebSocketWithoutUpgrade(t *testing.T) {
	// A plain GET on the WebSocket endpoint must fail the upgrade, not panic.
	recorder := httptest.NewRecorder()
	testRouter().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ws", nil))

	require.Equal(t, http.StatusBadRequest, recorder.Code)
}
