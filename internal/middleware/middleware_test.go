package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS(t *testing.T) {
	t.Run("Adds CORS headers", func(t *testing.T) {
		handler := CORS(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/rubbers", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	})

	t.Run("Short-circuits preflight requests", func(t *testing.T) {
		called := false
		handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		req := httptest.NewRequest(http.MethodOptions, "/rubbers", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.False(t, called)
	})
}

func TestRequestID(t *testing.T) {
	t.Run("Generates an ID and stores it in the context", func(t *testing.T) {
		var fromContext string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fromContext = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/rubbers", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.NotEmpty(t, fromContext)
		assert.Equal(t, fromContext, w.Header().Get("X-Request-ID"))
	})

	t.Run("Reuses the client's ID", func(t *testing.T) {
		var fromContext string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fromContext = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/rubbers", nil)
		req.Header.Set("X-Request-ID", "client-supplied-id")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "client-supplied-id", fromContext)
		assert.Equal(t, "client-supplied-id", w.Header().Get("X-Request-ID"))
	})
}

func TestGetRequestID_MissingFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetRequestID(req.Context()))
}

func TestAPIKeyAuth(t *testing.T) {
	newHandler := func() http.Handler {
		return APIKeyAuth("secret-key", zerolog.Nop())(okHandler())
	}

	tests := []struct {
		name           string
		method         string
		apiKey         string
		expectedStatus int
	}{
		{
			name:           "GET passes without a key",
			method:         http.MethodGet,
			apiKey:         "",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "OPTIONS passes without a key",
			method:         http.MethodOptions,
			apiKey:         "",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "DELETE with valid key",
			method:         http.MethodDelete,
			apiKey:         "secret-key",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "DELETE without a key",
			method:         http.MethodDelete,
			apiKey:         "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "PUT with wrong key",
			method:         http.MethodPut,
			apiKey:         "wrong-key",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/rubbers", nil)
			if tt.apiKey != "" {
				req.Header.Set("X-API-Key", tt.apiKey)
			}

			w := httptest.NewRecorder()
			newHandler().ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestLogging_PreservesStatusCode(t *testing.T) {
	handler := Logging(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/rubbers", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestRecovery(t *testing.T) {
	t.Run("Converts a panic into a 500", func(t *testing.T) {
		handler := Recovery(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("something went wrong")
		}))

		req := httptest.NewRequest(http.MethodGet, "/rubbers", nil)
		w := httptest.NewRecorder()

		assert.NotPanics(t, func() {
			handler.ServeHTTP(w, req)
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("Leaves healthy handlers alone", func(t *testing.T) {
		handler := Recovery(zerolog.Nop())(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/rubbers", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
