package router

import (
	"net/http"
	"strings"

	"github.com/benhicks2/tt-scraper/internal/handler"
	"github.com/benhicks2/tt-scraper/internal/middleware"
	"github.com/benhicks2/tt-scraper/internal/model"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
// When apiKey is empty the mutating routes are left unguarded.
func New(
	equipmentHandler *handler.EquipmentHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.HandleFunc("/equipment", equipmentHandler.Categories)

	// One collection route per category: /rubbers, /rubbers/{id}, ...
	for _, category := range model.Categories {
		collection := "/" + category.CollectionName()

		collectionHandler := func(w http.ResponseWriter, r *http.Request) {
			// A trailing segment means a single-item request.
			if r.URL.Path != collection && strings.TrimRight(r.URL.Path, "/") != collection {
				equipmentHandler.Item(w, r)
				return
			}
			equipmentHandler.Collection(w, r)
		}

		mux.HandleFunc(collection, collectionHandler)
		mux.HandleFunc(collection+"/", collectionHandler)
	}

	// Apply middleware in order: Recovery -> RequestID -> Logging -> CORS -> APIKeyAuth
	var h http.Handler = mux
	if apiKey != "" {
		h = middleware.APIKeyAuth(apiKey, logger)(h)
	}
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.RequestID(h)
	h = middleware.Recovery(logger)(h)

	return h
}
