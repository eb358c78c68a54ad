package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/benhicks2/tt-scraper/internal/crawler"
	"github.com/benhicks2/tt-scraper/internal/model"
	"github.com/benhicks2/tt-scraper/internal/service"

	"github.com/rs/zerolog"
)

// CrawlRunner triggers a crawl run for one category. Implemented by
// crawler.Runner; abstracted here so handler tests can stub it.
type CrawlRunner interface {
	Run(ctx context.Context, category model.Category) (crawler.Stats, error)
}

// EquipmentHandler handles equipment-related HTTP requests.
type EquipmentHandler struct {
	query  service.QueryService
	runner CrawlRunner
	logger zerolog.Logger
}

// NewEquipmentHandler creates a new equipment handler.
func NewEquipmentHandler(query service.QueryService, runner CrawlRunner, logger zerolog.Logger) *EquipmentHandler {
	return &EquipmentHandler{
		query:  query,
		runner: runner,
		logger: logger.With().Str("handler", "equipment").Logger(),
	}
}

// Categories handles GET /equipment: the collections that currently hold data.
func (h *EquipmentHandler) Categories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	collections, err := h.query.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, collections)
}

// Collection handles /{rubbers|blades} requests:
//
//	GET           distinct product names, or a search page when ?name= is given
//	DELETE        remove one product matched by name and site substring
//	PUT           trigger a crawl run for the category
func (h *EquipmentHandler) Collection(w http.ResponseWriter, r *http.Request) {
	category, ok := h.categoryFromPath(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, category)
	case http.MethodDelete:
		h.delete(w, r, category)
	case http.MethodPut:
		h.refresh(w, r, category)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
	}
}

// Item handles GET /{rubbers|blades}/{id}: one product with staleness flags.
func (h *EquipmentHandler) Item(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	category, ok := h.categoryFromPath(w, r)
	if !ok {
		return
	}

	parts := strings.SplitN(strings.Trim(r.URL.Path, "/"), "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		writeError(w, http.StatusBadRequest, "equipment ID is required", h.logger)
		return
	}

	product, err := h.query.GetByID(r.Context(), category, parts[1])
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *EquipmentHandler) get(w http.ResponseWriter, r *http.Request, category string) {
	name := r.URL.Query().Get("name")

	// No name given: return all distinct names for the category.
	if strings.TrimSpace(name) == "" {
		names, err := h.query.ListNames(r.Context(), category)
		if err != nil {
			writeDomainError(w, err, h.logger)
			return
		}
		writeJSON(w, http.StatusOK, names)
		return
	}

	cursor := r.URL.Query().Get("cursor")
	page, err := h.query.Search(r.Context(), category, name, cursor)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// deleteRequest is the body of a DELETE /{collection} request.
type deleteRequest struct {
	Name string `json:"name"`
	Site string `json:"site"`
}

func (h *EquipmentHandler) delete(w http.ResponseWriter, r *http.Request, category string) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body, name and site are required", h.logger)
		return
	}

	if err := h.query.Delete(r.Context(), category, req.Name, req.Site); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *EquipmentHandler) refresh(w http.ResponseWriter, r *http.Request, category string) {
	cat, err := model.ParseCategory(category)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	stats, err := h.runner.Run(r.Context(), cat)
	if err != nil {
		h.logger.Error().Err(err).Str("category", category).Msg("crawl run failed")
		writeError(w, http.StatusInternalServerError, "failed to run the crawl", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// categoryFromPath maps the collection segment ("rubbers") to its category
// ("rubber"), rejecting unknown collections before any store access.
func (h *EquipmentHandler) categoryFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	collection := strings.SplitN(strings.Trim(r.URL.Path, "/"), "/", 2)[0]
	category := strings.TrimSuffix(collection, "s")
	if _, err := model.ParseCategory(category); err != nil || category == collection {
		writeDomainError(w, model.ErrInvalidCategory, h.logger)
		return "", false
	}
	return category, true
}
