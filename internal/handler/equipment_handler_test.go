package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benhicks2/tt-scraper/internal/crawler"
	"github.com/benhicks2/tt-scraper/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockQueryService is a mock implementation of service.QueryService.
type MockQueryService struct {
	mock.Mock
}

func (m *MockQueryService) ListCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockQueryService) ListNames(ctx context.Context, category string) ([]string, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockQueryService) Search(ctx context.Context, category, name, cursor string) (*model.SearchPage, error) {
	args := m.Called(ctx, category, name, cursor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SearchPage), args.Error(1)
}

func (m *MockQueryService) GetByID(ctx context.Context, category, id string) (*model.Product, error) {
	args := m.Called(ctx, category, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockQueryService) Delete(ctx context.Context, category, name, site string) error {
	args := m.Called(ctx, category, name, site)
	return args.Error(0)
}

// stubRunner records the category it was asked to crawl.
type stubRunner struct {
	stats    crawler.Stats
	err      error
	category model.Category
}

func (s *stubRunner) Run(_ context.Context, category model.Category) (crawler.Stats, error) {
	s.category = category
	return s.stats, s.err
}

func newTestHandler(query *MockQueryService, runner *stubRunner) *EquipmentHandler {
	if runner == nil {
		runner = &stubRunner{}
	}
	return NewEquipmentHandler(query, runner, zerolog.Nop())
}

func TestCategories(t *testing.T) {
	t.Run("Returns collection names", func(t *testing.T) {
		query := new(MockQueryService)
		h := newTestHandler(query, nil)

		query.On("ListCategories", mock.Anything).Return([]string{"blades", "rubbers"}, nil)

		req := httptest.NewRequest(http.MethodGet, "/equipment", nil)
		w := httptest.NewRecorder()
		h.Categories(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var got []string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, []string{"blades", "rubbers"}, got)
	})

	t.Run("Rejects non-GET methods", func(t *testing.T) {
		query := new(MockQueryService)
		h := newTestHandler(query, nil)

		req := httptest.NewRequest(http.MethodPost, "/equipment", nil)
		w := httptest.NewRecorder()
		h.Categories(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		query.AssertNotCalled(t, "ListCategories", mock.Anything)
	})
}

func TestCollection_Get(t *testing.T) {
	t.Run("Without a name lists distinct names", func(t *testing.T) {
		query := new(MockQueryService)
		h := newTestHandler(query, nil)

		query.On("ListNames", mock.Anything, "rubber").
			Return([]string{"Hurricane 3", "Tenergy 05"}, nil)

		req := httptest.NewRequest(http.MethodGet, "/rubbers", nil)
		w := httptest.NewRecorder()
		h.Collection(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var got []string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Len(t, got, 2)
	})

	t.Run("With a name returns a search page", func(t *testing.T) {
		query := new(MockQueryService)
		h := newTestHandler(query, nil)

		page := &model.SearchPage{
			Items: []model.Product{{ID: "a1", Name: "Tenergy 05"}},
			Next:  "a1",
		}
		query.On("Search", mock.Anything, "rubber", "tenergy", "c1").Return(page, nil)

		req := httptest.NewRequest(http.MethodGet, "/rubbers?name=tenergy&cursor=c1", nil)
		w := httptest.NewRecorder()
		h.Collection(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var got model.SearchPage
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, "a1", got.Next)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "Tenergy 05", got.Items[0].Name)
	})

	t.Run("No matches maps to 404", func(t *testing.T) {
		query := new(MockQueryService)
		h := newTestHandler(query, nil)

		query.On("Search", mock.Anything, "blade", "nothing", "").
			Return(nil, model.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/blades?name=nothing", nil)
		w := httptest.NewRecorder()
		h.Collection(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Unknown collection maps to 400", func(t *testing.T) {
		query := new(MockQueryService)
		h := newTestHandler(query, nil)

		req := httptest.NewRequest(http.MethodGet, "/paddles", nil)
		w := httptest.NewRecorder()
		h.Collection(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		query.AssertNotCalled(t, "ListNames", mock.Anything, mock.Anything)
	})

	t.Run("Singular segment is not a collection", func(t *testing.T) {
		query := new(MockQueryService)
		h := newTestHandler(query, nil)

		req := httptest.NewRequest(http.MethodGet, "/rubber", nil)
		w := httptest.NewRecorder()
		h.Collection(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Store failure maps to 503", func(t *testing.T) {
		query := new(MockQueryService)
		h := newTestHandler(query, nil)

		query.On("ListNames", mock.Anything, "rubber").
			Return(nil, model.ErrStorageUnavailable)

		req := httptest.NewRequest(http.MethodGet, "/rubbers", nil)
		w := httptest.NewRecorder()
		h.Collection(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestCollection_Delete(t *testing.T) {
	t.Run("Deletes the unique match", func(t *testing.T) {
		query := new(MockQueryService)
		h := newTestHandler(query, nil)

		query.On("Delete", mock.Anything, "rubber", "Tenergy 05", "siteA").Return(nil)

		body := strings.NewReader(`{"name": "Tenergy 05", "site": "siteA"}`)
		req := httptest.NewRequest(http.MethodDelete, "/rubbers", body)
		w := httptest.NewRecorder()
		h.Collection(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		query.AssertExpectations(t)
	})

	t.Run("Ambiguous match maps to 400", func(t *testing.T) {
		query := new(MockQueryService)
		h := newTestHandler(query, nil)

		query.On("Delete", mock.Anything, "rubber", "Tenergy", "site").
			Return(model.ErrAmbiguousMatch)

		body := strings.NewReader(`{"name": "Tenergy", "site": "site"}`)
		req := httptest.NewRequest(http.MethodDelete, "/rubbers", body)
		w := httptest.NewRecorder()
		h.Collection(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Malformed body maps to 400", func(t *testing.T) {
		query := new(MockQueryService)
		h := newTestHandler(query, nil)

		req := httptest.NewRequest(http.MethodDelete, "/rubbers", strings.NewReader("{not json"))
		w := httptest.NewRecorder()
		h.Collection(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		query.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCollection_Refresh(t *testing.T) {
	t.Run("Runs a crawl and reports stats", func(t *testing.T) {
		query := new(MockQueryService)
		runner := &stubRunner{stats: crawler.Stats{RunID: "r1", Sources: 2, Observed: 40, Ingested: 38, Failed: 2}}
		h := newTestHandler(query, runner)

		req := httptest.NewRequest(http.MethodPut, "/blades", nil)
		w := httptest.NewRecorder()
		h.Collection(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, model.CategoryBlade, runner.category)

		var got crawler.Stats
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, 38, got.Ingested)
	})

	t.Run("Crawl failure maps to 500", func(t *testing.T) {
		query := new(MockQueryService)
		runner := &stubRunner{err: errors.New("no sources")}
		h := newTestHandler(query, runner)

		req := httptest.NewRequest(http.MethodPut, "/rubbers", nil)
		w := httptest.NewRecorder()
		h.Collection(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestItem(t *testing.T) {
	t.Run("Returns the product", func(t *testing.T) {
		query := new(MockQueryService)
		h := newTestHandler(query, nil)

		product := &model.Product{ID: "a1", Name: "Tenergy 05"}
		query.On("GetByID", mock.Anything, "rubber", "a1").Return(product, nil)

		req := httptest.NewRequest(http.MethodGet, "/rubbers/a1", nil)
		w := httptest.NewRecorder()
		h.Item(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var got model.Product
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, "Tenergy 05", got.Name)
	})

	t.Run("Unknown ID maps to 404", func(t *testing.T) {
		query := new(MockQueryService)
		h := newTestHandler(query, nil)

		query.On("GetByID", mock.Anything, "blade", "missing").
			Return(nil, model.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/blades/missing", nil)
		w := httptest.NewRecorder()
		h.Item(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Missing ID maps to 400", func(t *testing.T) {
		query := new(MockQueryService)
		h := newTestHandler(query, nil)

		req := httptest.NewRequest(http.MethodGet, "/rubbers/", nil)
		w := httptest.NewRecorder()
		h.Item(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		query.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Rejects non-GET methods", func(t *testing.T) {
		query := new(MockQueryService)
		h := newTestHandler(query, nil)

		req := httptest.NewRequest(http.MethodDelete, "/rubbers/a1", nil)
		w := httptest.NewRecorder()
		h.Item(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}
