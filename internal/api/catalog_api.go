package api

import (
	"errors"
	"net/http"
	"strconv"

	"wypozyczalnia/internal/database"
	"wypozyczalnia/internal/metrics"
	"wypozyczalnia/internal/models"
)

// handleCategories lists equipment categories.
// GET /api/categories
func (s *HTTPServer) handleCategories(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("categories")

	cats, err := s.catalog.ListCategories(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// handleItems lists active items, optionally narrowed by season and category (id or name).
// GET /api/items?season=winter&category=Zimowy
func (s *HTTPServer) handleItems(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("items")

	var filter database.ItemFilter
	q := r.URL.Query()

	if v := q.Get("season"); v != "" {
		season, err := models.ParseSeason(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
		filter.Season = season
	}

	if v := q.Get("category"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.CategoryID = id
		} else {
			cat, err := s.catalog.GetCategoryByName(r.Context(), v)
			if errors.Is(err, database.ErrNotFound) {
				writeJSON(w, http.StatusOK, []models.EquipmentItem{})
				return
			}
			if err != nil {
				s.writeEngineError(w, err)
				return
			}
			filter.CategoryID = cat.ID
		}
	}

	items, err := s.catalog.ListItems(r.Context(), filter)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleItem returns one catalog item.
// GET /api/items/{id}
func (s *HTTPServer) handleItem(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("item")

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := s.catalog.GetItem(r.Context(), id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleItemAvailability reports free units for an interval. The answer is advisory.
// GET /api/items/{id}/availability?from=RFC3339&to=RFC3339
func (s *HTTPServer) handleItemAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("item_availability")

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	from, to, ok := parseWindow(w, r, true)
	if !ok {
		return
	}

	avail, err := s.engine.Availability(r.Context(), id, from, to)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, avail)
}
