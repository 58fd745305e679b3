// Package api exposes the reservation engine and the catalog over HTTP/JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"wypozyczalnia/internal/booking"
	"wypozyczalnia/internal/database"
	"wypozyczalnia/internal/models"

	"github.com/rs/zerolog"
)

// Engine is the part of booking.Service the API drives.
type Engine interface {
	Admit(ctx context.Context, req booking.Request) (*models.Reservation, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Reservation, error)
	List(ctx context.Context, filter booking.ReservationFilter) ([]models.Reservation, error)
	Availability(ctx context.Context, itemID int64, from, to time.Time) (*booking.Availability, error)
}

// Catalog is read-only access to categories and items.
type Catalog interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*models.Category, error)
	ListItems(ctx context.Context, filter database.ItemFilter) ([]models.EquipmentItem, error)
	GetItem(ctx context.Context, id int64) (*models.EquipmentItem, error)
}

// Authorizer guards admin-only routes.
type Authorizer interface {
	RequireAdmin(ctx context.Context, userID int64) error
	CanModifyReservation(ctx context.Context, userID int64) error
}

// ReportWriter renders the reservation export.
type ReportWriter interface {
	WriteReservationReport(ctx context.Context, w io.Writer, from, to time.Time) error
}

// Config configures an HTTPServer.
type Config struct {
	Port           int
	APIKeys        []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// HTTPServer serves the JSON API.
type HTTPServer struct {
	engine  Engine
	catalog Catalog
	access  Authorizer
	reports ReportWriter
	keys    map[string]struct{}
	limiter *keyLimiter
	logger  zerolog.Logger
	server  *http.Server
}

// NewHTTPServer wires the routes. reports may be nil, in which case the export route answers 404.
func NewHTTPServer(cfg Config, engine Engine, catalog Catalog, access Authorizer, reports ReportWriter, logger *zerolog.Logger) *HTTPServer {
	keys := make(map[string]struct{}, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		if k != "" {
			keys[k] = struct{}{}
		}
	}

	s := &HTTPServer{
		engine:  engine,
		catalog: catalog,
		access:  access,
		reports: reports,
		keys:    keys,
		limiter: newKeyLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		logger:  logger.With().Str("component", "api").Logger(),
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	return s
}

// Handler returns the routed handler with the middleware chain applied.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/items", s.handleItems)
	mux.HandleFunc("GET /api/items/{id}", s.handleItem)
	mux.HandleFunc("GET /api/items/{id}/availability", s.handleItemAvailability)

	mux.HandleFunc("POST /api/reservations", s.handleCreateReservation)
	mux.HandleFunc("GET /api/reservations", s.handleListReservations)
	mux.HandleFunc("GET /api/reservations/{id}", s.handleGetReservation)
	mux.HandleFunc("PUT /api/reservations/{id}", s.handleUpdateReservation)
	mux.HandleFunc("DELETE /api/reservations/{id}", s.handleDeleteReservation)

	mux.HandleFunc("GET /api/reports/reservations.xlsx", s.handleReservationReport)

	return s.withRequestID(s.withLogging(s.withAPIKey(s.withRateLimit(mux))))
}

// Start listens until Shutdown is called.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("API server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}
