package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eclewis/wxbrief/internal/airports"
	"github.com/eclewis/wxbrief/internal/briefing"
	"github.com/eclewis/wxbrief/internal/config"
	"github.com/eclewis/wxbrief/internal/render"
	"github.com/eclewis/wxbrief/internal/websocket"
	"github.com/eclewis/wxbrief/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	briefingService *briefing.Service
	config          *config.Config
	logger          *logger.Logger
	wsServer        *websocket.Server
	startedAt       time.Time
}

// NewHandler creates a new API handler
func NewHandler(briefingService *briefing.Service, config *config.Config, logger *logger.Logger, wsServer *websocket.Server) *Handler {
	return &Handler{
		briefingService: briefingService,
		config:          config,
		logger:          logger.Named("api-handler"),
		wsServer:        wsServer,
		startedAt:       time.Now().UTC(),
	}
}

// GetBriefing builds a briefing for the requested route and returns it
// as JSON.
func (h *Handler) GetBriefing(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, ok := h.parseBriefingRequest(w, r)
	if !ok {
		return
	}

	result, err := h.briefingService.Build(r.Context(), req)
	if err != nil {
		h.writeBriefingError(w, req, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)

	h.logger.Debug("Briefing request completed",
		logger.String("departure", req.Departure),
		logger.String("arrival", req.Arrival),
		logger.String("alternate", req.Alternate),
		logger.Duration("duration", time.Since(start)))
}

// GetBriefingHTML builds a briefing and returns it as an HTML fragment
// ready to embed in a page.
func (h *Handler) GetBriefingHTML(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseBriefingRequest(w, r)
	if !ok {
		return
	}

	result, err := h.briefingService.Build(r.Context(), req)
	if err != nil {
		h.writeBriefingError(w, req, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(render.BriefingHTML(result)))
}

// GetAirport resolves a single airport code to its ICAO/IATA pair
func (h *Handler) GetAirport(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		http.Error(w, "Missing airport code", http.StatusBadRequest)
		return
	}

	icao, err := airports.ToICAO(code)
	if err != nil {
		http.Error(w, "Invalid airport code", http.StatusBadRequest)
		return
	}
	iata, err := airports.ToIATA(code)
	if err != nil {
		http.Error(w, "Invalid airport code", http.StatusBadRequest)
		return
	}

	response := struct {
		Input  string `json:"input"`
		ICAO   string `json:"icao"`
		IATA   string `json:"iata"`
		Region string `json:"region"`
	}{
		Input:  code,
		ICAO:   icao,
		IATA:   iata,
		Region: string(airports.RegionOf(icao)),
	}

	WriteJSON(w, http.StatusOK, response)
}

// GetHealth returns the health status of the service
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"ws_clients":     h.wsServer.ClientCount(),
	}

	WriteJSON(w, http.StatusOK, response)
}

// parseBriefingRequest reads the route from query parameters, writing a
// 400 response when the required codes are missing.
func (h *Handler) parseBriefingRequest(w http.ResponseWriter, r *http.Request) (briefing.Request, bool) {
	q := r.URL.Query()
	req := briefing.Request{
		Departure: q.Get("departure"),
		Arrival:   q.Get("arrival"),
		Alternate: q.Get("alternate"),
	}

	if req.Departure == "" || req.Arrival == "" {
		http.Error(w, "departure and arrival are required", http.StatusBadRequest)
		return briefing.Request{}, false
	}
	return req, true
}

func (h *Handler) writeBriefingError(w http.ResponseWriter, req briefing.Request, err error) {
	if errors.Is(err, airports.ErrInvalidCode) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Error("Failed to build briefing",
		logger.String("departure", req.Departure),
		logger.String("arrival", req.Arrival),
		logger.Error(err))
	http.Error(w, "Failed to build briefing", http.StatusInternalServerError)
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
