// Package httpbind is the one concrete transport binding exercising the
// worker dispatch core over HTTP+JSON instead of a length-prefixed
// wire framing. Routing uses a chi + rs/cors handler setup.
package httpbind

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/antigravity/kraken-worker/internal/disruption"
	"github.com/antigravity/kraken-worker/internal/stopschedule"
	"github.com/antigravity/kraken-worker/internal/transit"
	"github.com/antigravity/kraken-worker/internal/wire"
	"github.com/antigravity/kraken-worker/internal/worker"
)

// Server wires the Worker into an HTTP router.
type Server struct {
	Worker     *worker.Worker
	DM         *transit.DataManager
	Disruption *disruption.Engine
}

// NewRouter builds the chi router: POST /v1/request for the typed
// wire.Request/Response dispatch, GET /status and GET /metadatas as
// thin aliases, CORS-enabled for any origin.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.AllowAll().Handler)

	r.Post("/v1/request", s.handleRequest)
	r.Get("/status", s.handleStatus)
	r.Get("/metadatas", s.handleStatus)
	r.Get("/v1/stop_schedules", s.handleStopSchedules)
	r.Post("/v1/trip_updates", s.handleTripUpdate)

	return r
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	var req wire.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, wire.Response{
			Error: &wire.Error{ID: wire.ErrInvalidProtobufRequest, Message: err.Error()},
		})
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	resp := s.Worker.Dispatch(req)
	writeJSON(w, statusForResponse(resp), resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := s.Worker.Dispatch(wire.Request{RequestedAPI: wire.APIStatus, RequestID: uuid.NewString()})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStopSchedules(w http.ResponseWriter, r *http.Request) {
	dataset := s.DM.Acquire()
	if dataset == nil {
		writeJSON(w, http.StatusServiceUnavailable, wire.Response{Error: &wire.Error{ID: wire.ErrInternalError, Message: "dataset not loaded"}})
		return
	}

	groups, err := s.Worker.NextDepartures(stopschedule.Request{
		Dataset:  dataset,
		RTLevel:  transit.RTLevelBase,
		From:     time.Now().UTC(),
		Duration: time.Hour,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, wire.Response{Error: &wire.Error{ID: wire.ErrInternalError, Message: err.Error()}})
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// handleTripUpdate ingests a single GTFS-RT-style trip update and
// materializes it through the disruption engine; it is the only path by
// which trip updates reach the engine.
func (s *Server) handleTripUpdate(w http.ResponseWriter, r *http.Request) {
	if s.Disruption == nil {
		writeJSON(w, http.StatusServiceUnavailable, wire.Response{Error: &wire.Error{ID: wire.ErrInternalError, Message: "disruption engine not wired"}})
		return
	}

	var tu disruption.TripUpdate
	if err := json.NewDecoder(r.Body).Decode(&tu); err != nil {
		writeJSON(w, http.StatusBadRequest, wire.Response{Error: &wire.Error{ID: wire.ErrInvalidProtobufRequest, Message: err.Error()}})
		return
	}

	if err := s.Disruption.ApplyTripUpdate(tu); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, wire.Response{Error: &wire.Error{ID: wire.ErrInternalError, Message: err.Error()}})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "applied", "id": tu.ID})
}

func statusForResponse(resp wire.Response) int {
	if resp.Error == nil {
		return http.StatusOK
	}
	switch resp.Error.ID {
	case wire.ErrNoOriginPoint, wire.ErrNoDestinationPoint, wire.ErrNoOriginNorDestination, wire.ErrNoSolution, wire.ErrDateOutOfBounds, wire.ErrBadFilter, wire.ErrUnableToParse:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
