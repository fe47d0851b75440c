// Package api exposes the coordinator over HTTP for the serve command.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"intercom-cli/internal/client"
	"intercom-cli/internal/coordinator"
	"intercom-cli/internal/logging"
	"intercom-cli/internal/store"
	"intercom-cli/pkg/models"
)

// Coordinator is the subset of *coordinator.Coordinator the handlers use.
type Coordinator interface {
	State(coordinator.Collection) coordinator.State
	Cameras() (models.CameraCollection, bool)
	Doors() (models.DoorCollection, bool)
	Refresh(coordinator.Collection) error
	RenameDoor(id int, name string) (models.Door, error)
}

type errorBody struct {
	Error string           `json:"error"`
	API   *client.APIError `json:"api,omitempty"`
}

type renameRequest struct {
	Name *string `json:"name"`
}

type collectionBody struct {
	State string      `json:"state"`
	Data  interface{} `json:"data"`
}

// NewRouter builds the HTTP routes. gatherer may be nil to disable /metrics.
func NewRouter(coord Coordinator, gatherer prometheus.Gatherer) http.Handler {
	h := &handler{coord: coord}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Get("/cameras", h.getCameras)
	r.Get("/doors", h.getDoors)
	r.Post("/cameras/refresh", h.refresh(coordinator.Cameras))
	r.Post("/doors/refresh", h.refresh(coordinator.Doors))
	r.Put("/doors/{id}/name", h.renameDoor)

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

type handler struct {
	coord Coordinator
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		string(coordinator.Cameras): h.coord.State(coordinator.Cameras).String(),
		string(coordinator.Doors):   h.coord.State(coordinator.Doors).String(),
	})
}

func (h *handler) getCameras(w http.ResponseWriter, r *http.Request) {
	cams, ok := h.coord.Cameras()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, errors.New("camera snapshot not loaded"))
		return
	}
	writeJSON(w, http.StatusOK, collectionBody{State: h.coord.State(coordinator.Cameras).String(), Data: cams})
}

func (h *handler) getDoors(w http.ResponseWriter, r *http.Request) {
	doors, ok := h.coord.Doors()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, errors.New("door snapshot not loaded"))
		return
	}
	writeJSON(w, http.StatusOK, collectionBody{State: h.coord.State(coordinator.Doors).String(), Data: doors})
}

func (h *handler) refresh(col coordinator.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.coord.Refresh(col); err != nil {
			writeError(w, statusFor(err), err)
			return
		}

		switch col {
		case coordinator.Cameras:
			h.getCameras(w, r)
		default:
			h.getDoors(w, r)
		}
	}
}

func (h *handler) renameDoor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("door id must be an integer"))
		return
	}

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == nil {
		writeError(w, http.StatusBadRequest, errors.New(`body must be {"name": "..."}`))
		return
	}

	door, err := h.coord.RenameDoor(id, *req.Name)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, door)
}

func statusFor(err error) int {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrOffline):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrDoorNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicateID):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Error: err.Error()}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		body.API = apiErr
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("failed to write response")
	}
}
