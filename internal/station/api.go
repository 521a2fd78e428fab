package station

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/belly1v123/weatherStationESP32/internal/environment"
	"github.com/belly1v123/weatherStationESP32/pkg/health"
)

const maxBodyBytes = 1 << 20

// API serves the HTTP surface of the service
type API struct {
	service *Service
	health  *health.Checker
	logger  *slog.Logger
}

// NewAPI creates the HTTP API. checker may be nil.
func NewAPI(service *Service, checker *health.Checker, logger *slog.Logger) *API {
	return &API{service: service, health: checker, logger: logger}
}

// Router builds the route table wrapped in CORS handling
func (a *API) Router(corsOrigins []string) http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/data", a.handleData).Methods(http.MethodPost)
	api.HandleFunc("/recent", a.handleRecent).Methods(http.MethodGet)
	api.HandleFunc("/status", a.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/config", a.handleGetConfig).Methods(http.MethodGet)
	api.HandleFunc("/config", a.handleUpdateConfig).Methods(http.MethodPost)
	api.HandleFunc("/state", a.handleState).Methods(http.MethodGet)

	r.HandleFunc("/ws", a.handleWebSocket)
	r.Handle("/metrics", a.service.metrics.Handler()).Methods(http.MethodGet)

	if a.health != nil {
		r.HandleFunc("/health", a.health.HandlerFunc()).Methods(http.MethodGet)
		r.HandleFunc("/health/detailed", a.health.DetailedHandlerFunc()).Methods(http.MethodGet)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

func (a *API) handleData(w http.ResponseWriter, r *http.Request) {
	var raw environment.Raw
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		a.logger.Warn("Rejected malformed reading", "remote", r.RemoteAddr, "error", err)
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if raw == nil {
		raw = environment.Raw{}
	}

	a.service.Ingest(r.Context(), raw, SourceHTTP)
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleRecent(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.service.Recent())
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.service.Status())
}

func (a *API) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.service.Config())
}

func (a *API) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var update map[string]interface{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&update); err != nil {
		update = nil
	}
	a.writeJSON(w, http.StatusOK, a.service.UpdateConfig(update))
}

func (a *API) handleState(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.service.StateSnapshot())
}

func (a *API) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	a.service.hub.Serve(w, r, a.service.InitialEvents()...)
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("Failed to encode response", "error", err)
	}
}
