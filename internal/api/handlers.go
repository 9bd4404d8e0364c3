package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gorilla/mux"

	"github.com/bronotion/backend/internal/auth"
	"github.com/bronotion/backend/internal/relay"
	"github.com/bronotion/backend/internal/store"
)

var apiRequestsTotal = metrics.NewCounter("bronotion_api_requests_total")

type API struct {
	hub    *relay.Hub
	store  *store.Store
	tokens *auth.Manager
}

func New(hub *relay.Hub, st *store.Store, tokens *auth.Manager) *API {
	return &API{
		hub:    hub,
		store:  st,
		tokens: tokens,
	}
}

// Routes builds the full route table, including the websocket endpoint.
// Auth endpoints and /health, /metrics, /ws are open; everything else
// under /api requires a bearer token.
func (a *API) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(countRequests)

	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		relay.ServeWs(a.hub, w, req)
	})
	r.HandleFunc("/health", a.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/metrics", a.MetricsHandler).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/signup", a.SignupHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", a.LoginHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/oauth", a.OAuthHandler).Methods(http.MethodPost)

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(a.requireAuth)
	protected.HandleFunc("/stats", a.StatsHandler).Methods(http.MethodGet)

	protected.HandleFunc("/notes", a.ListNotesHandler).Methods(http.MethodGet)
	protected.HandleFunc("/notes", a.CreateNoteHandler).Methods(http.MethodPost)
	protected.HandleFunc("/notes/{noteId}", a.GetNoteHandler).Methods(http.MethodGet)
	protected.HandleFunc("/notes/{noteId}", a.UpdateNoteHandler).Methods(http.MethodPut)
	protected.HandleFunc("/notes/{noteId}", a.DeleteNoteHandler).Methods(http.MethodDelete)
	protected.HandleFunc("/notes/{noteId}/restore", a.RestoreNoteHandler).Methods(http.MethodPost)

	protected.HandleFunc("/notes/{noteId}/shares", a.ListSharesHandler).Methods(http.MethodGet)
	protected.HandleFunc("/notes/{noteId}/shares", a.CreateShareHandler).Methods(http.MethodPost)
	protected.HandleFunc("/notes/{noteId}/shares/{userId}", a.DeleteShareHandler).Methods(http.MethodDelete)

	protected.HandleFunc("/tags", a.ListTagsHandler).Methods(http.MethodGet)
	protected.HandleFunc("/tags", a.CreateTagHandler).Methods(http.MethodPost)
	protected.HandleFunc("/tags/{tagId}", a.DeleteTagHandler).Methods(http.MethodDelete)

	return r
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiRequestsTotal.Inc()
		next.ServeHTTP(w, r)
	})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"active_rooms":       a.hub.GetRoomCount(),
		"active_connections": a.hub.GetConnectionCount(),
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	}

	if dbStats, err := a.store.Stats(); err == nil {
		stats["total_users"] = dbStats["user_count"]
		stats["total_notes"] = dbStats["note_count"]
	}

	jsonResponse(w, http.StatusOK, stats)
}

func (a *API) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	metrics.WritePrometheus(w, true)
}
