package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options tunes the middleware wrapped around the router.
type Options struct {
	AllowedOrigins []string
	// RateLimit is the sustained requests per second allowed per client.
	// Zero disables limiting.
	RateLimit rate.Limit
	RateBurst int
}

type API struct {
	router *mux.Router
	db     *sql.DB
	log    *zap.Logger
	opts   Options
}

func NewAPI(db *sql.DB, log *zap.Logger, opts Options) *API {
	return &API{
		router: mux.NewRouter(),
		db:     db,
		log:    log,
		opts:   opts,
	}
}

func (a *API) Router() *mux.Router {
	return a.router
}

func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	if len(a.opts.AllowedOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(a.opts.AllowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", requestIDHeader}),
		)(h)
	}
	if a.opts.RateLimit > 0 {
		h = newRateLimiter(a.opts.RateLimit, a.opts.RateBurst).limit(h)
	}
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{a.log.Sugar()}))(h)
	h = withRequestID(h)
	return handlers.LoggingHandler(os.Stdout, h)
}

type errorResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

func (a *API) Response(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.log.Warn("encode response", zap.Error(err))
	}
}

func (a *API) Error(w http.ResponseWriter, status int, message string) {
	a.Response(w, status, errorResponse{Status: status, Error: message})
}

func (a *API) RegisterRoutes() {
	a.router.HandleFunc("/health", a.health).Methods(http.MethodGet)
	a.router.HandleFunc("/{role:candidate|interviewer}/", a.createPerson).Methods(http.MethodPost)
	a.router.HandleFunc("/{role:candidate|interviewer}/{id:[0-9]+}", a.getPerson).Methods(http.MethodGet)
	a.router.HandleFunc("/{role:candidate|interviewer}/{id:[0-9]+}", a.addSlots).Methods(http.MethodPut)
	a.router.HandleFunc("/interview", a.getCommonSlots).Methods(http.MethodGet)
}
