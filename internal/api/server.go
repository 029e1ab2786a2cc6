package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ventolog/ventolog/internal/ledger"
	"github.com/ventolog/ventolog/internal/schema"
)

// Version reported by GET /health.
const Version = "0.1.0"

// Config carries the HTTP-facing knobs. The CLI fills it from the
// loaded configuration.
type Config struct {
	AllowedOrigins []string
	RateLimits     bool
	Production     bool
}

// Server routes requests to the ledger. Construct with New and mount
// Handler on an http.Server.
type Server struct {
	ledger *ledger.Ledger
	schema *schema.Validator
	log    *logrus.Logger
	cfg    Config
	router *mux.Router

	limitCodegen *limiter
	limitLogin   *limiter
	limitToken   *limiter
	limitLogs    *limiter
	limitEvents  *limiter
	limitGetCode *limiter
}

func New(l *ledger.Ledger, v *schema.Validator, log *logrus.Logger, cfg Config) *Server {
	s := &Server{
		ledger: l,
		schema: v,
		log:    log,
		cfg:    cfg,

		limitCodegen: newLimiter(5, time.Hour),
		limitLogin:   newLimiter(10, time.Minute),
		limitToken:   newLimiter(10, time.Minute),
		limitLogs:    newLimiter(100, time.Minute),
		limitEvents:  newLimiter(100, time.Minute),
		limitGetCode: newLimiter(10, time.Minute),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := mux.NewRouter().StrictSlash(true)

	r.HandleFunc("/generate-code", s.limit(s.limitCodegen, s.handleGenerateCode)).Methods(http.MethodPost)
	r.HandleFunc("/login", s.limit(s.limitLogin, s.handleLogin)).Methods(http.MethodPost)
	r.HandleFunc("/generate-token", s.limit(s.limitToken, s.handleGenerateToken)).Methods(http.MethodPost)

	r.HandleFunc("/logs", s.limit(s.limitLogs, s.handleSaveLog)).Methods(http.MethodPost)
	r.HandleFunc("/logs", s.requireToken(s.limit(s.limitLogs, s.handleGetLogs))).Methods(http.MethodGet)

	r.HandleFunc("/events", s.requireToken(s.limit(s.limitEvents, s.handleSaveEvent))).Methods(http.MethodPost)
	r.HandleFunc("/events", s.requireToken(s.limit(s.limitEvents, s.handleGetEvents))).Methods(http.MethodGet)

	r.HandleFunc("/code", s.requireToken(s.limit(s.limitGetCode, s.handleGetCode))).Methods(http.MethodGet)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/test-protected", s.requireToken(s.handleTestProtected)).Methods(http.MethodGet)

	s.router = r
}

// Handler is the full middleware chain. CORS sits outside the router
// so preflight requests are answered before route matching can 405
// them.
func (s *Server) Handler() http.Handler {
	return requestID(s.recoverer(s.accessLog(s.cors(s.router))))
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Errorf("reqid=%s %s %s: %v", getRequestID(r), r.Method, r.URL.Path, err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
