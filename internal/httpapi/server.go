package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/zachsimson/Lockedin-sub000/internal/msgcat"
	"github.com/zachsimson/Lockedin-sub000/internal/pvpchan"
	"github.com/zachsimson/Lockedin-sub000/internal/pvpchess"
	svc "github.com/zachsimson/Lockedin-sub000/internal/service/chess"
)

// Deps are the services behind the API. Any of them may be nil, in which
// case its routes are not registered.
type Deps struct {
	Games    *pvpchess.Manager
	Lobbies  *pvpchan.Manager
	Practice *svc.Service
	Catalog  *msgcat.Catalog
	Logger   *zap.Logger
}

type Server struct {
	router   *mux.Router
	handler  http.Handler
	games    *pvpchess.Manager
	lobbies  *pvpchan.Manager
	practice *svc.Service
	catalog  *msgcat.Catalog
	logger   *zap.Logger
	now      func() time.Time
}

func New(d Deps) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		games:    d.Games,
		lobbies:  d.Lobbies,
		practice: d.Practice,
		catalog:  d.Catalog,
		logger:   d.Logger,
		now:      time.Now,
	}
	if s.catalog == nil {
		s.catalog = msgcat.Default()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.routes()
	s.handler = s.wrap()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	if s.games != nil {
		api.HandleFunc("/games", s.createGame).Methods(http.MethodPost)
		api.HandleFunc("/games/{id}", s.getGame).Methods(http.MethodGet)
		api.HandleFunc("/games/{id}/legal", s.gameLegalMoves).Methods(http.MethodGet)
		api.HandleFunc("/games/{id}/moves", s.submitMove).Methods(http.MethodPost)
		api.HandleFunc("/games/{id}/resign", s.resignGame).Methods(http.MethodPost)
		api.HandleFunc("/games/{id}/ws", s.streamGame).Methods(http.MethodGet)
	}
	if s.lobbies != nil {
		api.HandleFunc("/lobbies", s.makeLobby).Methods(http.MethodPost)
		api.HandleFunc("/lobbies", s.listLobbies).Methods(http.MethodGet)
		api.HandleFunc("/lobbies/{code}", s.getLobby).Methods(http.MethodGet)
		api.HandleFunc("/lobbies/{code}", s.cancelLobby).Methods(http.MethodDelete)
		api.HandleFunc("/lobbies/{code}/join", s.joinLobby).Methods(http.MethodPost)
	}
	if s.practice != nil {
		api.HandleFunc("/practice", s.startPractice).Methods(http.MethodPost)
		p := api.PathPrefix("/practice/{player}").Subrouter()
		p.HandleFunc("", s.practiceStatus).Methods(http.MethodGet)
		p.HandleFunc("/moves", s.practiceMove).Methods(http.MethodPost)
		p.HandleFunc("/bot", s.practiceBotMove).Methods(http.MethodPost)
		p.HandleFunc("/undo", s.practiceUndo).Methods(http.MethodPost)
		p.HandleFunc("/resign", s.practiceResign).Methods(http.MethodPost)
		p.HandleFunc("/legal", s.practiceLegalMoves).Methods(http.MethodGet)
		p.HandleFunc("/history", s.practiceHistory).Methods(http.MethodGet)
		p.HandleFunc("/games/{gameID:[0-9]+}", s.practiceGame).Methods(http.MethodGet)
		p.HandleFunc("/profile", s.practiceProfile).Methods(http.MethodGet)
		p.HandleFunc("/profile", s.practiceUpdateProfile).Methods(http.MethodPut)
	}
}

// Handler returns the router wrapped with panic recovery and an access log
// written through the server's logger.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) wrap() http.Handler {
	stdLog := zap.NewStdLog(s.logger.Named("http"))
	var h http.Handler = s.router
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(stdLog), handlers.PrintRecoveryStack(false))(h)
	h = handlers.LoggingHandler(stdLog.Writer(), h)
	return h
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
