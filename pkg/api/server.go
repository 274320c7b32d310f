package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hilltop-games/thegame/pkg/api/handlers"
	"github.com/hilltop-games/thegame/pkg/api/middleware"
	authproviders "github.com/hilltop-games/thegame/pkg/auth/providers"
	"github.com/hilltop-games/thegame/pkg/log"
	"github.com/hilltop-games/thegame/pkg/sync"
	"github.com/hilltop-games/thegame/pkg/ws"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port         int
	TLS          *TLSConfig
	AuthProvider authproviders.AuthProvider
	Synchronizer *sync.Synchronizer
}

// NewAPIServer creates the http.Server carrying every client-facing match
// operation plus the websocket subscription endpoint.
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	authMiddleware := middleware.NewAuthMiddleware(opts.AuthProvider)

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(authMiddleware)

	router.HandleFunc("/matches", handlers.HandleCreateMatch(opts.Synchronizer)).Methods(http.MethodPost)
	router.HandleFunc("/matches/{gameID}", handlers.HandleGetMatch(opts.Synchronizer)).Methods(http.MethodGet)
	router.HandleFunc("/matches/{gameID}/join", handlers.HandleJoinMatch(opts.Synchronizer)).Methods(http.MethodPost)
	router.HandleFunc("/matches/{gameID}/name", handlers.HandleRenamePlayer(opts.Synchronizer)).Methods(http.MethodPost)
	router.HandleFunc("/matches/{gameID}/start", handlers.HandleStartMatch(opts.Synchronizer)).Methods(http.MethodPost)
	router.HandleFunc("/matches/{gameID}/play", handlers.HandlePlayCard(opts.Synchronizer)).Methods(http.MethodPost)
	router.HandleFunc("/matches/{gameID}/end-turn", handlers.HandleEndTurn(opts.Synchronizer)).Methods(http.MethodPost)
	router.HandleFunc("/matches/{gameID}/leave", handlers.HandleLeaveMatch(opts.Synchronizer)).Methods(http.MethodPost)
	router.HandleFunc("/matches/{gameID}/return-to-lobby", handlers.HandleReturnToLobby(opts.Synchronizer)).Methods(http.MethodPost)
	router.HandleFunc("/matches/{gameID}/reset", handlers.HandleResetMatch(opts.Synchronizer)).Methods(http.MethodPost)
	router.HandleFunc("/matches/{gameID}/subscribe", ws.HandleSubscribe(opts.Synchronizer)).Methods(http.MethodGet)

	return &APIServer{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", opts.Port),
			Handler: router,
		},
		tls: opts.TLS,
	}
}

func (s *APIServer) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.server.Shutdown(context.Background())
	}()

	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
