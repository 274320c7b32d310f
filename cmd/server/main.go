package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hilltop-games/thegame/pkg/api"
	authproviders "github.com/hilltop-games/thegame/pkg/auth/providers"
	"github.com/hilltop-games/thegame/pkg/log"
	"github.com/hilltop-games/thegame/pkg/store"
	"github.com/hilltop-games/thegame/pkg/sync"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	sqlitePath := flag.String("sqlite-path", "", "Path to a SQLite database (used when DATABASE_URL is unset)")
	migrationsPath := flag.String("migrations-path", "migrations", "Path to the migrations directory")
	natsURL := flag.String("nats-url", "", "NATS URL for cross-instance match notifications")
	firebaseProjectID := flag.String("firebase-project-id", "", "Firebase project ID for token verification")
	firebaseAPIKey := flag.String("firebase-api-key", "", "Firebase API key for token verification")
	insecureAuth := flag.Bool("insecure-auth", false, "Trust bearer tokens as identities (development only)")
	certFile := flag.String("cert-file", "", "Path to a TLS certificate file")
	keyFile := flag.String("key-file", "", "Path to a TLS key file")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	matchStore := newStore(ctx, *sqlitePath, *migrationsPath)
	defer matchStore.Close(ctx)

	var notifier sync.Notifier
	if *natsURL != "" {
		natsNotifier, err := sync.NewNATSNotifier(*natsURL, "")
		if err != nil {
			panic(fmt.Sprintf("Failed to connect to NATS: %v", err))
		}
		defer natsNotifier.Close()
		notifier = natsNotifier
	}

	synchronizer := sync.NewSynchronizer(sync.NewSynchronizerOptions{
		Store:    matchStore,
		Notifier: notifier,
	})
	if err := synchronizer.Start(ctx); err != nil {
		panic(fmt.Sprintf("Failed to start synchronizer: %v", err))
	}

	var authProvider authproviders.AuthProvider
	switch {
	case *insecureAuth:
		log.Warn("Using insecure auth provider")
		authProvider = authproviders.NewInsecureAuthProvider()
	case *firebaseProjectID != "":
		authProvider, err = authproviders.NewFirebaseAuthProvider(ctx, *firebaseProjectID, *firebaseAPIKey)
		if err != nil {
			panic(fmt.Sprintf("Failed to create Firebase auth provider: %v", err))
		}
	default:
		panic("Either -firebase-project-id or -insecure-auth must be set")
	}

	var tlsConfig *api.TLSConfig
	if *certFile != "" && *keyFile != "" {
		tlsConfig = &api.TLSConfig{
			CertFile: *certFile,
			KeyFile:  *keyFile,
		}
	}

	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:         *port,
		TLS:          tlsConfig,
		AuthProvider: authProvider,
		Synchronizer: synchronizer,
	})

	log.Info("Starting match server")
	apiServer.Start(ctx)
}

// newStore picks the match store backend: postgres when DATABASE_URL is
// set, sqlite when -sqlite-path is given, otherwise in-memory.
func newStore(ctx context.Context, sqlitePath string, migrationsPath string) store.Store {
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		postgresStore, err := store.NewPostgresStore(ctx, connStr)
		if err != nil {
			panic(fmt.Sprintf("Failed to connect to postgres: %v", err))
		}
		log.Info("Using postgres match store")
		return postgresStore
	}
	if sqlitePath != "" {
		sqliteStore, err := store.NewSQLiteStore(ctx, sqlitePath, migrationsPath)
		if err != nil {
			panic(fmt.Sprintf("Failed to open sqlite store: %v", err))
		}
		log.Info("Using sqlite match store at %s", sqlitePath)
		return sqliteStore
	}
	log.Warn("Using in-memory match store; matches will not survive a restart")
	return store.NewMemoryStore()
}
