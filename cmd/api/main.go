package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
	"golang.org/x/net/netutil"

	"present-os-backend/internal/actions"
	"present-os-backend/internal/ai"
	"present-os-backend/internal/analytics"
	"present-os-backend/internal/auth"
	"present-os-backend/internal/calendar"
	"present-os-backend/internal/config"
	"present-os-backend/internal/db"
	"present-os-backend/internal/goals"
	appLog "present-os-backend/internal/log"
	"present-os-backend/internal/metrics"
	"present-os-backend/internal/security"
	"present-os-backend/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		appLog.Error("load config", err)
		os.Exit(1)
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		appLog.Error("invalid config", err)
		os.Exit(1)
	}

	// a bad key must stop startup, not the first decrypt
	cipher, err := security.NewCipher(cfg.SecretKey)
	if err != nil {
		appLog.Error("init token cipher", err)
		os.Exit(1)
	}

	database, err := db.Connect(cfg.ConnString())
	if err != nil {
		appLog.Error("connect db", err, "host", cfg.DBHost, "db", cfg.DBName)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(context.Background(), database); err != nil {
		appLog.Error("migrate db", err)
		os.Exit(1)
	}
	appLog.Info("connected to postgres", "host", cfg.DBHost, "db", cfg.DBName)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pipelineMetrics := metrics.NewPipeline(reg)

	secret := []byte(cfg.JWTSecret)
	authMW := auth.New(secret)

	goalStore := goals.NewStore(database)
	tokenStore := tokens.NewStore(database)
	events := analytics.NewRecorder(database)

	cal := calendar.NewClient(calendar.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURI,
		CalendarID:   cfg.GoogleCalendarID,
	})

	router := ai.NewRouter(
		ai.NewSchedulingSkill(ai.New(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)),
	)

	pipeline := actions.NewPipeline(actions.Deps{
		Goals:    goalStore,
		Tokens:   tokenStore,
		Cipher:   cipher,
		Router:   router,
		Calendar: cal,
		Metrics:  pipelineMetrics,
	})

	google := auth.Google{
		Secret:      secret,
		Provider:    cal,
		Cipher:      cipher,
		Credentials: tokenStore,
		FrontendURL: cfg.FrontendURL,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", metrics.Handler(reg))

	// ----- AUTH -----
	mux.HandleFunc("/auth/register", methods(map[string]http.HandlerFunc{
		http.MethodPost: auth.RegisterHandler(database, secret),
	}))
	mux.HandleFunc("/auth/login", methods(map[string]http.HandlerFunc{
		http.MethodPost: auth.LoginHandler(database, secret),
	}))
	mux.HandleFunc("/auth/logout", methods(map[string]http.HandlerFunc{
		http.MethodPost: authMW.Wrap(auth.LogoutHandler()),
	}))
	mux.HandleFunc("/auth/me", methods(map[string]http.HandlerFunc{
		http.MethodGet: authMW.Wrap(auth.MeHandler(database)),
	}))
	mux.HandleFunc("/auth/account", methods(map[string]http.HandlerFunc{
		http.MethodDelete: authMW.Wrap(auth.DeleteAccountHandler(database)),
	}))
	mux.HandleFunc("/auth/google/login", methods(map[string]http.HandlerFunc{
		http.MethodGet: authMW.Wrap(google.LoginHandler()),
	}))
	// the browser arrives here from Google without our bearer token
	mux.HandleFunc("/auth/google/callback", methods(map[string]http.HandlerFunc{
		http.MethodGet: google.CallbackHandler(),
	}))

	// ----- GOALS -----
	mux.HandleFunc("/goals", methods(map[string]http.HandlerFunc{
		http.MethodGet:  authMW.Wrap(goals.ListGoalsHandler(goalStore)),
		http.MethodPost: authMW.Wrap(goals.CreateGoalHandler(goalStore, events)),
	}))
	mux.HandleFunc("/goals/", methods(map[string]http.HandlerFunc{
		http.MethodGet: authMW.Wrap(goals.GetGoalHandler(goalStore)),
	}))

	// ----- ACTIONS -----
	mux.HandleFunc("/actions", methods(map[string]http.HandlerFunc{
		http.MethodPost: authMW.Wrap(actions.Handler(pipeline, events)),
	}))

	mux.HandleFunc("/analytics/app-opened", methods(map[string]http.HandlerFunc{
		http.MethodPost: authMW.Wrap(analytics.AppOpenedHandler(events)),
	}))

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Idempotency-Key", "X-Request-Id", "X-Platform", "X-App-Version", "X-Session-Id"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Handler:           c.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		appLog.Error("listen", err, "addr", cfg.ListenAddr)
		os.Exit(1)
	}
	ln = netutil.LimitListener(ln, cfg.MaxConnections)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLog.Error("shutdown", err)
		}
	}()

	appLog.Info("api server is running", "addr", cfg.ListenAddr, "max_connections", cfg.MaxConnections)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLog.Error("serve", err)
		os.Exit(1)
	}
}

// methods dispatches on r.Method; OPTIONS is answered for preflight.
func methods(handlers map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.Method]; ok {
			h(w, r)
			return
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
