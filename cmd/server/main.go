package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"ward-assistant/internal/agent"
	"ward-assistant/internal/command"
	"ward-assistant/internal/config"
	"ward-assistant/internal/emr"
	"ward-assistant/internal/gateway"
	"ward-assistant/internal/kv"
	"ward-assistant/internal/logging"
	"ward-assistant/internal/operator"
	"ward-assistant/internal/patient"
	"ward-assistant/internal/platform/telegram"
	"ward-assistant/internal/report"
	"ward-assistant/internal/session"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("load config: " + err.Error())
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Console)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// 1. Infrastructure
	db := openDatabase(cfg.Database.URL, log)
	if db != nil {
		runMigrations(cfg.Database.URL, log)
	}

	// Profile persistence degrades to in-memory when the database is
	// unavailable; the session layer works either way.
	var store kv.Store
	if db != nil {
		store = kv.NewPostgres(db)
	} else {
		log.Warn().Msg("no database, operator profiles will not survive restarts")
		store = kv.NewMemory()
	}

	// 2. Clients
	aiClient := agent.NewOpenAIClient(cfg.Model.APIKey, cfg.Model.Name)
	tgClient := telegram.NewClient(cfg.Telegram.BotToken)

	// 3. Services
	memory := operator.NewStore(operator.NewKVRepository(store), log)
	gw := gateway.NewWithLimits(aiClient, gateway.NewResponseCache(store), log,
		cfg.Model.MaxCalls, cfg.Model.CallWindow)

	var roster patient.Roster
	var orders command.OrderAPI
	var notes command.NoteAPI
	if db != nil {
		emrRoster := emr.NewPostgresRoster(db)
		reportSvc := report.NewService(tgClient, emrRoster, cfg.Telegram.DoctorChatID)
		roster = emrRoster
		orders = emr.NewOrders(db)
		notes = emr.NewNotes(db, reportSvc, log)
	} else {
		log.Warn().Msg("no database, EMR surface disabled")
		roster = emptyRoster{}
		orders = unavailableOrders{}
		notes = unavailableNotes{}
	}

	mgr := session.NewManager(session.Deps{
		Memory:  memory,
		Gateway: gw,
		Roster:  roster,
		Orders:  orders,
		Notes:   notes,
		Log:     log,
	})
	handler := session.NewHandler(mgr)

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		session.RegisterRoutes(r, handler)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	log.Info().Str("port", cfg.Server.Port).Msg("server starting")
	if err := http.ListenAndServe(":"+cfg.Server.Port, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// openDatabase connects with retries; nil means the server runs in
// degraded, database-free mode.
func openDatabase(url string, log zerolog.Logger) *sql.DB {
	if url == "" {
		return nil
	}
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", url)
		if err == nil {
			err = db.Ping()
		}
		if err == nil {
			return db
		}
		log.Info().Int("attempt", i+1).Msg("waiting for database")
		time.Sleep(2 * time.Second)
	}
	log.Error().Err(err).Msg("could not connect to database")
	return nil
}

func runMigrations(url string, log zerolog.Logger) {
	m, err := migrate.New("file://migrations", url)
	if err != nil {
		log.Error().Err(err).Msg("migration init failed")
		return
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Error().Err(err).Msg("migration up failed")
		return
	}
	log.Info().Msg("migrations applied")
}

// Degraded stand-ins for database-free mode.

type emptyRoster struct{}

func (emptyRoster) Snapshot(ctx context.Context) ([]patient.Patient, error) { return nil, nil }

type unavailableOrders struct{}

func (unavailableOrders) AddOrder(ctx context.Context, patientID string, draft patient.Order) (patient.Order, error) {
	return patient.Order{}, errors.New("order placement requires a database")
}

type unavailableNotes struct{}

func (unavailableNotes) AddNote(ctx context.Context, patientID, text string, isEscalation bool) error {
	return errors.New("notes require a database")
}
