package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hmis/hmis/internal/config"
	"github.com/hmis/hmis/internal/domain/admission"
	"github.com/hmis/hmis/internal/domain/billing"
	"github.com/hmis/hmis/internal/domain/bloodbank"
	"github.com/hmis/hmis/internal/domain/clinical"
	"github.com/hmis/hmis/internal/domain/patient"
	"github.com/hmis/hmis/internal/domain/pharmacy"
	"github.com/hmis/hmis/internal/domain/referral"
	"github.com/hmis/hmis/internal/domain/ward"
	"github.com/hmis/hmis/internal/platform/auth"
	"github.com/hmis/hmis/internal/platform/db"
	"github.com/hmis/hmis/internal/platform/kvstore"
	"github.com/hmis/hmis/internal/platform/middleware"
	"github.com/hmis/hmis/internal/platform/summarizer"
)

// Static operator roster for the login endpoint. Operator provisioning is
// facility configuration, not a runtime feature.
var defaultUsers = map[string]string{
	"admin":      "admin",
	"reception":  "registrar",
	"duty-nurse": "nurse",
	"cashier":    "billing",
	"dispensary": "pharmacist",
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "hmis-server",
		Short: "Hospital Management Information System API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HMIS API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default ward and bed layout if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			stores, err := openStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer stores.Close()

			wardSvc := ward.NewService(stores.Wards)
			n, err := seedWards(ctx, wardSvc)
			if err != nil {
				return err
			}
			if n == 0 {
				logger.Info().Msg("wards already present, nothing to seed")
			} else {
				logger.Info().Int("wards", n).Msg("seeded default ward layout")
			}
			return nil
		},
	}
}

// storage bundles the repositories for the three ledger collections plus the
// snapshot store the peripheral modules persist into. The snapshot store is
// always open; ward, patient and invoice repositories switch to Postgres when
// the driver says so.
type storage struct {
	Store    *kvstore.Store
	Wards    ward.Repository
	Patients patient.Repository
	Invoices billing.Repository

	closers []func()
}

func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	store, err := kvstore.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	s := &storage{Store: store}
	s.closers = append(s.closers, func() { _ = store.Close() })

	switch cfg.StorageDriver {
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		if err := db.EnsureSchema(ctx, pool); err != nil {
			s.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		s.Wards = ward.NewPGRepo(pool)
		s.Patients = patient.NewPGRepo(pool)
		s.Invoices = billing.NewPGRepo(pool)
	default:
		if s.Wards, err = ward.NewKVRepo(store); err != nil {
			s.Close()
			return nil, err
		}
		if s.Patients, err = patient.NewKVRepo(store); err != nil {
			s.Close()
			return nil, err
		}
		if s.Invoices, err = billing.NewKVRepo(store); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	stores, err := openStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}
	defer stores.Close()
	logger.Info().Str("driver", cfg.StorageDriver).Msg("storage ready")

	// Sessions need a signing secret. Development generates an ephemeral one
	// when none is configured; production refuses to start without it (see
	// config.Validate).
	secret := cfg.SessionSecret
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := crypto_rand.Read(buf); err != nil {
			logger.Fatal().Err(err).Msg("failed to generate session secret")
		}
		secret = hex.EncodeToString(buf)
		logger.Warn().Msg("SESSION_SECRET not set, using an ephemeral secret; sessions will not survive restarts")
	}
	sessions := auth.NewSessions(secret, cfg.FacilityCode, stores.Store)

	// Services
	wardSvc := ward.NewService(stores.Wards)
	patientSvc := patient.NewService(stores.Patients, cfg.UHIDPrefix, cfg.FacilityCode)
	billingSvc := billing.NewService(stores.Invoices)
	pharmacyRepo, err := pharmacy.NewKVRepo(stores.Store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load pharmacy stock")
	}
	pharmacySvc := pharmacy.NewService(pharmacyRepo, billingSvc)
	bloodSvc, err := bloodbank.NewService(stores.Store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load blood stock")
	}
	clinicalSvc, err := clinical.NewService(stores.Store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load clinical records")
	}
	referralSvc, err := referral.NewService(stores.Store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load referrals")
	}

	summaries := summarizer.New(cfg.SummarizerURL, cfg.SummarizerKey)
	if summaries.Enabled() {
		logger.Info().Str("url", cfg.SummarizerURL).Msg("discharge summarizer enabled")
	}
	admissionSvc := admission.NewService(patientSvc, wardSvc, billingSvc, summaries, admission.Rates{
		RoomRatePerDay: cfg.RoomRatePerDay,
		NursingCharge:  cfg.NursingCharge,
		Consumables:    cfg.Consumables,
	})

	// First start on an empty registry gets the default ward layout so the
	// facility is usable out of the box.
	if n, err := seedWards(ctx, wardSvc); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed wards")
	} else if n > 0 {
		logger.Info().Int("wards", n).Msg("seeded default ward layout")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":   "ok",
			"facility": cfg.FacilityName,
			"version":  "0.1.0",
		})
	})

	// Login and logout stay outside the session guard.
	authHandler := auth.NewHandler(sessions, defaultUsers)
	authHandler.RegisterRoutes(e)

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevMiddleware())
	} else {
		apiV1.Use(sessions.Middleware())
	}
	apiV1.Use(middleware.Audit(logger))

	ward.NewHandler(wardSvc).RegisterRoutes(apiV1)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)
	admission.NewHandler(admissionSvc).RegisterRoutes(apiV1)
	pharmacy.NewHandler(pharmacySvc).RegisterRoutes(apiV1)
	bloodbank.NewHandler(bloodSvc).RegisterRoutes(apiV1)
	clinical.NewHandler(clinicalSvc).RegisterRoutes(apiV1)
	referral.NewHandler(referralSvc).RegisterRoutes(apiV1)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	return nil
}

// seedWards installs the default bed layout when the registry is empty.
// Returns the number of wards created.
func seedWards(ctx context.Context, svc *ward.Service) (int, error) {
	existing, err := svc.ListWards(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	defaults := []*ward.Ward{
		{Name: "General Ward A", Department: "General Medicine", Type: ward.TypeGeneral, Beds: numberedBeds("G", 10)},
		{Name: "General Ward B", Department: "General Surgery", Type: ward.TypeGeneral, Beds: numberedBeds("GB", 10)},
		{Name: "Casualty", Department: "Emergency", Type: ward.TypeCasualty, Beds: numberedBeds("TR", 4)},
		{Name: "ICU", Department: "Critical Care", Type: ward.TypeICU, Beds: numberedBeds("ICU", 6)},
		{Name: "Private Rooms", Department: "General Medicine", Type: ward.TypePrivate, Beds: numberedBeds("P", 4)},
	}
	for _, w := range defaults {
		if err := svc.CreateWard(ctx, w); err != nil {
			return 0, fmt.Errorf("seed ward %s: %w", w.Name, err)
		}
	}
	return len(defaults), nil
}

func numberedBeds(prefix string, n int) []ward.Bed {
	beds := make([]ward.Bed, n)
	for i := range beds {
		beds[i] = ward.Bed{Number: fmt.Sprintf("%s-%d", prefix, i+1)}
	}
	return beds
}
