package commands

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/dailybuddy/core/internal/adapters/ledger"
	"github.com/dailybuddy/core/internal/adapters/repository"
	"github.com/dailybuddy/core/internal/application/services"
	"github.com/dailybuddy/core/internal/events"
	"github.com/dailybuddy/core/internal/infrastructure/config"
	"github.com/dailybuddy/core/internal/infrastructure/database"
	"github.com/dailybuddy/core/internal/infrastructure/logger"
	"github.com/dailybuddy/core/internal/infrastructure/server"
	"github.com/dailybuddy/core/internal/notify"
	"github.com/dailybuddy/core/internal/ports"
	"github.com/dailybuddy/core/internal/scheduler"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the DailyBuddy server",
		Long:  "Start the DailyBuddy API server and the reminder scheduler",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewPasswordCommand creates the password management command
func NewPasswordCommand() *cobra.Command {
	passwordCmd := &cobra.Command{
		Use:   "password",
		Short: "Operator password commands",
		Long:  "Set the password used to log in to the API",
	}

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Set the operator password",
		Run: func(cmd *cobra.Command, args []string) {
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				log.Fatal("Password is required")
			}
			setPassword(password)
		},
	}
	setCmd.Flags().String("password", "", "New operator password (required)")

	passwordCmd.AddCommand(setCmd)
	return passwordCmd
}

func runServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	db, err := database.New(cfg.Database)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	// Dedupe ledger: Redis when configured, in-memory otherwise. The
	// in-memory ledger needs the daily sweep; Redis expires entries itself.
	var (
		dedupeLedger ports.Ledger
		sweeper      scheduler.Sweeper
	)
	if cfg.Redis.Enabled() {
		redisLedger, err := ledger.NewRedis(cfg.Redis, cfg.Scheduler.LedgerTTL)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", "error", err)
		}
		defer redisLedger.Close()
		dedupeLedger = redisLedger
		appLogger.Info("Using Redis dedupe ledger", "addr", cfg.Redis.Addr)
	} else {
		memLedger := ledger.NewMemory(cfg.Scheduler.LedgerTTL)
		dedupeLedger = memLedger
		sweeper = memLedger
		appLogger.Info("Using in-memory dedupe ledger")
	}

	// Notification channels come up only when configured.
	var channels []notify.Channel
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != 0 {
		tg, err := notify.NewTelegramChannel(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram channel", "error", err)
		}
		channels = append(channels, tg)
	}
	if cfg.Notify.WebhookURL != "" {
		channels = append(channels, notify.NewWebhookChannel(cfg.Notify.WebhookURL))
	}

	bus := events.NewBus()
	gateway := notify.NewGateway(bus, appLogger, channels...)

	// Repositories
	reminderRepo := repository.NewReminderRepository(db.DB)
	medicationRepo := repository.NewMedicationRepository(db.DB)
	taskRepo := repository.NewTaskRepository(db.DB)
	habitRepo := repository.NewHabitRepository(db.DB)
	pomodoroRepo := repository.NewPomodoroRepository(db.DB)
	settingsRepo := repository.NewSettingsRepository(db.DB)

	// Services, shared between the HTTP server and the scheduler
	svcs := server.Services{
		Auth:      services.NewAuthService(settingsRepo, cfg.Auth, appLogger),
		Reminders: services.NewReminderService(reminderRepo, bus, appLogger),
		Agenda:    services.NewAgendaService(medicationRepo, taskRepo, habitRepo, bus, appLogger),
		Pomodoro:  services.NewPomodoroService(pomodoroRepo, bus, appLogger),
		Popups:    services.NewPopupService(bus, appLogger),
	}

	srv, err := server.New(cfg, db, appLogger, svcs, gateway, bus)
	if err != nil {
		appLogger.Fatal("Failed to initialize server", "error", err)
	}

	var reg prometheus.Registerer
	if r := srv.Registry(); r != nil {
		reg = r
	}

	sched := scheduler.New(cfg.Scheduler, scheduler.Deps{
		Reminders:   reminderRepo,
		Medications: medicationRepo,
		Tasks:       taskRepo,
		Habits:      habitRepo,
		Pomodoro:    pomodoroRepo,
		Completer:   svcs.Pomodoro,
		Ledger:      dedupeLedger,
		Gateway:     gateway,
		Bus:         bus,
		Logger:      appLogger,
		Sweeper:     sweeper,
	}, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	schedDone := make(chan error, 1)
	go func() {
		schedDone <- sched.Run(ctx)
	}()

	appLogger.Info("Starting DailyBuddy server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
	)

	srvDone := make(chan error, 1)
	go func() {
		srvDone <- srv.Start(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	}()

	select {
	case <-ctx.Done():
	case err := <-srvDone:
		appLogger.Error("Server stopped", "error", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown failed", "error", err)
	}
	<-schedDone
}

func runMigration(direction string) {
	m := newMigrator()

	var err error
	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}

	if err != nil && err != migrate.ErrNoChange {
		log.Fatalf("Migration failed: %v", err)
	}

	if err == migrate.ErrNoChange {
		fmt.Println("No migrations to run")
	} else {
		fmt.Printf("Migration %s completed successfully\n", direction)
	}
}

func showMigrationVersion() {
	m := newMigrator()

	version, dirty, err := m.Version()
	if err != nil {
		log.Fatalf("Failed to get migration version: %v", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
}

func newMigrator() *migrate.Migrate {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var m *migrate.Migrate

	switch cfg.Database.Driver {
	case "postgres":
		d, err := migratepg.WithInstance(db.DB.DB, &migratepg.Config{})
		if err != nil {
			log.Fatalf("Failed to create migration driver: %v", err)
		}
		m, err = migrate.NewWithDatabaseInstance("file://migrations", "postgres", d)
		if err != nil {
			log.Fatalf("Failed to create migration instance: %v", err)
		}
	default:
		d, err := migratesqlite.WithInstance(db.DB.DB, &migratesqlite.Config{})
		if err != nil {
			log.Fatalf("Failed to create migration driver: %v", err)
		}
		m, err = migrate.NewWithDatabaseInstance("file://migrations", "sqlite3", d)
		if err != nil {
			log.Fatalf("Failed to create migration instance: %v", err)
		}
	}

	return m
}

func setPassword(password string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	authService := services.NewAuthService(repository.NewSettingsRepository(db.DB), cfg.Auth, appLogger)
	if err := authService.SetPassword(context.Background(), password); err != nil {
		log.Fatalf("Failed to set password: %v", err)
	}

	fmt.Println("Operator password updated")
}
