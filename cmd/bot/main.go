package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kotche/taskbot/infrastructure/metrics"
	"github.com/kotche/taskbot/infrastructure/tracing"
	botapp "github.com/kotche/taskbot/internal/app/bot"
	"github.com/kotche/taskbot/internal/config"
	tasks_repo "github.com/kotche/taskbot/internal/repository/tasks"
	tasks_serv "github.com/kotche/taskbot/internal/service/tasks"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if cfg.TelegramConfig.TokenTaskBot == "" {
		log.Fatalln("TOKEN_TASK_BOT is not read")
	}

	metrics.Init()
	metrics.StartMetricsServer(cfg.MetricsConfig.Addr)

	bot, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.TelegramConfig.TokenTaskBot,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	})

	if err != nil {
		log.Fatal(err)
	}

	connStr := cfg.ConnString()
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalln(err)
	}

	if err = runMigrations(connStr); err != nil {
		log.Fatalln("migration error:", err)
	}

	_, cleanup, err := tracing.InitTracing(cfg.TracingConfig.Endpoint)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	tasksServ := tasks_serv.NewDefaultService(tasks_repo.NewDefaultRepository(db))
	engine := botapp.NewEngine(tasksServ)
	botapp.New(bot, engine).Start()
}

func runMigrations(dbURL string) error {
	m, err := migrate.New(
		"file://migrations",
		dbURL,
	)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}

	if err = m.Up(); !errors.Is(err, migrate.ErrNoChange) && err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
