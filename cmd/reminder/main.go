package main

import (
	"database/sql"
	"log"
	"time"

	reminderapp "github.com/kotche/taskbot/internal/app/reminder"
	"github.com/kotche/taskbot/internal/config"
	tasks_repo "github.com/kotche/taskbot/internal/repository/tasks"
	"github.com/kotche/taskbot/internal/service/kafka"
	tasks_serv "github.com/kotche/taskbot/internal/service/tasks"

	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if cfg.TelegramConfig.TokenReminderBot == "" {
		log.Fatalln("TOKEN_REMINDER_BOT is not read")
	}

	bot, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.TelegramConfig.TokenReminderBot,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	})

	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		log.Fatalln(err)
	}

	tasksServ := tasks_serv.NewDefaultService(tasks_repo.NewDefaultRepository(db))

	kafkaServ, err := kafka.New(cfg.KafkaConfig.Brokers, cfg.KafkaConfig.Topic,
		cfg.KafkaConfig.GroupID, 1, 1)
	if err != nil {
		log.Fatalf("failed to initialize kafka: %v", err)
	}
	defer kafkaServ.Close()

	reminderImpl := reminderapp.New(
		reminderapp.NewTelegramSender(bot),
		tasksServ,
		kafkaServ,
		cfg.ReminderConfig.Hour,
	)
	reminderImpl.Start()
}
