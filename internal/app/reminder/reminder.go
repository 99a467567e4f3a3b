package reminder

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/kotche/taskbot/infrastructure/metrics"
	"github.com/kotche/taskbot/internal/model"
	"github.com/kotche/taskbot/internal/service/kafka"
	"gopkg.in/telebot.v3"
)

// reminderWindow is how close a deadline has to be for a task to qualify.
const reminderWindow = 3 * 24 * time.Hour

// Sender delivers a text message to a user.
type Sender interface {
	Send(userID model.UserID, text string) error
}

// TaskSource lists the tasks that have reminders enabled.
type TaskSource interface {
	ReminderTasks(ctx context.Context) ([]model.Task, error)
}

type TelegramSender struct {
	bot *telebot.Bot
}

func NewTelegramSender(bot *telebot.Bot) *TelegramSender {
	return &TelegramSender{bot: bot}
}

func (t *TelegramSender) Send(userID model.UserID, text string) error {
	_, err := t.bot.Send(&telebot.User{ID: int64(userID)}, text)
	return err
}

// Reminder scans reminder-enabled tasks once per day at a fixed UTC hour and
// publishes one event per due task; the delivery loop consumes the events and
// messages the owners. A task inside the window is reported on every scan with
// no de-duplication across days, so an owner can hear about the same task up
// to three times before its deadline. That is the intended behavior.
type Reminder struct {
	sender Sender
	tasks  TaskSource
	broker kafka.MessageBroker
	hour   int
	now    func() time.Time
}

func New(sender Sender, tasks TaskSource, broker kafka.MessageBroker, hour int) *Reminder {
	return &Reminder{
		sender: sender,
		tasks:  tasks,
		broker: broker,
		hour:   hour,
		now:    time.Now,
	}
}

func (r *Reminder) Start() {
	log.Println("Reminder started...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go r.runDeliver(ctx)

	for {
		next := nextRun(r.now().UTC(), r.hour)
		timer := time.NewTimer(next.Sub(r.now().UTC()))
		<-timer.C

		if err := r.scan(ctx); err != nil {
			log.Printf("error scanning reminders: %v", err)
		}
	}
}

// scan publishes an event for every reminder-enabled task whose deadline is
// within the window. A failure on one task never stops the rest.
func (r *Reminder) scan(ctx context.Context) error {
	taskList, err := r.tasks.ReminderTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list reminder tasks: %w", err)
	}

	now := r.now()
	for _, task := range taskList {
		if !task.Reminder || task.Deadline == nil || task.Deadline.Sub(now) > reminderWindow {
			continue
		}

		err = r.broker.SendMessage(ctx,
			[]byte(strconv.FormatInt(int64(task.Owner), 10)),
			[]byte(task.Note),
		)
		if err != nil {
			log.Printf("failed to publish reminder for task '%d': %v", task.ID, err)
			continue
		}
		log.Printf("reminder for task '%d' of user '%d' published", task.ID, task.Owner)
	}

	return nil
}

// runDeliver consumes reminder events and sends the Telegram messages.
func (r *Reminder) runDeliver(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		key, val, err := r.broker.ReadMessage(ctx)
		if err != nil {
			log.Printf("error reading reminder event: %v", err)
			continue
		}

		owner, err := strconv.ParseInt(string(key), 10, 64)
		if err != nil {
			log.Printf("error converting user id '%s' to int: %v", key, err)
			continue
		}

		if err = r.deliver(model.UserID(owner), string(val)); err != nil {
			log.Printf("failed to send reminder to user '%d': %v", owner, err)
			continue
		}
	}
}

func (r *Reminder) deliver(owner model.UserID, note string) error {
	message := fmt.Sprintf("It's almost deadline for your %s task!", note)
	if err := r.sender.Send(owner, message); err != nil {
		return err
	}

	metrics.RemindersSentCounter.Inc()
	log.Printf("reminder sent to user '%d': %s", owner, message)
	return nil
}

// nextRun is the next moment the scan fires: today at the given UTC hour, or
// tomorrow if that has already passed.
func nextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
