package bot

import (
	"log"

	"github.com/kotche/taskbot/infrastructure/metrics"
	"github.com/kotche/taskbot/internal/model"
	"gopkg.in/telebot.v3"
)

// Bot wires the dialog engine onto the Telegram transport.
type Bot struct {
	bot    *telebot.Bot
	engine *Engine
}

func New(bot *telebot.Bot, engine *Engine) *Bot {
	return &Bot{bot: bot, engine: engine}
}

func (b *Bot) Start() {
	b.bot.Handle("/start", b.command("start", func(c telebot.Context) Reply {
		return b.engine.Start(senderID(c), c.Sender().Username)
	}))
	b.bot.Handle("/help", b.command("help", func(c telebot.Context) Reply {
		return b.engine.Help()
	}))
	b.bot.Handle("/show", b.command("show", func(c telebot.Context) Reply {
		return b.engine.Show(senderID(c))
	}))
	b.bot.Handle("/task", b.command("task", func(c telebot.Context) Reply {
		return b.engine.BeginTask(senderID(c))
	}))
	b.bot.Handle("/sub", b.command("sub", func(c telebot.Context) Reply {
		return b.engine.BeginSubtask(senderID(c))
	}))
	b.bot.Handle("/edit", b.command("edit", func(c telebot.Context) Reply {
		return b.engine.BeginEdit(senderID(c))
	}))
	b.bot.Handle("/style", b.command("style", func(c telebot.Context) Reply {
		return b.engine.ToggleStyle(senderID(c))
	}))

	// Plain text and unregistered commands (/cancel included) feed the
	// pending dialog step, if any.
	b.bot.Handle(telebot.OnText, func(c telebot.Context) error {
		return b.send(c, b.engine.Continue(senderID(c), c.Text()))
	})

	log.Println("Bot started...")
	b.bot.Start()
}

func (b *Bot) command(name string, fn func(telebot.Context) Reply) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		metrics.CommandsHandledCounter.WithLabelValues(name).Inc()
		return b.send(c, fn(c))
	}
}

func (b *Bot) send(c telebot.Context, reply Reply) error {
	if reply.Text == "" {
		return nil
	}

	var opts []interface{}
	if len(reply.Keyboard) > 0 {
		markup := &telebot.ReplyMarkup{OneTimeKeyboard: true, ResizeKeyboard: true}
		rows := make([]telebot.Row, 0, len(reply.Keyboard))
		for _, labels := range reply.Keyboard {
			row := make(telebot.Row, 0, len(labels))
			for _, label := range labels {
				row = append(row, markup.Text(label))
			}
			rows = append(rows, row)
		}
		markup.Reply(rows...)
		opts = append(opts, markup)
	} else if reply.RemoveKeyboard {
		opts = append(opts, &telebot.ReplyMarkup{RemoveKeyboard: true})
	}

	if reply.HTML {
		opts = append(opts, telebot.ModeHTML)
	}

	return c.Send(reply.Text, opts...)
}

func senderID(c telebot.Context) model.UserID {
	return model.UserID(c.Sender().ID)
}
