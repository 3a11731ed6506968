package telegram

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pinky-service/internal/db"
	"pinky-service/internal/llm"
	"pinky-service/internal/spylog"
)

// Store is the slice of db.Store the handlers use.
type Store interface {
	NewUser(ctx context.Context, id int64, name string) (db.User, error)
	RegisterUser(ctx context.Context, id int64) error
	SetReferrer(ctx context.Context, id, referrerID int64) error
	AddTransaction(ctx context.Context, userID int64, price int, action string) (db.Transaction, error)
	AddPFunc(ctx context.Context, p db.PFunc) (db.PFunc, error)
}

type handlerFunc func(ctx context.Context, update tgbotapi.Update)

type Bot struct {
	api       *tgbotapi.BotAPI
	events    *spylog.Logger
	store     Store
	llmClient llm.Client
	replyCost int

	commands  map[string]handlerFunc
	callbacks map[string]handlerFunc
	freeText  handlerFunc
}

func New(botToken string, events *spylog.Logger, store Store, llmClient llm.Client, replyCost int) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	b := &Bot{
		api:       api,
		events:    events,
		store:     store,
		llmClient: llmClient,
		replyCost: replyCost,
	}
	b.commands = map[string]handlerFunc{
		"start": b.logged("start", b.handleStart),
	}
	b.callbacks = map[string]handlerFunc{
		"about_me":  b.logged("about_me", b.handleAboutMe),
		"what_i_do": b.logged("what_i_do", b.handleWhatIDo),
		"register":  b.logged("register", b.handleRegister),
		"agree":     b.logged("agree", b.handleAgree),
	}
	b.freeText = b.logged("free_text", b.handleFreeText)
	return b, nil
}

// logged wraps a handler so the event is recorded before it runs. Recording
// is fire-and-forget: the handler executes whatever happens to the buffer.
func (b *Bot) logged(event string, next handlerFunc) handlerFunc {
	return func(ctx context.Context, update tgbotapi.Update) {
		b.events.Record(event, metaFromUpdate(update))
		next(ctx, update)
	}
}

// metaFromUpdate extracts identifiers best-effort; anything missing stays nil.
func metaFromUpdate(update tgbotapi.Update) spylog.Meta {
	var meta spylog.Meta
	if from := update.SentFrom(); from != nil {
		id := from.ID
		meta.UserID = &id
	}
	if chat := update.FromChat(); chat != nil {
		id := chat.ID
		meta.ChatID = &id
	}
	if update.Message != nil && update.Message.Text != "" {
		text := update.Message.Text
		meta.Message = &text
	}
	if update.CallbackQuery != nil {
		data := update.CallbackQuery.Data
		meta.CallbackData = &data
	}
	return meta
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message != nil {
			b.handleIncomingMessage(ctx, update)
			continue
		}
		if update.CallbackQuery != nil {
			b.handleCallback(ctx, update)
			continue
		}
	}
}

// Stop closes the update channel, which unblocks Start.
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

func (b *Bot) handleIncomingMessage(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg.IsCommand() {
		if h, ok := b.commands[msg.Command()]; ok {
			h(ctx, update)
		}
		return
	}
	if msg.Text != "" {
		b.freeText(ctx, update)
	}
}

func (b *Bot) handleCallback(ctx context.Context, update tgbotapi.Update) {
	q := update.CallbackQuery
	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		log.Printf("failed to answer callback: %v", err)
	}
	if q.Message == nil {
		return
	}
	if h, ok := b.callbacks[q.Data]; ok {
		h(ctx, update)
		return
	}
	log.Printf("unknown callback data: %q", q.Data)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	b.sendWithMarkup(chatID, text, nil)
}

func (b *Bot) sendWithMarkup(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	m := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		m.ReplyMarkup = markup
	}
	if _, err := b.api.Send(m); err != nil {
		log.Printf("failed to send message to %d: %v", chatID, err)
	}
}
