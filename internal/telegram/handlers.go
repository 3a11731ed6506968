package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pinky-service/internal/db"
	"pinky-service/internal/llm"
)

func kbStart() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💖 Да, расскажи о себе", "about_me")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🤔 Что ты умеешь?", "what_i_do")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💻 Начать пользоваться", "register")),
	)
}

func kbAboutMe() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🤔 Что ты умеешь?", "what_i_do")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💻 Начать пользоваться", "register")),
	)
}

func kbWhatIDo() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💻 Начать пользоваться", "register")),
	)
}

func kbRegister() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Согласен", "agree")),
	)
}

// handleStart creates the user on first contact. A deep-link argument
// (/start <referrer_id>) links the referrer.
func (b *Bot) handleStart(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	userID := msg.From.ID
	name := msg.From.FirstName
	if name == "" {
		name = msg.From.UserName
	}

	if _, err := b.store.NewUser(ctx, userID, name); err != nil {
		if errors.Is(err, db.ErrUserExists) {
			// Repeated /start is ignored.
			return
		}
		log.Printf("failed to create user %d: %v", userID, err)
	}

	if arg := msg.CommandArguments(); arg != "" {
		if refID, err := strconv.ParseInt(arg, 10, 64); err == nil && refID != userID {
			if err := b.store.SetReferrer(ctx, userID, refID); err != nil {
				log.Printf("failed to set referrer %d for user %d: %v", refID, userID, err)
			}
		}
	}

	kb := kbStart()
	b.sendWithMarkup(msg.Chat.ID, "Привет! Я Pinky – твоя digital-подруга 💕 Давай знакомиться?", &kb)
}

func (b *Bot) handleAboutMe(_ context.Context, update tgbotapi.Update) {
	kb := kbAboutMe()
	b.clearMarkup(update)
	b.sendWithMarkup(update.CallbackQuery.Message.Chat.ID,
		"Я твоя новая лучшая подруга! Я умею анализировать твои фото, помогать в переписках, "+
			"подбирать стиль и даже советовать, куда сходить сегодня вечером! Регистрируйся и начинаем?", &kb)
}

func (b *Bot) handleWhatIDo(_ context.Context, update tgbotapi.Update) {
	kb := kbWhatIDo()
	b.clearMarkup(update)
	b.sendWithMarkup(update.CallbackQuery.Message.Chat.ID,
		"Я могу помочь тебе найти идеальный тональный крем, разобрать переписку с парнем, выбрать платье "+
			"на свидание или даже рассказать, какие вечеринки сегодня самые хайповые. Начинай скорее!", &kb)
}

func (b *Bot) handleRegister(_ context.Context, update tgbotapi.Update) {
	kb := kbRegister()
	b.clearMarkup(update)
	b.sendWithMarkup(update.CallbackQuery.Message.Chat.ID,
		"🎉 Для начала необходимо подтвердить свое согласие, нажимая кнопку «Завершить»:\n"+
			"– Политикой конфиденциальности\n– Пользовательским соглашением", &kb)
}

func (b *Bot) handleAgree(ctx context.Context, update tgbotapi.Update) {
	q := update.CallbackQuery
	b.clearMarkup(update)

	err := registerWithRetry(ctx, b.store, q.From.ID)
	if errors.Is(err, db.ErrUserNotFound) {
		b.sendMessage(q.Message.Chat.ID, "Сначала отправь /start, чтобы я тебя запомнила 💕")
		return
	}
	if err != nil {
		log.Printf("failed to register user %d: %v", q.From.ID, err)
		b.sendMessage(q.Message.Chat.ID, "Что-то пошло не так, попробуй еще раз чуть позже.")
		return
	}

	b.sendMessage(q.Message.Chat.ID,
		"Привет, выбери чем бы ты хотела заняться сегодня?\n\nВыбери вариант внизу или просто напиши в чат.")
}

// registerWithRetry re-runs the unit of work once on a serialization
// conflict before giving up.
func registerWithRetry(ctx context.Context, store Store, userID int64) error {
	err := store.RegisterUser(ctx, userID)
	if db.IsRetryable(err) {
		err = store.RegisterUser(ctx, userID)
	}
	return err
}

func (b *Bot) handleFreeText(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	text := msg.Text

	if b.llmClient == nil {
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("Я пока не умею отвечать на %q, но уже учусь 🤖", text))
		return
	}

	answer, err := b.llmClient.Generate(ctx, []llm.Message{
		{Role: "system", Content: "Ты Pinky – дружелюбная digital-подруга. Отвечай кратко и тепло."},
		{Role: "user", Content: text},
	})
	if err != nil {
		log.Printf("failed to generate reply: %v", err)
		b.sendMessage(msg.Chat.ID, "Что-то пошло не так, попробуй еще раз чуть позже.")
		return
	}

	// Charge for the reply and persist the output. Failures here are logged
	// but the user still gets the answer.
	tr, err := b.store.AddTransaction(ctx, msg.From.ID, b.replyCost, "free_text_reply")
	if err != nil {
		log.Printf("failed to record transaction for user %d: %v", msg.From.ID, err)
	} else {
		if _, err := b.store.AddPFunc(ctx, db.PFunc{
			Message: text,
			Answer:  answer,
			UserID:  msg.From.ID,
			PayID:   tr.ID,
		}); err != nil {
			log.Printf("failed to record pfunc for user %d: %v", msg.From.ID, err)
		}
	}

	b.sendMessage(msg.Chat.ID, answer)
}

func (b *Bot) clearMarkup(update tgbotapi.Update) {
	q := update.CallbackQuery
	if q.Message == nil {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(q.Message.Chat.ID, q.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	if _, err := b.api.Request(edit); err != nil {
		log.Printf("failed to clear reply markup: %v", err)
	}
}
