package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"mindease/internal/chat"
)

const newSessionCmd = "new_session"

type Bot struct {
	api      *tgbotapi.BotAPI
	out      outbox
	svc      *chat.Service
	sessions *chat.Sessions

	mu     sync.Mutex
	active map[int64]string
}

func New(botToken string, svc *chat.Service, sessions *chat.Sessions) (*Bot, error) {
	if botToken == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is empty")
	}
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return newBot(api, svc, sessions, api), nil
}

func newBot(out outbox, svc *chat.Service, sessions *chat.Sessions, api *tgbotapi.BotAPI) *Bot {
	return &Bot{
		api:      api,
		out:      out,
		svc:      svc.WithSurface("telegram"),
		sessions: sessions,
		active:   make(map[int64]string),
	}
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	log.Printf("🤖 Telegram bot @%s started", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleIncomingMessage(ctx, update.Message)
				continue
			}
			if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
			}
		}
	}
}

// sessionID returns the current session of a chat. Chats start on
// "tg:<chat id>" and move to a fresh id with /new.
func (b *Bot) sessionID(chatID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id, ok := b.active[chatID]; ok {
		return id
	}
	id := fmt.Sprintf("tg:%d", chatID)
	b.active[chatID] = id
	return id
}

func (b *Bot) rotateSession(chatID int64) *chat.Conversation {
	b.mu.Lock()
	prev, ok := b.active[chatID]
	id := fmt.Sprintf("tg:%d:%s", chatID, uuid.NewString()[:8])
	b.active[chatID] = id
	b.mu.Unlock()

	conv := b.sessions.Get(id)
	if ok {
		conv.SetProfile(b.sessions.Get(prev).Profile())
	}
	return conv
}

func (b *Bot) conversation(chatID int64) *chat.Conversation {
	return b.sessions.Get(b.sessionID(chatID))
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	log.Printf("Incoming message from %d (@%s): %q", msg.From.ID, msg.From.UserName, msg.Text)
	conv := b.conversation(msg.Chat.ID)

	turn, err := b.svc.Submit(ctx, conv, msg.Text)
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		b.sendMessage(msg.Chat.ID, "Please send me a few words about how you feel.")
		return
	case errors.Is(err, chat.ErrBusy):
		b.sendMessage(msg.Chat.ID, "I'm still thinking about your last message.")
		return
	case err != nil:
		log.Printf("failed to generate text: %v", err)
		b.sendMessage(msg.Chat.ID, "Sorry, something went wrong. Please send your message again.")
		return
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("New conversation", newSessionCmd),
		),
	)
	reply := tgbotapi.NewMessage(msg.Chat.ID, turn.Reply)
	reply.ReplyMarkup = kb
	if _, err := b.out.Send(reply); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	arg := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		conv := b.conversation(chatID)
		if b.svc.Store().Has(conv.ID()) {
			b.sendMessage(chatID, "We're already talking. Tell me what's on your mind, or send /new to start over.")
			return
		}
		b.greet(ctx, chatID, conv)
	case "name":
		conv := b.conversation(chatID)
		p := conv.Profile()
		p.Name = arg
		conv.SetProfile(p)
		b.sendMessage(chatID, fmt.Sprintf("Nice to meet you, %s.", fallback(arg, "friend")))
		b.greet(ctx, chatID, conv)
	case "mood":
		conv := b.conversation(chatID)
		p := conv.Profile()
		p.Mood = arg
		conv.SetProfile(p)
		b.sendMessage(chatID, "Thank you for sharing how you feel.")
	case "new":
		b.greet(ctx, chatID, b.rotateSession(chatID))
	case "usage":
		u := b.conversation(chatID).Usage()
		b.sendMessage(chatID, fmt.Sprintf("Used %d tokens (prompt %d, completion %d).", u.TotalTokens, u.PromptTokens, u.CompletionTokens))
	default:
		b.sendMessage(chatID, "Commands: /start, /name <name>, /mood <mood>, /new, /usage")
	}
}

// greet sends the opening message once per session. Personas that need a
// name first ask for it instead.
func (b *Bot) greet(ctx context.Context, chatID int64, conv *chat.Conversation) {
	persona := b.svc.Persona()
	if persona.RequireProfile && persona.GreetingFor(conv.Profile()) == "" {
		b.sendMessage(chatID, "Before we start, tell me your name with /name <your name>.")
		return
	}
	existed := b.svc.Store().Has(conv.ID())
	hist, err := b.svc.Greet(ctx, conv)
	if err != nil {
		log.Printf("failed to load history: %v", err)
		b.sendMessage(chatID, "Sorry, something went wrong.")
		return
	}
	if !existed && len(hist) > 0 {
		b.sendMessage(chatID, hist[0].Text)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.out.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("failed to answer callback: %v", err)
	}
	if cb.Data == newSessionCmd && cb.Message != nil {
		b.sendMessage(cb.Message.Chat.ID, "Starting a fresh conversation.")
		b.greet(ctx, cb.Message.Chat.ID, b.rotateSession(cb.Message.Chat.ID))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.out.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

