package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// outbox is the part of the Bot API the bot writes to. Tests swap it out.
type outbox interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var _ outbox = (*tgbotapi.BotAPI)(nil)
