package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/nulzo/canteen-api/internal/store"
	"github.com/nulzo/canteen-api/internal/store/model"
	"go.uber.org/zap"
)

// ErrNoChat is returned when the latest update carries no message to take a chat id from.
var ErrNoChat = errors.New("latest update has no message chat")

type Bot interface {
	GetUpdates(ctx context.Context) ([]Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type Service interface {
	// RegisterLatestChat stores the chat of the most recent bot update. It
	// returns a nil update when the bot has none pending and store.ErrConflict
	// when the chat is already registered.
	RegisterLatestChat(ctx context.Context) (*Update, error)
	// NotifyAll sends text to every registered chat.
	NotifyAll(ctx context.Context, text string) error
}

type service struct {
	logger *zap.Logger
	repo   store.Repository
	bot    Bot
}

func NewService(logger *zap.Logger, repo store.Repository, bot Bot) Service {
	return &service{logger: logger, repo: repo, bot: bot}
}

func (s *service) RegisterLatestChat(ctx context.Context) (*Update, error) {
	updates, err := s.bot.GetUpdates(ctx)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, nil
	}

	last := updates[len(updates)-1]
	if last.Message == nil {
		return nil, ErrNoChat
	}

	chatID := last.Message.Chat.ID
	chat := &model.TelegramChat{ChatID: chatID, CreatedAt: time.Now().UTC()}
	if err := s.repo.TelegramChats().Create(ctx, chat); err != nil {
		return nil, err
	}

	s.logger.Info("Telegram chat registered", zap.Int64("chat_id", chatID))
	return &last, nil
}

// maxConcurrentSends bounds in-flight sendMessage calls.
const maxConcurrentSends = 8

func (s *service) NotifyAll(ctx context.Context, text string) error {
	chats, err := s.repo.TelegramChats().List(ctx)
	if err != nil {
		return err
	}

	var g multierror.Group
	sem := make(chan struct{}, maxConcurrentSends)
	for _, chat := range chats {
		chatID := chat.ChatID
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			if err := s.bot.SendMessage(ctx, chatID, text); err != nil {
				return fmt.Errorf("chat %d: %w", chatID, err)
			}
			return nil
		})
	}
	return g.Wait().ErrorOrNil()
}
