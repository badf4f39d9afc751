package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nulzo/canteen-api/internal/store/model"
	"go.uber.org/zap"
)

// Notifier delivers rollup announcements in the background so a slow Bot
// API never holds up the order write that triggered the rollup.
type Notifier struct {
	logger      *zap.Logger
	service     Service
	queue       chan string
	sendTimeout time.Duration
	done        chan struct{}
	stopOnce    sync.Once
}

func NewNotifier(logger *zap.Logger, service Service) *Notifier {
	return &Notifier{
		logger:      logger,
		service:     service,
		queue:       make(chan string, 64),
		sendTimeout: 10 * time.Second,
		done:        make(chan struct{}),
	}
}

// OnMonthlyRollup queues an announcement for counter. It never blocks.
func (n *Notifier) OnMonthlyRollup(ctx context.Context, counter *model.Counter) error {
	msg := FormatRollup(counter)
	select {
	case n.queue <- msg:
		return nil
	default:
		return fmt.Errorf("telegram notification queue full, dropping rollup message")
	}
}

func (n *Notifier) Start(ctx context.Context) {
	go n.worker(ctx)
}

// Stop closes the queue and waits for pending messages to be sent.
func (n *Notifier) Stop() {
	n.stopOnce.Do(func() {
		close(n.queue)
	})
	<-n.done
}

func (n *Notifier) worker(ctx context.Context) {
	defer close(n.done)

	for {
		select {
		case msg, ok := <-n.queue:
			if !ok {
				return
			}
			n.send(msg)
		case <-ctx.Done():
			// drain what is already queued
			for {
				select {
				case msg, ok := <-n.queue:
					if !ok {
						return
					}
					n.send(msg)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) send(msg string) {
	ctx, cancel := context.WithTimeout(context.Background(), n.sendTimeout)
	defer cancel()

	if err := n.service.NotifyAll(ctx, msg); err != nil {
		n.logger.Error("Failed to deliver telegram notification", zap.Error(err))
		return
	}
	n.logger.Debug("Telegram notification delivered")
}

// FormatRollup renders the announcement for a new monthly counter.
func FormatRollup(c *model.Counter) string {
	period := c.Date
	if c.Year != nil && c.Month != nil {
		period = time.Date(*c.Year, time.Month(*c.Month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
	}
	return fmt.Sprintf("Monthly canteen summary for %s\nBreakfast: %d\nLunch: %d\nDinner: %d",
		period, c.BreakfastCount, c.LunchCount, c.DinnerCount)
}
