// Package notifier pushes recording events to a Telegram chat.
//
// Delivery is best-effort and asynchronous: events go through a small
// queue so a slow Telegram API can never stall the poll loop. The
// Notifier also implements logx.Sender so it can back the rate-limited
// Telegram log sink.
package notifier

import (
	"context"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"streamrec/pkg/logx"
)

type Config struct {
	Token  string
	ChatID int64
}

type Notifier struct {
	bot *tele.Bot
	to  tele.Recipient
	log logx.Logger

	queue  chan string
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startOnce sync.Once
	closeOnce sync.Once
}

func New(cfg Config, log logx.Logger) (*Notifier, error) {
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, err
	}
	return &Notifier{
		bot:   b,
		to:    tele.ChatID(cfg.ChatID),
		log:   log,
		queue: make(chan string, 64),
	}, nil
}

// Start launches the delivery worker. Idempotent.
func (n *Notifier) Start(ctx context.Context) {
	if n == nil {
		return
	}
	n.startOnce.Do(func() {
		wctx, cancel := context.WithCancel(ctx)
		n.cancel = cancel
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.worker(wctx)
		}()
	})
}

// Event enqueues one event message. Nil-safe; drops when the queue is
// full rather than blocking the caller.
func (n *Notifier) Event(text string) {
	if n == nil {
		return
	}
	select {
	case n.queue <- text:
	default:
		n.log.Debug("notification dropped (queue full)")
	}
}

// SendText delivers text synchronously. Implements logx.Sender.
func (n *Notifier) SendText(ctx context.Context, text string) error {
	if n == nil {
		return nil
	}
	_ = ctx // telebot manages its own HTTP timeouts
	_, err := n.bot.Send(n.to, text)
	return err
}

func (n *Notifier) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-n.queue:
			if _, err := n.bot.Send(n.to, text); err != nil {
				n.log.Debug("notification send failed", logx.Err(err))
				// Back off a little so a broken API doesn't spin the worker.
				select {
				case <-ctx.Done():
					return
				case <-time.After(2 * time.Second):
				}
			}
		}
	}
}

func (n *Notifier) Close() {
	if n == nil {
		return
	}
	n.closeOnce.Do(func() {
		if n.cancel != nil {
			n.cancel()
		}
		n.wg.Wait()
	})
}
