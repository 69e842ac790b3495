package bot

import (
	"context"
	"fmt"
	"sync"

	"taxibot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DefaultMaxConcurrent bounds in-flight updates when no limit is configured.
const DefaultMaxConcurrent = 40

// UpdateSource is the long-polling half of *tgbotapi.BotAPI.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler consumes one update.
type Handler interface {
	Handle(ctx context.Context, upd tgbotapi.Update)
}

// Poller feeds long-polled updates to a Handler, one goroutine per update,
// with at most MaxConcurrent running at once.
type Poller struct {
	Source        UpdateSource
	Handler       Handler
	MaxConcurrent int
	Timeout       int
}

// Run blocks until ctx is cancelled or the update channel closes, then
// waits for in-flight handlers.
func (p *Poller) Run(ctx context.Context) error {
	limit := p.MaxConcurrent
	if limit <= 0 {
		limit = DefaultMaxConcurrent
	}
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = p.Timeout
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30
	}

	updates := p.Source.GetUpdatesChan(cfg)
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	defer wg.Wait()

	utils.LogEvent("", "bot", "poll_start", fmt.Sprintf("max_concurrent=%d", limit))
	for {
		select {
		case <-ctx.Done():
			p.Source.StopReceivingUpdates()
			utils.LogEvent("", "bot", "poll_stop", ctx.Err().Error())
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				p.Source.StopReceivingUpdates()
				return nil
			}
			wg.Add(1)
			go func(u tgbotapi.Update) {
				defer wg.Done()
				defer func() { <-sem }()
				p.Handler.Handle(ctx, u)
			}(upd)
		}
	}
}
