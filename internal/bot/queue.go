package bot

import (
	"context"
	"fmt"
	"sync"

	"taxibot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DefaultBacklog is how many accepted updates may wait for a worker.
const DefaultBacklog = 256

// Submitter accepts an update for later handling. Submit never blocks; false
// means the update was not taken and the sender should retry.
type Submitter interface {
	Submit(upd tgbotapi.Update) bool
}

// Queue runs pushed updates on a fixed pool of workers, so the webhook can
// answer Telegram before the update is processed.
type Queue struct {
	handler Handler
	ctx     context.Context
	updates chan tgbotapi.Update

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewQueue starts workers goroutines bound to ctx. Non-positive sizes fall
// back to DefaultMaxConcurrent and DefaultBacklog.
func NewQueue(ctx context.Context, h Handler, workers, backlog int) *Queue {
	if workers <= 0 {
		workers = DefaultMaxConcurrent
	}
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	q := &Queue{handler: h, ctx: ctx, updates: make(chan tgbotapi.Update, backlog)}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.work()
	}
	utils.LogEvent("", "bot", "queue_start", fmt.Sprintf("workers=%d backlog=%d", workers, backlog))
	return q
}

func (q *Queue) work() {
	defer q.wg.Done()
	for upd := range q.updates {
		q.handler.Handle(q.ctx, upd)
	}
}

func (q *Queue) Submit(upd tgbotapi.Update) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.updates <- upd:
		return true
	default:
		utils.LogEvent("", "bot", "queue_full", fmt.Sprintf("update_id=%d", upd.UpdateID))
		return false
	}
}

// Close stops intake, lets the workers drain the backlog and waits for them.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.updates)
	q.mu.Unlock()
	q.wg.Wait()
	utils.LogEvent("", "bot", "queue_stop", "drained")
}
