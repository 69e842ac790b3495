// Package reminder fires one-time pre-trip notifications.
//
// Jobs live only in process memory: a restart before the fire time drops
// the reminder.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"taxibot/internal/domain/models"
	"taxibot/internal/utils"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// Lead is how long before departure the reminder fires.
const Lead = time.Hour

var ErrSchedulerStopped = errors.New("reminder scheduler is not running")

// Sender is the part of the notification channel the scheduler needs.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type Reminder struct {
	FireAt time.Time
	UserID int64
	Text   string
}

// Scheduler wraps a gocron scheduler with an explicit lifecycle owned by main.
type Scheduler struct {
	sender      Sender
	now         func() time.Time
	sendTimeout time.Duration

	mu      sync.Mutex
	cron    gocron.Scheduler
	running bool
	pending map[uuid.UUID]struct{}
}

func New(sender Sender, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	cron, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	s := &Scheduler{
		sender:      sender,
		now:         time.Now,
		sendTimeout: 10 * time.Second,
		cron:        cron,
		pending:     map[uuid.UUID]struct{}{},
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
}

// Stop shuts the scheduler down. Reminders that have not fired are dropped.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	dropped := len(s.pending)
	s.pending = map[uuid.UUID]struct{}{}
	s.mu.Unlock()

	if dropped > 0 {
		utils.LogEvent("", "reminder", "stop", fmt.Sprintf("dropped=%d", dropped))
	}
	return s.cron.Shutdown()
}

// Schedule registers a one-time reminder. A fire time already in the past
// (trip departs within the hour) runs immediately.
func (s *Scheduler) Schedule(_ context.Context, r Reminder) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return uuid.Nil, ErrSchedulerStopped
	}

	start := gocron.OneTimeJobStartDateTime(r.FireAt)
	if !r.FireAt.After(s.now()) {
		start = gocron.OneTimeJobStartImmediately()
	}

	var id uuid.UUID
	job, err := s.cron.NewJob(
		gocron.OneTimeJob(start),
		gocron.NewTask(func() { s.fire(&id, r) }),
		gocron.WithName(fmt.Sprintf("reminder:%d", r.UserID)),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("schedule reminder: %w", err)
	}
	id = job.ID()
	s.pending[id] = struct{}{}
	return id, nil
}

// Cancel removes a reminder that has not fired yet.
func (s *Scheduler) Cancel(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[id]; !ok {
		return fmt.Errorf("reminder %s not pending", id)
	}
	delete(s.pending, id)
	return s.cron.RemoveJob(id)
}

// Pending reports reminders scheduled but not yet fired.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// fire reads the job id under the lock; Schedule assigns it while holding
// the same lock, so an immediate job cannot observe a zero id.
func (s *Scheduler) fire(idp *uuid.UUID, r Reminder) {
	s.mu.Lock()
	id := *idp
	_, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
	defer cancel()
	if err := s.sender.SendText(ctx, r.UserID, r.Text); err != nil {
		utils.LogEvent("", "reminder", "send", fmt.Sprintf("user_id=%d err=%v", r.UserID, err))
		return
	}
	utils.LogEvent("", "reminder", "send", fmt.Sprintf("user_id=%d delivered", r.UserID))
}

// At returns the fire time for a trip date: departure is taken as midnight
// of that date in loc.
func At(date string, loc *time.Location) (time.Time, error) {
	d, err := utils.ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(-Lead), nil
}

// Text renders the reminder message for a trip.
func Text(dir models.Direction, date string) string {
	return fmt.Sprintf("🚨 Напоминание: ваша поездка %s на %s начнется через час!", dir.Label(), date)
}
