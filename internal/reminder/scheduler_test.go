package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"taxibot/internal/domain/models"
)

type chanSender struct {
	mu   sync.Mutex
	got  chan int64
	text []string
}

func newChanSender() *chanSender {
	return &chanSender{got: make(chan int64, 4)}
}

func (c *chanSender) SendText(_ context.Context, chatID int64, text string) error {
	c.mu.Lock()
	c.text = append(c.text, text)
	c.mu.Unlock()
	c.got <- chatID
	return nil
}

func startScheduler(t *testing.T, sender Sender) *Scheduler {
	t.Helper()
	s, err := New(sender, time.UTC)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestAt(t *testing.T) {
	got, err := At("2024-05-01", time.UTC)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	want := time.Date(2024, 4, 30, 23, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %s want %s", got, want)
	}
	if _, err := At("01.05.2024", time.UTC); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestText(t *testing.T) {
	want := "🚨 Напоминание: ваша поездка В Уфу на 2024-05-01 начнется через час!"
	if got := Text(models.DirectionToUfa, "2024-05-01"); got != want {
		t.Fatalf("got %q", got)
	}
}

func TestScheduleFiresOnce(t *testing.T) {
	sender := newChanSender()
	s := startScheduler(t, sender)

	if _, err := s.Schedule(context.Background(), Reminder{FireAt: time.Now().Add(100 * time.Millisecond), UserID: 7, Text: "soon"}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	select {
	case id := <-sender.got:
		if id != 7 {
			t.Fatalf("reminder sent to %d", id)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("reminder did not fire")
	}
	select {
	case <-sender.got:
		t.Fatalf("reminder fired twice")
	case <-time.After(300 * time.Millisecond):
	}
	if s.Pending() != 0 {
		t.Fatalf("expected no pending reminders, got %d", s.Pending())
	}
}

func TestSchedulePastDueFiresImmediately(t *testing.T) {
	sender := newChanSender()
	s := startScheduler(t, sender)

	if _, err := s.Schedule(context.Background(), Reminder{FireAt: time.Now().Add(-time.Minute), UserID: 8, Text: "late"}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	select {
	case id := <-sender.got:
		if id != 8 {
			t.Fatalf("reminder sent to %d", id)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("past-due reminder did not fire")
	}
}

func TestCancelPreventsDelivery(t *testing.T) {
	sender := newChanSender()
	s := startScheduler(t, sender)

	id, err := s.Schedule(context.Background(), Reminder{FireAt: time.Now().Add(time.Hour), UserID: 9, Text: "later"})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if s.Pending() != 1 {
		t.Fatalf("expected 1 pending, got %d", s.Pending())
	}
	if err := s.Cancel(id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if s.Pending() != 0 {
		t.Fatalf("expected 0 pending, got %d", s.Pending())
	}
	if err := s.Cancel(id); err == nil {
		t.Fatalf("second cancel should fail")
	}
}

func TestScheduleOnStoppedScheduler(t *testing.T) {
	s, err := New(newChanSender(), time.UTC)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = s.Schedule(context.Background(), Reminder{FireAt: time.Now().Add(time.Hour), UserID: 1})
	if !errors.Is(err, ErrSchedulerStopped) {
		t.Fatalf("expected ErrSchedulerStopped, got %v", err)
	}

	s.Start()
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop should be a no-op: %v", err)
	}
	if _, err := s.Schedule(context.Background(), Reminder{FireAt: time.Now().Add(time.Hour), UserID: 1}); !errors.Is(err, ErrSchedulerStopped) {
		t.Fatalf("expected ErrSchedulerStopped after Stop, got %v", err)
	}
}
