package notify

import (
	"context"
	"errors"
	"testing"
)

type recordingNotifier struct {
	sent   []int64
	failOn map[int64]bool
}

func (r *recordingNotifier) SendText(_ context.Context, chatID int64, _ string) error {
	if r.failOn[chatID] {
		return errors.New("bot was blocked by the user")
	}
	r.sent = append(r.sent, chatID)
	return nil
}

func (r *recordingNotifier) SendChoices(ctx context.Context, chatID int64, text string, _ [][]Button) error {
	return r.SendText(ctx, chatID, text)
}

func (r *recordingNotifier) SendDocument(ctx context.Context, chatID int64, _ string, _ []byte, caption string) error {
	return r.SendText(ctx, chatID, caption)
}

func TestBroadcastContinuesAfterFailure(t *testing.T) {
	n := &recordingNotifier{failOn: map[int64]bool{2: true}}
	rep := Broadcast(context.Background(), n, []int64{1, 2, 3}, "Завтра рейс переносится")
	if rep.Sent != 2 || rep.Failed != 1 {
		t.Fatalf("unexpected report %+v", rep)
	}
	if len(n.sent) != 2 || n.sent[0] != 1 || n.sent[1] != 3 {
		t.Fatalf("unexpected recipients %v", n.sent)
	}
}

func TestBroadcastStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := &recordingNotifier{}
	rep := Broadcast(ctx, n, []int64{1, 2}, "x")
	if rep.Sent != 0 || rep.Failed != 2 {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestInlineKeyboard(t *testing.T) {
	kb := InlineKeyboard([][]Button{
		{{Label: "В Уфу", Data: "book:to_ufa"}},
		{{Label: "Назад", Data: "start"}},
	})
	if len(kb.InlineKeyboard) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(kb.InlineKeyboard))
	}
	btn := kb.InlineKeyboard[0][0]
	if btn.Text != "В Уфу" || btn.CallbackData == nil || *btn.CallbackData != "book:to_ufa" {
		t.Fatalf("unexpected button %+v", btn)
	}
}
