package notify

import (
	"context"
	"fmt"

	"taxibot/internal/utils"
)

// Button is one inline choice. Data is an opaque callback token returned
// verbatim when the user presses it.
type Button struct {
	Label string
	Data  string
}

// Notifier delivers messages to a chat recipient.
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendChoices(ctx context.Context, chatID int64, text string, rows [][]Button) error
	SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) error
}

// BroadcastReport summarizes a fan-out send.
type BroadcastReport struct {
	Sent   int
	Failed int
}

// Broadcast sends text to every recipient. A failed recipient is logged and
// counted; the loop always continues.
func Broadcast(ctx context.Context, n Notifier, recipients []int64, text string) BroadcastReport {
	var rep BroadcastReport
	for _, id := range recipients {
		if ctx.Err() != nil {
			rep.Failed += len(recipients) - rep.Sent - rep.Failed
			break
		}
		if err := n.SendText(ctx, id, text); err != nil {
			rep.Failed++
			utils.LogEvent("", "notify", "broadcast", fmt.Sprintf("recipient=%d err=%v", id, err))
			continue
		}
		rep.Sent++
	}
	return rep
}
