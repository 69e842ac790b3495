package bot

import (
	"fmt"
	"strconv"
	"strings"

	"taxibot/internal/domain"
	"taxibot/internal/domain/models"
)

// Callback actions carried in inline button data.
const (
	ActionViewSchedule = "view_schedule"
	ActionBookSeat     = "book_seat"
	ActionStart        = "start"
	ActionMyBookings   = "my_bookings"
	ActionCancel       = "cancel"
	ActionBook         = "book"
	ActionConfirm      = "confirm"
)

// Callback is a decoded button press.
type Callback struct {
	Action    string
	Direction models.Direction
	TripID    int64
}

// EncodeBook builds the token for choosing a direction.
func EncodeBook(dir models.Direction) string {
	return ActionBook + ":" + string(dir)
}

// EncodeConfirm builds the token for choosing a trip of a direction.
func EncodeConfirm(dir models.Direction, tripID int64) string {
	return fmt.Sprintf("%s:%s:%d", ActionConfirm, dir, tripID)
}

// ParseCallback decodes button data. Unknown or malformed tokens are
// validation errors.
func ParseCallback(data string) (Callback, error) {
	parts := strings.Split(strings.TrimSpace(data), ":")
	switch parts[0] {
	case ActionViewSchedule, ActionBookSeat, ActionStart, ActionMyBookings, ActionCancel:
		if len(parts) != 1 {
			break
		}
		return Callback{Action: parts[0]}, nil
	case ActionBook:
		if len(parts) != 2 {
			break
		}
		dir, err := models.ParseDirection(parts[1])
		if err != nil {
			return Callback{}, domain.ValidationError{Field: "callback", Msg: "unknown direction", Err: err}
		}
		return Callback{Action: ActionBook, Direction: dir}, nil
	case ActionConfirm:
		if len(parts) != 3 {
			break
		}
		dir, err := models.ParseDirection(parts[1])
		if err != nil {
			return Callback{}, domain.ValidationError{Field: "callback", Msg: "unknown direction", Err: err}
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || id <= 0 {
			return Callback{}, domain.ValidationError{Field: "callback", Msg: "invalid trip id", Err: err}
		}
		return Callback{Action: ActionConfirm, Direction: dir, TripID: id}, nil
	}
	return Callback{}, domain.ValidationError{Field: "callback", Msg: fmt.Sprintf("unrecognized token %q", data)}
}
