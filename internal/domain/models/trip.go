package models

import (
	"fmt"
	"strings"
)

// Direction is one of the two fixed routes served by the shuttle.
type Direction string

const (
	DirectionToUfa   Direction = "to_ufa"
	DirectionFromUfa Direction = "from_ufa"
)

// Directions lists routes in menu order.
var Directions = []Direction{DirectionToUfa, DirectionFromUfa}

// ParseDirection accepts the stored trip_type value.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DirectionToUfa, DirectionFromUfa:
		return d, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Label returns the user-facing route name.
func (d Direction) Label() string {
	switch d {
	case DirectionToUfa:
		return "В Уфу"
	case DirectionFromUfa:
		return "Из Уфы"
	}
	return string(d)
}

// Trip mirrors a trips row. Passengers is decoded from the comma-joined column;
// Unparsed holds entries of that column that are not user ids.
type Trip struct {
	ID         int64     `json:"id"`
	Direction  Direction `json:"direction"`
	Date       string    `json:"date"`
	Passengers []int64   `json:"passengers"`
	Unparsed   []string  `json:"-"`
}

// Seats is the number of occupied seats, unparsed entries included.
func (t Trip) Seats() int {
	return len(t.Passengers) + len(t.Unparsed)
}

// Available reports remaining seats for the given capacity, never below zero.
func (t Trip) Available(capacity int) int {
	left := capacity - t.Seats()
	if left < 0 {
		return 0
	}
	return left
}

// Full reports whether the capacity guard refuses further bookings.
func (t Trip) Full(capacity int) bool {
	return t.Seats() >= capacity
}
