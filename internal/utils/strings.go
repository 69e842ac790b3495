package utils

import (
	"strconv"
	"strings"
)

// TrimOrEmpty normalizes user input without turning nil into "nil".
func TrimOrEmpty(s string) string {
	return strings.TrimSpace(s)
}

// SplitPassengers decodes the comma-joined passenger column.
// An empty column is an empty list and blank entries are skipped.
// Non-numeric entries still hold a seat, so they come back verbatim in
// unparsed.
func SplitPassengers(raw string) (ids []int64, unparsed []string) {
	ids = []int64{}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			unparsed = append(unparsed, p)
			continue
		}
		ids = append(ids, id)
	}
	return ids, unparsed
}

// JoinPassengers encodes a passenger list back into the column format.
// Unparsed entries are written after the ids.
func JoinPassengers(ids []int64, unparsed ...string) string {
	parts := make([]string, 0, len(ids)+len(unparsed))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	parts = append(parts, unparsed...)
	return strings.Join(parts, ",")
}

// ParseIDList parses "1, 2,3" style lists (used for ADMIN_IDS).
func ParseIDList(raw string) ([]int64, error) {
	out := []int64{}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
