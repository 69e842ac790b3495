package utils

import (
	"reflect"
	"testing"
)

func TestSplitPassengers(t *testing.T) {
	cases := []struct {
		raw      string
		want     []int64
		unparsed []string
	}{
		{"", []int64{}, nil},
		{"7", []int64{7}, nil},
		{"7,8,9", []int64{7, 8, 9}, nil},
		{" 7 , ,8,abc", []int64{7, 8}, []string{"abc"}},
	}
	for _, tc := range cases {
		got, unparsed := SplitPassengers(tc.raw)
		if !reflect.DeepEqual(got, tc.want) || !reflect.DeepEqual(unparsed, tc.unparsed) {
			t.Fatalf("SplitPassengers(%q) = %v %v, want %v %v", tc.raw, got, unparsed, tc.want, tc.unparsed)
		}
	}
}

func TestJoinPassengers(t *testing.T) {
	if got := JoinPassengers(nil); got != "" {
		t.Fatalf("empty list should encode as empty string, got %q", got)
	}
	if got := JoinPassengers([]int64{7, 8}); got != "7,8" {
		t.Fatalf("unexpected encoding %q", got)
	}
	ids, unparsed := SplitPassengers("1,abc,2")
	if got := JoinPassengers(ids, unparsed...); got != "1,2,abc" {
		t.Fatalf("unparsed entries should survive a round trip, got %q", got)
	}
}

func TestParseIDList(t *testing.T) {
	ids, err := ParseIDList("7117000356, 42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != 7117000356 || ids[1] != 42 {
		t.Fatalf("unexpected ids %v", ids)
	}
	if _, err := ParseIDList("1,x"); err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
}

func TestFormatRubles(t *testing.T) {
	if got := FormatRubles(1500); got != "1 500 ₽" {
		t.Fatalf("got %q", got)
	}
	if got := FormatRubles(0); got != "0 ₽" {
		t.Fatalf("got %q", got)
	}
}
