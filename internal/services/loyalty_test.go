package services

import "testing"

func TestApplyLoyaltySixthTripFree(t *testing.T) {
	points := 0
	for booking := 1; booking <= 5; booking++ {
		var reward bool
		points, reward = ApplyLoyalty(points)
		if reward {
			t.Fatalf("booking %d should not be free", booking)
		}
		if points != booking {
			t.Fatalf("booking %d: expected %d points, got %d", booking, booking, points)
		}
	}
	points, reward := ApplyLoyalty(points)
	if !reward || points != 0 {
		t.Fatalf("6th booking should be free and reset the counter, got points=%d reward=%v", points, reward)
	}
	points, reward = ApplyLoyalty(points)
	if reward || points != 1 {
		t.Fatalf("counting should restart after the reward, got points=%d reward=%v", points, reward)
	}
}
