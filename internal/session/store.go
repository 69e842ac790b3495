// Package session keeps the in-progress booking of each chat user between
// the trip confirmation and the address reply.
package session

import (
	"context"
	"sync"

	"taxibot/internal/domain/models"
)

// Store is keyed by chat user id. A user has at most one pending booking.
//
// Take removes and returns the session in one step; of two concurrent
// callers at most one sees it.
type Store interface {
	Get(ctx context.Context, userID int64) (models.PendingBooking, bool, error)
	Put(ctx context.Context, pb models.PendingBooking) error
	Take(ctx context.Context, userID int64) (models.PendingBooking, bool, error)
	Delete(ctx context.Context, userID int64) (bool, error)
}

// MemoryStore is process-local; sessions are lost on restart and never expire.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]models.PendingBooking
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[int64]models.PendingBooking{}}
}

func (s *MemoryStore) Get(_ context.Context, userID int64) (models.PendingBooking, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pb, ok := s.sessions[userID]
	return pb, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, pb models.PendingBooking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[pb.UserID] = pb
	return nil
}

func (s *MemoryStore) Take(_ context.Context, userID int64) (models.PendingBooking, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pb, ok := s.sessions[userID]
	delete(s.sessions, userID)
	return pb, ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[userID]
	delete(s.sessions, userID)
	return ok, nil
}

// Len reports the number of open sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
