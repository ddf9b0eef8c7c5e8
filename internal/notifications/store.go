package notifications

import "github.com/chatmesh/chatmesh/internal/chat"

// Store indexes notifications by id and by recipient. Implementations are
// not safe for concurrent use; the service serializes access behind its
// mutex.
type Store interface {
	Put(n chat.Notification)
	ByID(id string) (chat.Notification, bool)
	IndexByUser(userID string) []string
}

type memoryStore struct {
	byID   map[string]chat.Notification
	byUser map[string][]string
}

func NewMemoryStore() Store {
	return &memoryStore{
		byID:   make(map[string]chat.Notification),
		byUser: make(map[string][]string),
	}
}

func (s *memoryStore) Put(n chat.Notification) {
	if _, exists := s.byID[n.NotificationID]; !exists {
		s.byUser[n.UserID] = append(s.byUser[n.UserID], n.NotificationID)
	}
	s.byID[n.NotificationID] = n
}

func (s *memoryStore) ByID(id string) (chat.Notification, bool) {
	n, ok := s.byID[id]
	return n, ok
}

func (s *memoryStore) IndexByUser(userID string) []string {
	return s.byUser[userID]
}
