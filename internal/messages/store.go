package messages

import "github.com/chatmesh/chatmesh/internal/chat"

// Store indexes messages by id, by participant, and by conversation pair.
// Implementations are not safe for concurrent use; the service serializes
// access behind its mutex.
type Store interface {
	Put(m chat.Message)
	ByID(id string) (chat.Message, bool)
	IndexByUser(userID string) []string
	IndexByConversation(userA, userB string) []string
}

type convKey struct {
	low  string
	high string
}

func conversationKey(a, b string) convKey {
	if a > b {
		a, b = b, a
	}
	return convKey{low: a, high: b}
}

type memoryStore struct {
	byID           map[string]chat.Message
	byUser         map[string][]string
	byConversation map[convKey][]string
}

func NewMemoryStore() Store {
	return &memoryStore{
		byID:           make(map[string]chat.Message),
		byUser:         make(map[string][]string),
		byConversation: make(map[convKey][]string),
	}
}

func (s *memoryStore) Put(m chat.Message) {
	if _, exists := s.byID[m.MessageID]; !exists {
		s.byUser[m.SenderID] = append(s.byUser[m.SenderID], m.MessageID)
		s.byUser[m.ReceiverID] = append(s.byUser[m.ReceiverID], m.MessageID)
		key := conversationKey(m.SenderID, m.ReceiverID)
		s.byConversation[key] = append(s.byConversation[key], m.MessageID)
	}
	s.byID[m.MessageID] = m
}

func (s *memoryStore) ByID(id string) (chat.Message, bool) {
	m, ok := s.byID[id]
	return m, ok
}

func (s *memoryStore) IndexByUser(userID string) []string {
	return s.byUser[userID]
}

func (s *memoryStore) IndexByConversation(userA, userB string) []string {
	return s.byConversation[conversationKey(userA, userB)]
}
