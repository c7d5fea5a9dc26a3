package storage

import (
	"sync"
	"time"
)

// MessageKind names a long-lived bot message that is edited in place.
type MessageKind string

const (
	MessageQuestion MessageKind = "question"
	MessageTimer    MessageKind = "timer"
)

// Message is a sent bot message that later updates edit.
type Message struct {
	ChatID    int64
	MessageID int
	SentAt    time.Time
}

type messageKey struct {
	chatID int64
	kind   MessageKind
}

// MessageStorage remembers the editable messages of each chat.
type MessageStorage struct {
	mu       sync.RWMutex
	messages map[messageKey]Message
}

func NewMessageStorage() *MessageStorage {
	return &MessageStorage{
		messages: make(map[messageKey]Message),
	}
}

func (s *MessageStorage) Store(chatID int64, kind MessageKind, messageID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[messageKey{chatID, kind}] = Message{
		ChatID:    chatID,
		MessageID: messageID,
		SentAt:    time.Now(),
	}
}

func (s *MessageStorage) Get(chatID int64, kind MessageKind) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[messageKey{chatID, kind}]
	return msg, ok
}

func (s *MessageStorage) Delete(chatID int64, kind MessageKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.messages, messageKey{chatID, kind})
}

// UpsertAndGetPrev stores messageID and returns the message it replaced.
func (s *MessageStorage) UpsertAndGetPrev(chatID int64, kind MessageKind, messageID int) (prev Message, hadPrev bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := messageKey{chatID, kind}
	prev, hadPrev = s.messages[key]

	s.messages[key] = Message{
		ChatID:    chatID,
		MessageID: messageID,
		SentAt:    time.Now(),
	}

	return prev, hadPrev
}
