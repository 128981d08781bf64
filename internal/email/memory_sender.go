package email

import "context"

// MemorySender is a Sender that keeps sent messages in memory.
// It's used in tests.
type MemorySender struct {
	Messages []Message
}

func NewMemorySender() *MemorySender {
	return &MemorySender{}
}

func (s *MemorySender) Send(_ context.Context, msg Message) error {
	s.Messages = append(s.Messages, msg)
	return nil
}
