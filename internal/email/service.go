package email

import (
	"context"
	"errors"
	"fmt"
)

// Service composes messages from named templates and hands them to a Sender.
type Service struct {
	renderer Renderer
	sender   Sender
	from     Address
}

func NewService(renderer Renderer, sender Sender, from Address) *Service {
	return &Service{
		renderer: renderer,
		sender:   sender,
		from:     from,
	}
}

// Send renders the subject, text and html elements of the named template
// and sends the resulting message to the recipient. The html element is
// optional, messages without one are sent as plain text only.
func (s *Service) Send(ctx context.Context, name string, recipient Address, data any) error {
	subject, err := s.renderer.Render(ctx, name, ElementSubject, data)
	if err != nil {
		return fmt.Errorf("failed to render subject: %w", err)
	}

	text, err := s.renderer.Render(ctx, name, ElementText, data)
	if err != nil {
		return fmt.Errorf("failed to render text body: %w", err)
	}

	html, err := s.renderer.Render(ctx, name, ElementHTML, data)
	if err != nil && !errors.Is(err, ErrNoElement) {
		return fmt.Errorf("failed to render html body: %w", err)
	}

	return s.sender.Send(ctx, Message{
		From:    s.from,
		To:      recipient,
		Subject: subject,
		Text:    text,
		HTML:    html,
	})
}
