package email

import (
	"context"
	"errors"
)

// TemplateElement is used by a renderer to identify the different parts of an email template.
type TemplateElement string

const (
	ElementSubject TemplateElement = "subject"
	ElementText    TemplateElement = "text"
	ElementHTML    TemplateElement = "html"
)

// ErrNoElement indicates a template does not define the requested element.
var ErrNoElement = errors.New("template element not defined")

// Message is a single email message. Text is the plain text body,
// HTML is an optional HTML alternative.
type Message struct {
	From    Address
	To      Address
	Subject string
	Text    string
	HTML    string
}

// Renderer is responsible for rendering email templates.
type Renderer interface {
	Render(ctx context.Context, name string, element TemplateElement, data any) (string, error)
}

// Sender is responsible for actually sending an email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
