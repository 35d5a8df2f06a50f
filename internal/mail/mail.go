package mail

import (
	"context"
	"errors"
	"regexp"
)

const (
	ContentTypePlain = "text/plain"
	ContentTypeHTML  = "text/html"
)

var ErrNoRecipients = errors.New("mail: no recipients")

type Message struct {
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	ContentType string   `json:"content_type,omitempty"`
	Recipients  []string `json:"recipients"`
}

// Sender delivers a message, either directly or by queueing it for the mail worker.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var htmlTag = regexp.MustCompile("<[^>]+>")

// bodyType resolves an empty content type by sniffing the body for markup.
func (m Message) bodyType() string {
	switch m.ContentType {
	case ContentTypeHTML, ContentTypePlain:
		return m.ContentType
	}
	if htmlTag.MatchString(m.Body) {
		return ContentTypeHTML
	}
	return ContentTypePlain
}
