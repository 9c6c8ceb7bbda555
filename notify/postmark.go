// Package notify implements the outbound message senders used by the auth
// flows. The Postmark sender delivers transactional mail in production, the
// dev sender writes messages to disk for local inspection.
package notify

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/mrz1836/postmark"
)

// PostmarkSender delivers messages through Postmark's transactional API.
type PostmarkSender struct {
	client *postmark.Client
	config Config
}

// NewPostmarkSender builds a Postmark backed sender. Both tokens and the
// sender address have to be set up front so a misconfigured service fails at
// boot instead of at first send.
func NewPostmarkSender(cfg Config) (*PostmarkSender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &PostmarkSender{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		config: cfg,
	}, nil
}

// MustNewPostmarkSender panics on invalid config.
func MustNewPostmarkSender(cfg Config) *PostmarkSender {
	sender, err := NewPostmarkSender(cfg)
	if err != nil {
		panic(err)
	}
	return sender
}

func (s *PostmarkSender) Send(ctx context.Context, recipient, subject, body string) error {
	replyTo := s.config.ReplyToEmail
	if replyTo == "" {
		replyTo = s.config.SenderEmail
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.config.SenderEmail,
		ReplyTo:  replyTo,
		To:       recipient,
		Subject:  subject,
		TextBody: body,
		Tag:      s.config.Tag,
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "postmark send failed").
			WithTextCode("NOTIFY_SEND_FAILED")
	}

	if resp.ErrorCode > 0 {
		return goerrors.New("postmark rejected message", goerrors.CategoryOperation).
			WithTextCode("NOTIFY_SEND_FAILED").
			WithMetadata(map[string]any{
				"error_code": resp.ErrorCode,
				"message":    resp.Message,
			})
	}

	return nil
}
