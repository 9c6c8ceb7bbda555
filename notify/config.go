package notify

import (
	goerrors "github.com/goliatone/go-errors"
)

// Config holds delivery settings for the Postmark sender.
type Config struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail  string `env:"NOTIFY_SENDER_EMAIL"`
	ReplyToEmail string `env:"NOTIFY_REPLY_TO_EMAIL"`
	Tag          string `env:"NOTIFY_TAG" envDefault:"auth"`
}

func (c Config) Validate() error {
	if c.ServerToken == "" {
		return goerrors.New("postmark server token is required", goerrors.CategoryValidation)
	}
	if c.AccountToken == "" {
		return goerrors.New("postmark account token is required", goerrors.CategoryValidation)
	}
	if c.SenderEmail == "" {
		return goerrors.New("sender email is required", goerrors.CategoryValidation)
	}
	return nil
}
