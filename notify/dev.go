package notify

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// DevSender writes each message to a directory as a text body plus a JSON
// metadata file instead of delivering it. Meant for local development.
type DevSender struct {
	dir string
}

// NewDevSender returns a sender that saves messages under dir. The directory
// is created on first send.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

type devMessageMeta struct {
	Timestamp string `json:"timestamp"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
}

func (d *DevSender) Send(ctx context.Context, recipient, subject, body string) error {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to create message directory")
	}

	now := time.Now()
	base := now.Format("2006_01_02_150405") + "_" + sanitizeFilename(subject)

	if err := os.WriteFile(filepath.Join(d.dir, base+".txt"), []byte(body), 0644); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to write message body")
	}

	meta, err := json.MarshalIndent(devMessageMeta{
		Timestamp: now.Format(time.RFC3339),
		Recipient: recipient,
		Subject:   subject,
	}, "", "  ")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to marshal message metadata")
	}

	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), meta, 0644); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to write message metadata")
	}

	return nil
}

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = sanitizeRegex.ReplaceAllString(s, "")

	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}

	if s == "" {
		s = "message"
	}

	return strings.ToLower(s)
}
