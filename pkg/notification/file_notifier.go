package notification

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileNotifier writes notifications to a local file instead of delivering
// them. It exists for development and test setups without a mail relay.
type FileNotifier struct {
	filename string

	mu sync.Mutex
}

// NewFileNotifier creates a FileNotifier appending to the given file.
func NewFileNotifier(filename string) *FileNotifier {
	return &FileNotifier{filename: filename}
}

// Notify appends the message to the notification file.
func (n *FileNotifier) Notify(_ context.Context, recipient, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	file, err := os.OpenFile(n.filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("could not open notification file: %w", err)
	}
	defer file.Close()

	content := fmt.Sprintf("Date: %s\nRecipient: %s\nSubject: %s\n\n%s\n\n", time.Now().Format(time.RFC1123Z), recipient, subject, body)
	if _, err := file.WriteString(content); err != nil {
		return fmt.Errorf("could not write notification: %w", err)
	}
	return nil
}

// VerifyConnection checks the notification file's directory exists and is
// writable by creating the file if necessary.
func (n *FileNotifier) VerifyConnection(_ context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if dir := filepath.Dir(n.filename); dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("notification file directory inaccessible: %w", err)
		}
	}

	file, err := os.OpenFile(n.filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("could not open notification file: %w", err)
	}
	return file.Close()
}
