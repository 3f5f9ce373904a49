package regulation

import (
	"context"
	"fmt"
	"time"
)

// Attempt is one record of the append-only authentication attempt log.
type Attempt struct {
	Username   string    `json:"username"`
	Successful bool      `json:"successful"`
	Time       time.Time `json:"time"`
}

// Store persists authentication attempts. AppendAttempt is append-only;
// LoadAttempts returns the attempts for a username recorded at or after
// since, ordered newest first.
type Store interface {
	AppendAttempt(ctx context.Context, attempt Attempt) error
	LoadAttempts(ctx context.Context, username string, since time.Time) ([]Attempt, error)
}

// BannedError is returned by Regulate while a ban is in effect.
type BannedError struct {
	Until time.Time
}

func (e *BannedError) Error() string {
	return fmt.Sprintf("user is banned until %s", e.Until.Format(time.RFC3339))
}
