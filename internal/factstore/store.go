// Package factstore is the dedup gate: it records that an external fact
// (an announcement, a course item, a mail id) has been observed, using a
// single conditional write per key. A rejected write is not an error, it is
// the ordinary "already handled" branch.
package factstore

import (
	"context"
	"time"

	"gucnotify/internal/model"
)

// Result is the outcome of a conditional write.
type Result int

const (
	// Inserted means the fact was unseen and is now recorded; the caller
	// owns the downstream side effect.
	Inserted Result = iota
	// AlreadyExists means another write (possibly a racing one) got there
	// first; the caller must do nothing.
	AlreadyExists
)

func (r Result) String() string {
	if r == Inserted {
		return "inserted"
	}
	return "already_exists"
}

// Store is the conditional-write contract. Implementations must make each
// call a single atomic write so that concurrent calls for the same key see
// exactly one Inserted.
type Store interface {
	// RecordAnnouncement keys on (username, courseID). Unlike the other
	// kinds the stored content may be replaced: different content yields
	// Inserted again, identical content yields AlreadyExists.
	RecordAnnouncement(ctx context.Context, username, courseID, announcement string) (Result, error)

	// RecordCourseItem keys on (username, item.URL).
	RecordCourseItem(ctx context.Context, username string, courseID string, weekStart time.Time, item model.CourseItem) (Result, error)

	// RecordMail keys on (username, mailID).
	RecordMail(ctx context.Context, username, mailID string) (Result, error)
}
