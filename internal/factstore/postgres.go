package factstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gucnotify/internal/model"
)

// PostgresStore implements Store on top of single-statement conditional
// inserts. RowsAffected() == 0 is the AlreadyExists signal, never an error.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// RecordAnnouncement upserts, but only when the stored content differs.
// The WHERE clause on the conflict update makes "same content again" land
// on zero affected rows, which is the no-op branch.
func (s *PostgresStore) RecordAnnouncement(ctx context.Context, username, courseID, announcement string) (Result, error) {
	query := `
        INSERT INTO course_announcements (username, course_id, announcement, created_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (username, course_id) DO UPDATE
        SET announcement = EXCLUDED.announcement, created_at = NOW()
        WHERE course_announcements.announcement <> EXCLUDED.announcement
    `
	tag, err := s.db.Exec(ctx, query, username, courseID, announcement)
	if err != nil {
		return AlreadyExists, fmt.Errorf("record announcement for %s/%s: %w", username, courseID, err)
	}
	if tag.RowsAffected() == 0 {
		return AlreadyExists, nil
	}
	return Inserted, nil
}

// RecordCourseItem inserts the item fingerprint plus enough metadata to
// debug a stored fact later. Once written the row is never touched again.
func (s *PostgresStore) RecordCourseItem(ctx context.Context, username string, courseID string, weekStart time.Time, item model.CourseItem) (Result, error) {
	query := `
        INSERT INTO course_items (username, url, title, description, item_type, course_id, week_start_date, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        ON CONFLICT (username, url) DO NOTHING
    `
	tag, err := s.db.Exec(ctx, query,
		username,
		item.URL,
		item.Title,
		item.Description,
		string(item.Type),
		courseID,
		weekStart,
	)
	if err != nil {
		return AlreadyExists, fmt.Errorf("record course item %s for %s: %w", item.URL, username, err)
	}
	if tag.RowsAffected() == 0 {
		return AlreadyExists, nil
	}
	return Inserted, nil
}

func (s *PostgresStore) RecordMail(ctx context.Context, username, mailID string) (Result, error) {
	query := `
        INSERT INTO mails (username, mail_id, created_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (username, mail_id) DO NOTHING
    `
	tag, err := s.db.Exec(ctx, query, username, mailID)
	if err != nil {
		return AlreadyExists, fmt.Errorf("record mail %s for %s: %w", mailID, username, err)
	}
	if tag.RowsAffected() == 0 {
		return AlreadyExists, nil
	}
	return Inserted, nil
}
