package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"gucnotify/internal/model"
)

// UserRepository is the user directory: one row per username, overwritten
// on re-registration. Course list, section mapping and toggles live in
// jsonb columns since they travel as one document with the user.
type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert writes the full user record, replacing any previous registration.
func (r *UserRepository) Upsert(ctx context.Context, u *model.User) error {
	courses, err := json.Marshal(u.Courses)
	if err != nil {
		return fmt.Errorf("marshal courses: %w", err)
	}
	sections, err := json.Marshal(u.CourseSectionIDs)
	if err != nil {
		return fmt.Errorf("marshal section map: %w", err)
	}
	toggles, err := json.Marshal(u.EmailNotifications)
	if err != nil {
		return fmt.Errorf("marshal notification toggles: %w", err)
	}

	query := `
        INSERT INTO users (
            username, password, password_hash, todoist_token, email,
            todoist_project_id, course_section_ids, courses,
            email_notifications, todoist_enabled, created_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
        ON CONFLICT (username) DO UPDATE SET
            password = EXCLUDED.password,
            password_hash = EXCLUDED.password_hash,
            todoist_token = EXCLUDED.todoist_token,
            email = EXCLUDED.email,
            todoist_project_id = EXCLUDED.todoist_project_id,
            course_section_ids = EXCLUDED.course_section_ids,
            courses = EXCLUDED.courses,
            email_notifications = EXCLUDED.email_notifications,
            todoist_enabled = EXCLUDED.todoist_enabled
    `
	_, err = r.db.Exec(ctx, query,
		u.Username,
		u.Password,
		u.PasswordHash,
		u.TodoistToken,
		u.Email,
		u.TodoistProjectID,
		sections,
		courses,
		toggles,
		u.AddCourseItemsToTodoistEnabled,
	)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", u.Username, err)
	}
	return nil
}

// FindByUsername returns a single user record.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `
        SELECT username, password, password_hash, todoist_token, email,
               todoist_project_id, course_section_ids, courses,
               email_notifications, todoist_enabled
        FROM users
        WHERE username = $1
    `
	return r.scanUser(r.db.QueryRow(ctx, query, username))
}

// ScanPage returns up to limit users with username after the cursor,
// ordered by username. An empty cursor starts from the beginning. The
// caller pages until fewer than limit rows come back.
func (r *UserRepository) ScanPage(ctx context.Context, after string, limit int) ([]model.User, error) {
	query := `
        SELECT username, password, password_hash, todoist_token, email,
               todoist_project_id, course_section_ids, courses,
               email_notifications, todoist_enabled
        FROM users
        WHERE username > $1
        ORDER BY username
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, after, limit)
	if err != nil {
		return nil, fmt.Errorf("scan users page: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan users page: %w", err)
	}
	return users, nil
}

// UpdatePreferences rewrites only the notification toggles.
func (r *UserRepository) UpdatePreferences(ctx context.Context, username string, toggles model.EmailNotifications, todoistEnabled bool) error {
	data, err := json.Marshal(toggles)
	if err != nil {
		return fmt.Errorf("marshal notification toggles: %w", err)
	}

	query := `
        UPDATE users
        SET email_notifications = $1, todoist_enabled = $2
        WHERE username = $3
    `
	_, err = r.db.Exec(ctx, query, data, todoistEnabled, username)
	if err != nil {
		return fmt.Errorf("update preferences for %s: %w", username, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	var sections, courses, toggles []byte

	err := row.Scan(
		&u.Username,
		&u.Password,
		&u.PasswordHash,
		&u.TodoistToken,
		&u.Email,
		&u.TodoistProjectID,
		&sections,
		&courses,
		&toggles,
		&u.AddCourseItemsToTodoistEnabled,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(sections, &u.CourseSectionIDs); err != nil {
		return nil, fmt.Errorf("unmarshal section map: %w", err)
	}
	if err := json.Unmarshal(courses, &u.Courses); err != nil {
		return nil, fmt.Errorf("unmarshal courses: %w", err)
	}
	if err := json.Unmarshal(toggles, &u.EmailNotifications); err != nil {
		return nil, fmt.Errorf("unmarshal notification toggles: %w", err)
	}
	return &u, nil
}
