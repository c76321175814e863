package factstore

import (
	"context"
	"sync"
	"time"

	"gucnotify/internal/model"
)

// MemoryStore is an in-process Store with the same conditional-write
// semantics as the Postgres one. Used by tests and local runs without a
// database.
type MemoryStore struct {
	mu            sync.Mutex
	announcements map[string]string
	items         map[string]struct{}
	mails         map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		announcements: make(map[string]string),
		items:         make(map[string]struct{}),
		mails:         make(map[string]struct{}),
	}
}

func (s *MemoryStore) RecordAnnouncement(_ context.Context, username, courseID, announcement string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := username + "\x00" + courseID
	if prev, ok := s.announcements[key]; ok && prev == announcement {
		return AlreadyExists, nil
	}
	s.announcements[key] = announcement
	return Inserted, nil
}

func (s *MemoryStore) RecordCourseItem(_ context.Context, username string, _ string, _ time.Time, item model.CourseItem) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := username + "\x00" + item.URL
	if _, ok := s.items[key]; ok {
		return AlreadyExists, nil
	}
	s.items[key] = struct{}{}
	return Inserted, nil
}

func (s *MemoryStore) RecordMail(_ context.Context, username, mailID string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := username + "\x00" + mailID
	if _, ok := s.mails[key]; ok {
		return AlreadyExists, nil
	}
	s.mails[key] = struct{}{}
	return Inserted, nil
}
