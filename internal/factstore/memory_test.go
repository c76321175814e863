package factstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"gucnotify/internal/model"
)

func TestRecordCourseItem_InsertedThenAlreadyExists(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	item := model.CourseItem{URL: "https://cms.example/item/1", Title: "Lecture 1", Type: model.ItemTypeLecture}

	res, err := store.RecordCourseItem(ctx, "u1", "c1", time.Now(), item)
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	if res != Inserted {
		t.Fatalf("first record = %v, want Inserted", res)
	}

	res, err = store.RecordCourseItem(ctx, "u1", "c1", time.Now(), item)
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if res != AlreadyExists {
		t.Fatalf("second record = %v, want AlreadyExists", res)
	}

	// 不同用户不受影响
	res, err = store.RecordCourseItem(ctx, "u2", "c1", time.Now(), item)
	if err != nil {
		t.Fatalf("other user record: %v", err)
	}
	if res != Inserted {
		t.Fatalf("other user record = %v, want Inserted", res)
	}
}

func TestRecordAnnouncement_ContentChangeRetriggers(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	res, err := store.RecordAnnouncement(ctx, "u1", "c1", "midterm on monday")
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	if res != Inserted {
		t.Fatalf("first record = %v, want Inserted", res)
	}

	// identical content is a no-op
	res, err = store.RecordAnnouncement(ctx, "u1", "c1", "midterm on monday")
	if err != nil {
		t.Fatalf("same content: %v", err)
	}
	if res != AlreadyExists {
		t.Fatalf("same content = %v, want AlreadyExists", res)
	}

	// changed content re-triggers
	res, err = store.RecordAnnouncement(ctx, "u1", "c1", "midterm moved to friday")
	if err != nil {
		t.Fatalf("changed content: %v", err)
	}
	if res != Inserted {
		t.Fatalf("changed content = %v, want Inserted", res)
	}
}

func TestRecordMail_RaceYieldsSingleInserted(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	const callers = 32
	var wg sync.WaitGroup
	results := make(chan Result, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := store.RecordMail(ctx, "u1", "mail-42")
			if err != nil {
				t.Errorf("record mail: %v", err)
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)

	inserted := 0
	for res := range results {
		if res == Inserted {
			inserted++
		}
	}
	if inserted != 1 {
		t.Fatalf("got %d Inserted results under race, want exactly 1", inserted)
	}
}

func TestResultString(t *testing.T) {
	t.Parallel()

	if Inserted.String() != "inserted" {
		t.Errorf("Inserted.String() = %q", Inserted.String())
	}
	if AlreadyExists.String() != "already_exists" {
		t.Errorf("AlreadyExists.String() = %q", AlreadyExists.String())
	}
}
