package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	mqcontracts "gucnotify/contracts/mq"
	"gucnotify/internal/model"
)

type fakeScanner struct {
	users []model.User
}

func (f *fakeScanner) ScanPage(_ context.Context, after string, limit int) ([]model.User, error) {
	out := []model.User{}
	for _, u := range f.users {
		if u.Username > after {
			out = append(out, u)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func TestPublishAll_PagesThroughEveryUser(t *testing.T) {
	t.Parallel()

	scanner := &fakeScanner{users: []model.User{
		{Username: "a", Password: "p", Email: "a@x"},
		{Username: "b", Password: "p", Email: "b@x"},
		{Username: "c", Password: "p", Email: "c@x"},
		{Username: "d", Password: "p", Email: "d@x"},
		{Username: "e", Password: "p", Email: "e@x"},
	}}
	pub := &recordingPublisher{}
	feed := NewUserFeed(scanner, pub, 2, zap.NewNop())

	published, err := feed.PublishAll(context.Background())
	if err != nil {
		t.Fatalf("publish all: %v", err)
	}
	if published != 5 {
		t.Fatalf("published = %d, want 5", published)
	}
	if len(pub.published) != 5 {
		t.Fatalf("bus received %d messages, want 5", len(pub.published))
	}

	seen := map[string]bool{}
	for _, p := range pub.published {
		payload, ok := p.(*mqcontracts.UserSyncPayload)
		if !ok {
			t.Fatalf("payload type %T", p)
		}
		if err := payload.Validate(); err != nil {
			t.Errorf("payload for %q invalid: %v", payload.User.Username, err)
		}
		if seen[payload.User.Username] {
			t.Errorf("user %q published twice", payload.User.Username)
		}
		seen[payload.User.Username] = true
	}
}

func TestPublishAll_EmptyDirectory(t *testing.T) {
	t.Parallel()

	feed := NewUserFeed(&fakeScanner{}, &recordingPublisher{}, 10, zap.NewNop())
	published, err := feed.PublishAll(context.Background())
	if err != nil {
		t.Fatalf("publish all: %v", err)
	}
	if published != 0 {
		t.Fatalf("published = %d, want 0", published)
	}
}
