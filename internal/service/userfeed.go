package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	mqcontracts "gucnotify/contracts/mq"
	"gucnotify/internal/model"
)

// UserScanner pages through the user directory. Satisfied by
// repository.UserRepository.
type UserScanner interface {
	ScanPage(ctx context.Context, after string, limit int) ([]model.User, error)
}

// UserFeed is the scheduling trigger's work: page-scan the user directory
// and broadcast one user.sync message per user. Both scrape consumers bind
// to that key and each get their own copy.
type UserFeed struct {
	users     UserScanner
	publisher Publisher
	pageSize  int
	logger    *zap.Logger
}

func NewUserFeed(users UserScanner, publisher Publisher, pageSize int, logger *zap.Logger) *UserFeed {
	return &UserFeed{
		users:     users,
		publisher: publisher,
		pageSize:  pageSize,
		logger:    logger,
	}
}

// PublishAll walks every user and publishes a sync message for each.
// Returns the number of users published.
func (f *UserFeed) PublishAll(ctx context.Context) (int, error) {
	published := 0
	cursor := ""

	for {
		users, err := f.users.ScanPage(ctx, cursor, f.pageSize)
		if err != nil {
			return published, fmt.Errorf("scan users: %w", err)
		}
		if len(users) == 0 {
			break
		}

		for _, u := range users {
			payload := mqcontracts.UserSyncPayload{
				MessageID:   uuid.NewString(),
				User:        u,
				PublishedAt: time.Now(),
			}
			if err := f.publisher.Publish(mqcontracts.RoutingKeyUserSync, &payload); err != nil {
				return published, fmt.Errorf("publish user %s: %w", u.Username, err)
			}
			published++
		}

		cursor = users[len(users)-1].Username
		if len(users) < f.pageSize {
			break
		}
	}

	f.logger.Info("Published user sync batch", zap.Int("users", published))
	return published, nil
}
