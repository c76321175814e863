package mq

import (
	"fmt"
	"time"

	"gucnotify/internal/model"
)

// UserSyncPayload 用户同步事件的 payload：调度器为每个用户广播一条
type UserSyncPayload struct {
	MessageID   string     `json:"message_id"`
	User        model.User `json:"user"`
	PublishedAt time.Time  `json:"published_at"`
}

// Validate fails loudly on envelopes a consumer cannot act on.
func (p *UserSyncPayload) Validate() error {
	if p.User.Username == "" {
		return fmt.Errorf("user sync payload: missing username")
	}
	if p.User.Password == "" {
		return fmt.Errorf("user sync payload: missing password for %q", p.User.Username)
	}
	if p.User.Email == "" {
		return fmt.Errorf("user sync payload: missing email for %q", p.User.Username)
	}
	return nil
}
