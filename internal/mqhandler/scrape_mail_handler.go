package mqhandler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	mqcontracts "gucnotify/contracts/mq"
	"gucnotify/internal/service"
)

// ScrapeMailHandler consumes user.sync on its own queue and runs the mail
// watcher. The mail toggle is checked inside the watcher.
type ScrapeMailHandler struct {
	watcher *service.MailWatcher
	logger  *zap.Logger
}

func NewScrapeMailHandler(watcher *service.MailWatcher, logger *zap.Logger) *ScrapeMailHandler {
	return &ScrapeMailHandler{
		watcher: watcher,
		logger:  logger,
	}
}

func (h *ScrapeMailHandler) HandleUserSync(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.UserSyncPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal user sync payload", zap.Error(err))
		return err
	}
	if err := p.Validate(); err != nil {
		h.logger.Error("Invalid user sync payload", zap.Error(err))
		return err
	}

	return h.watcher.ScrapeUser(ctx, p.User)
}
