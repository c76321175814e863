package mqhandler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	mqcontracts "gucnotify/contracts/mq"
	"gucnotify/internal/service"
)

// ScrapeCMSHandler consumes user.sync and runs the change detector for the
// user carried in the message.
type ScrapeCMSHandler struct {
	detector *service.Detector
	logger   *zap.Logger
}

func NewScrapeCMSHandler(detector *service.Detector, logger *zap.Logger) *ScrapeCMSHandler {
	return &ScrapeCMSHandler{
		detector: detector,
		logger:   logger,
	}
}

func (h *ScrapeCMSHandler) HandleUserSync(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.UserSyncPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal user sync payload", zap.Error(err))
		return err
	}
	if err := p.Validate(); err != nil {
		h.logger.Error("Invalid user sync payload", zap.Error(err))
		return err
	}

	h.logger.Info("Scraping CMS for user",
		zap.String("username", p.User.Username),
		zap.String("message_id", p.MessageID),
		zap.Int("courses", len(p.User.Courses)),
	)

	return h.detector.ScrapeUser(ctx, p.User)
}
