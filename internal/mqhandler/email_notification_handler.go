package mqhandler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	mqcontracts "gucnotify/contracts/mq"
	"gucnotify/internal/mailer"
	"gucnotify/internal/metrics"
)

// EmailNotificationHandler consumes course.item.new and mails a summary to
// the user. Same redelivery caveat as the task handler: no idempotence key,
// a redelivered envelope means a duplicate mail.
type EmailNotificationHandler struct {
	mailer mailer.Mailer
	logger *zap.Logger
}

func NewEmailNotificationHandler(m mailer.Mailer, logger *zap.Logger) *EmailNotificationHandler {
	return &EmailNotificationHandler{
		mailer: m,
		logger: logger,
	}
}

func (h *EmailNotificationHandler) HandleCourseItem(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.CourseItemNewPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal course item payload", zap.Error(err))
		return err
	}
	if err := p.Validate(); err != nil {
		h.logger.Error("Invalid course item payload", zap.Error(err))
		return err
	}

	// 用户关掉了条目邮件通知：干净地跳过，不是错误
	if !p.User.EmailNotifications.CourseItems {
		h.logger.Debug("Course item emails disabled, skipping",
			zap.String("username", p.User.Username),
			zap.String("message_id", p.MessageID),
		)
		return nil
	}

	if err := h.mailer.SendCourseItem(p.User.Email, p.Course, p.Week, p.Item); err != nil {
		h.logger.Error("Failed to send course item email",
			zap.String("username", p.User.Username),
			zap.String("url", p.Item.URL),
			zap.Error(err),
		)
		return err
	}
	metrics.RecordNotificationSent("item_email")

	h.logger.Info("Course item email sent",
		zap.String("username", p.User.Username),
		zap.String("url", p.Item.URL),
	)
	return nil
}
