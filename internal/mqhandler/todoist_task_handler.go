package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	mqcontracts "gucnotify/contracts/mq"
	"gucnotify/internal/metrics"
	"gucnotify/internal/todoist"
)

// TodoistTaskHandler consumes course.item.new and creates one task per
// envelope in the section mapped from the course. There is no idempotence
// key on the remote call: a redelivered envelope creates a duplicate task.
type TodoistTaskHandler struct {
	todoist todoist.Factory
	now     func() time.Time
	logger  *zap.Logger
}

func NewTodoistTaskHandler(factory todoist.Factory, logger *zap.Logger) *TodoistTaskHandler {
	return &TodoistTaskHandler{
		todoist: factory,
		now:     time.Now,
		logger:  logger,
	}
}

func (h *TodoistTaskHandler) HandleCourseItem(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.CourseItemNewPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal course item payload", zap.Error(err))
		return err
	}
	if err := p.Validate(); err != nil {
		h.logger.Error("Invalid course item payload", zap.Error(err))
		return err
	}

	// 用户关掉了 Todoist 集成：干净地跳过，不是错误
	if !p.User.AddCourseItemsToTodoistEnabled {
		h.logger.Debug("Todoist integration disabled, skipping",
			zap.String("username", p.User.Username),
			zap.String("message_id", p.MessageID),
		)
		return nil
	}

	sectionID := p.User.CourseSectionIDs[p.Course.ID]

	api := h.todoist(p.User.TodoistToken)
	task := todoist.NewTask{
		Content:     fmt.Sprintf("[%s](%s)", p.Item.Title, p.Item.URL),
		ProjectID:   p.User.TodoistProjectID,
		SectionID:   sectionID,
		Description: fmt.Sprintf("%s\nAdded on: %s", p.Item.Description, h.now().Format(time.RFC3339)),
		DueString:   "today",
		Labels:      []string{string(p.Item.Type)},
	}

	created, err := api.AddTask(ctx, task)
	if err != nil {
		h.logger.Error("Failed to create todoist task",
			zap.String("username", p.User.Username),
			zap.String("url", p.Item.URL),
			zap.Error(err),
		)
		return err
	}
	metrics.RecordNotificationSent("todoist_task")

	h.logger.Info("Todoist task created",
		zap.String("username", p.User.Username),
		zap.String("task_id", created.ID),
		zap.String("url", p.Item.URL),
	)
	return nil
}
