package mqhandler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	mqcontracts "gucnotify/contracts/mq"
	"gucnotify/internal/model"
	"gucnotify/internal/todoist"
)

type fakeTodoist struct {
	tasks []todoist.NewTask
}

func (f *fakeTodoist) AddProject(_ context.Context, name string) (*todoist.Project, error) {
	return &todoist.Project{ID: "p1", Name: name}, nil
}

func (f *fakeTodoist) AddSection(_ context.Context, name, projectID string) (*todoist.Section, error) {
	return &todoist.Section{ID: "s1", ProjectID: projectID, Name: name}, nil
}

func (f *fakeTodoist) AddTask(_ context.Context, task todoist.NewTask) (*todoist.Task, error) {
	f.tasks = append(f.tasks, task)
	return &todoist.Task{ID: "t1"}, nil
}

type fakeMailer struct {
	items []string
}

func (m *fakeMailer) SendAnnouncement(string, model.CourseMetadata, string) error {
	return nil
}

func (m *fakeMailer) SendCourseItem(_ string, _ model.CourseMetadata, _ model.Week, item model.CourseItem) error {
	m.items = append(m.items, item.URL)
	return nil
}

func envelope(todoistEnabled, itemEmails bool) json.RawMessage {
	p := mqcontracts.CourseItemNewPayload{
		MessageID: "msg-1",
		User: model.User{
			Username:         "jane.doe",
			Password:         "secret",
			TodoistToken:     "tok",
			Email:            "jane@example.com",
			TodoistProjectID: "p1",
			CourseSectionIDs: map[string]string{"c1": "s1"},
			EmailNotifications: model.EmailNotifications{
				CourseAnnouncements: true,
				CourseItems:         itemEmails,
				Mails:               true,
			},
			AddCourseItemsToTodoistEnabled: todoistEnabled,
		},
		Course: model.CourseMetadata{ID: "c1", Name: "Databases", Code: "CSEN604", Semester: "W25"},
		Week:   model.Week{StartDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		Item: model.CourseItem{
			URL:         "https://x/1",
			Title:       "Lecture 1",
			Description: "slides",
			Type:        model.ItemTypeLecture,
		},
		PublishedAt: time.Now(),
	}
	raw, _ := json.Marshal(&p)
	return raw
}

func TestTodoistTaskHandler_CreatesOneTask(t *testing.T) {
	t.Parallel()

	api := &fakeTodoist{}
	h := NewTodoistTaskHandler(func(string) todoist.API { return api }, zap.NewNop())
	h.now = func() time.Time { return time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC) }

	if err := h.HandleCourseItem(context.Background(), envelope(true, true)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(api.tasks) != 1 {
		t.Fatalf("created %d tasks, want 1", len(api.tasks))
	}

	task := api.tasks[0]
	if task.Content != "[Lecture 1](https://x/1)" {
		t.Errorf("task content = %q", task.Content)
	}
	if task.SectionID != "s1" {
		t.Errorf("task section = %q, want mapped s1", task.SectionID)
	}
	if task.DueString != "today" {
		t.Errorf("task due = %q, want today", task.DueString)
	}
	if len(task.Labels) != 1 || task.Labels[0] != "lecture" {
		t.Errorf("task labels = %v", task.Labels)
	}
}

func TestTodoistTaskHandler_ToggleOffIsCleanSkip(t *testing.T) {
	t.Parallel()

	api := &fakeTodoist{}
	h := NewTodoistTaskHandler(func(string) todoist.API { return api }, zap.NewNop())

	// toggle 关闭：跳过且不报错（不会触发重投）
	if err := h.HandleCourseItem(context.Background(), envelope(false, true)); err != nil {
		t.Fatalf("toggle off must not error: %v", err)
	}
	if len(api.tasks) != 0 {
		t.Fatalf("toggle off still created %d tasks", len(api.tasks))
	}
}

func TestEmailNotificationHandler_ChannelsAreIndependent(t *testing.T) {
	t.Parallel()

	// 邮件通知关、Todoist 开：邮件消费者跳过，任务消费者照常
	raw := envelope(true, false)

	m := &fakeMailer{}
	emailH := NewEmailNotificationHandler(m, zap.NewNop())
	if err := emailH.HandleCourseItem(context.Background(), raw); err != nil {
		t.Fatalf("email handler: %v", err)
	}
	if len(m.items) != 0 {
		t.Fatalf("email sent despite toggle off: %v", m.items)
	}

	api := &fakeTodoist{}
	taskH := NewTodoistTaskHandler(func(string) todoist.API { return api }, zap.NewNop())
	if err := taskH.HandleCourseItem(context.Background(), raw); err != nil {
		t.Fatalf("task handler: %v", err)
	}
	if len(api.tasks) != 1 {
		t.Fatalf("task handler created %d tasks, want 1", len(api.tasks))
	}
}

func TestEmailNotificationHandler_SendsWhenEnabled(t *testing.T) {
	t.Parallel()

	m := &fakeMailer{}
	h := NewEmailNotificationHandler(m, zap.NewNop())

	if err := h.HandleCourseItem(context.Background(), envelope(true, true)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(m.items) != 1 || m.items[0] != "https://x/1" {
		t.Fatalf("sent items = %v, want [https://x/1]", m.items)
	}
}

func TestHandlers_RejectInvalidEnvelope(t *testing.T) {
	t.Parallel()

	// 缺关键字段的信封必须响亮地失败
	raw := json.RawMessage(`{"message_id":"m","user_data":{"username":""}}`)

	api := &fakeTodoist{}
	taskH := NewTodoistTaskHandler(func(string) todoist.API { return api }, zap.NewNop())
	if err := taskH.HandleCourseItem(context.Background(), raw); err == nil {
		t.Fatal("task handler accepted invalid envelope")
	}
	if len(api.tasks) != 0 {
		t.Fatalf("invalid envelope still created tasks: %d", len(api.tasks))
	}

	m := &fakeMailer{}
	emailH := NewEmailNotificationHandler(m, zap.NewNop())
	if err := emailH.HandleCourseItem(context.Background(), raw); err == nil {
		t.Fatal("email handler accepted invalid envelope")
	}
}
