package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	mqcontracts "gucnotify/contracts/mq"
	"gucnotify/internal/model"
	"gucnotify/internal/scraper"
	"gucnotify/internal/todoist"
	"gucnotify/internal/util"
)

type fakeDirectory struct {
	upserts []model.User
	byName  map[string]*model.User
}

func (d *fakeDirectory) Upsert(_ context.Context, u *model.User) error {
	d.upserts = append(d.upserts, *u)
	return nil
}

func (d *fakeDirectory) FindByUsername(_ context.Context, username string) (*model.User, error) {
	u, ok := d.byName[username]
	if !ok {
		return nil, errors.New("no rows")
	}
	return u, nil
}

func (d *fakeDirectory) UpdatePreferences(context.Context, string, model.EmailNotifications, bool) error {
	return nil
}

type fakeRegistrationCMS struct {
	courses []model.CourseMetadata
	err     error
	calls   int
}

func (f *fakeRegistrationCMS) GetCourses(context.Context, string, string) ([]model.CourseMetadata, error) {
	f.calls++
	return f.courses, f.err
}

func (f *fakeRegistrationCMS) GetCourseData(context.Context, string, string, string, string) (*scraper.CourseData, error) {
	return &scraper.CourseData{}, nil
}

type countingTodoist struct {
	projects int
	sections int
}

func (f *countingTodoist) AddProject(_ context.Context, name string) (*todoist.Project, error) {
	f.projects++
	return &todoist.Project{ID: "proj-1", Name: name}, nil
}

func (f *countingTodoist) AddSection(_ context.Context, name, projectID string) (*todoist.Section, error) {
	f.sections++
	return &todoist.Section{ID: "sec-" + name, ProjectID: projectID, Name: name}, nil
}

func (f *countingTodoist) AddTask(context.Context, todoist.NewTask) (*todoist.Task, error) {
	return &todoist.Task{ID: "t1"}, nil
}

func validRequest() RegisterRequest {
	return RegisterRequest{
		Username:     "jane.doe",
		Password:     "secret",
		TodoistToken: "tok",
		Email:        "jane@example.com",
	}
}

func TestRegister_ProvisionsAndPublishes(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{}
	cms := &fakeRegistrationCMS{courses: []model.CourseMetadata{
		{ID: "c1", Name: "Databases", Code: "CSEN604", Semester: "W25"},
		{ID: "c2", Name: "Networks", Code: "NETW501", Semester: "W25"},
	}}
	api := &countingTodoist{}
	pub := &recordingPublisher{}
	s := NewRegistration(dir, cms, func(string) todoist.API { return api }, pub, "secret", zap.NewNop())

	result, err := s.Register(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if result.ProjectID != "proj-1" {
		t.Errorf("project id = %q", result.ProjectID)
	}
	if len(result.CourseSectionIDs) != 2 {
		t.Errorf("section map = %v", result.CourseSectionIDs)
	}
	if api.projects != 1 || api.sections != 2 {
		t.Errorf("provisioned %d projects / %d sections, want 1 / 2", api.projects, api.sections)
	}

	if len(dir.upserts) != 1 {
		t.Fatalf("upserts = %d, want 1", len(dir.upserts))
	}
	stored := dir.upserts[0]
	if !stored.EmailNotifications.CourseAnnouncements || !stored.EmailNotifications.CourseItems || !stored.EmailNotifications.Mails {
		t.Errorf("default toggles not all enabled: %+v", stored.EmailNotifications)
	}
	if !stored.AddCourseItemsToTodoistEnabled {
		t.Error("todoist integration not enabled by default")
	}
	if stored.PasswordHash == "" || stored.PasswordHash == stored.Password {
		t.Error("login password not hashed")
	}
	if !util.CheckPassword("secret", stored.PasswordHash) {
		t.Error("stored hash does not verify")
	}

	// 注册成功后立即广播一条 user.sync
	if len(pub.published) != 1 {
		t.Fatalf("published = %d, want 1", len(pub.published))
	}
	payload, ok := pub.published[0].(*mqcontracts.UserSyncPayload)
	if !ok {
		t.Fatalf("published payload type %T", pub.published[0])
	}
	if payload.User.Username != "jane.doe" {
		t.Errorf("published username = %q", payload.User.Username)
	}
	if err := payload.Validate(); err != nil {
		t.Errorf("published payload invalid: %v", err)
	}
}

func TestRegister_MissingFieldTouchesNothing(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{}
	cms := &fakeRegistrationCMS{}
	api := &countingTodoist{}
	pub := &recordingPublisher{}
	s := NewRegistration(dir, cms, func(string) todoist.API { return api }, pub, "secret", zap.NewNop())

	req := validRequest()
	req.Email = ""

	_, err := s.Register(context.Background(), req)
	if !errors.Is(err, ErrMissingFields) {
		t.Fatalf("err = %v, want ErrMissingFields", err)
	}
	if cms.calls != 0 {
		t.Errorf("portal called %d times on invalid request", cms.calls)
	}
	if api.projects != 0 || api.sections != 0 {
		t.Errorf("todoist touched on invalid request: %d/%d", api.projects, api.sections)
	}
	if len(dir.upserts) != 0 {
		t.Errorf("store written on invalid request: %d", len(dir.upserts))
	}
	if len(pub.published) != 0 {
		t.Errorf("published on invalid request: %d", len(pub.published))
	}
}

func TestRegister_InvalidCredentialsDistinct(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{}
	cms := &fakeRegistrationCMS{err: scraper.ErrInvalidCredentials}
	api := &countingTodoist{}
	s := NewRegistration(dir, cms, func(string) todoist.API { return api }, &recordingPublisher{}, "secret", zap.NewNop())

	_, err := s.Register(context.Background(), validRequest())
	if !errors.Is(err, scraper.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if api.projects != 0 {
		t.Errorf("todoist provisioned despite bad portal credentials")
	}
	if len(dir.upserts) != 0 {
		t.Errorf("store written despite bad portal credentials")
	}
}

func TestLoginAndToken(t *testing.T) {
	t.Parallel()

	hash, err := util.HashPassword("secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	dir := &fakeDirectory{byName: map[string]*model.User{
		"jane.doe": {Username: "jane.doe", PasswordHash: hash},
	}}
	s := NewRegistration(dir, &fakeRegistrationCMS{}, func(string) todoist.API { return &countingTodoist{} }, &recordingPublisher{}, "secret", zap.NewNop())

	token, err := s.Login(context.Background(), "jane.doe", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	username, err := util.ParseJWT(token, "secret")
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if username != "jane.doe" {
		t.Errorf("token username = %q", username)
	}

	if _, err := s.Login(context.Background(), "jane.doe", "wrong"); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("wrong password err = %v, want ErrUnknownUser", err)
	}
	if _, err := s.Login(context.Background(), "nobody", "secret"); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("unknown user err = %v, want ErrUnknownUser", err)
	}
}
