package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	mqcontracts "gucnotify/contracts/mq"
	"gucnotify/internal/model"
	"gucnotify/internal/scraper"
	"gucnotify/internal/todoist"
	"gucnotify/internal/util"
)

// ErrMissingFields marks a registration request without the required
// username/password/todoist_token/email.
var ErrMissingFields = errors.New("missing required fields")

// ErrUnknownUser is returned on login/preference calls for usernames that
// never registered.
var ErrUnknownUser = errors.New("unknown user")

// RegisterRequest carries the registration input. Optional toggles default
// to enabled when absent.
type RegisterRequest struct {
	Username                       string                    `json:"username"`
	Password                       string                    `json:"password"`
	TodoistToken                   string                    `json:"todoist_token"`
	Email                          string                    `json:"email"`
	EmailNotifications             *model.EmailNotifications `json:"email_notifications,omitempty"`
	AddCourseItemsToTodoistEnabled *bool                     `json:"add_course_items_to_todoist_enabled,omitempty"`
}

// RegisterResult is the success payload: the provisioned Todoist project
// and the course→section mapping.
type RegisterResult struct {
	ProjectID        string            `json:"project_id"`
	CourseSectionIDs map[string]string `json:"course_id_to_todoist_section_id"`
}

// UserDirectory is the slice of the user repository the registration flow
// needs. Satisfied by repository.UserRepository.
type UserDirectory interface {
	Upsert(ctx context.Context, u *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	UpdatePreferences(ctx context.Context, username string, toggles model.EmailNotifications, todoistEnabled bool) error
}

// Registration provisions a user: verifies portal credentials, creates the
// Todoist project with one section per course, stores the user record and
// publishes an immediate sync so the first scrape does not wait for the
// scheduler. Re-registration overwrites the previous record.
type Registration struct {
	users     UserDirectory
	cms       scraper.CMS
	todoist   todoist.Factory
	publisher Publisher
	jwtSecret string
	logger    *zap.Logger
}

func NewRegistration(
	users UserDirectory,
	cms scraper.CMS,
	todoistFactory todoist.Factory,
	publisher Publisher,
	jwtSecret string,
	logger *zap.Logger,
) *Registration {
	return &Registration{
		users:     users,
		cms:       cms,
		todoist:   todoistFactory,
		publisher: publisher,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

func (s *Registration) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if req.Username == "" || req.Password == "" || req.TodoistToken == "" || req.Email == "" {
		return nil, ErrMissingFields
	}

	// 先验证门户账号：凭证无效时不碰任何外部资源
	courses, err := s.cms.GetCourses(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	api := s.todoist(req.TodoistToken)
	project, err := api.AddProject(ctx, "GUC")
	if err != nil {
		return nil, fmt.Errorf("provision todoist project: %w", err)
	}

	sections := make(map[string]string, len(courses))
	for _, course := range courses {
		section, err := api.AddSection(ctx, course.Name, project.ID)
		if err != nil {
			return nil, fmt.Errorf("provision section for course %s: %w", course.ID, err)
		}
		sections[course.ID] = section.ID
	}

	hash, err := util.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	toggles := model.DefaultEmailNotifications()
	if req.EmailNotifications != nil {
		toggles = *req.EmailNotifications
	}
	todoistEnabled := true
	if req.AddCourseItemsToTodoistEnabled != nil {
		todoistEnabled = *req.AddCourseItemsToTodoistEnabled
	}

	user := model.User{
		Username:                       req.Username,
		Password:                       req.Password,
		PasswordHash:                   hash,
		TodoistToken:                   req.TodoistToken,
		Email:                          req.Email,
		TodoistProjectID:               project.ID,
		CourseSectionIDs:               sections,
		Courses:                        courses,
		EmailNotifications:             toggles,
		AddCourseItemsToTodoistEnabled: todoistEnabled,
	}

	if err := s.users.Upsert(ctx, &user); err != nil {
		return nil, err
	}

	payload := mqcontracts.UserSyncPayload{
		MessageID:   uuid.NewString(),
		User:        user,
		PublishedAt: time.Now(),
	}
	if err := s.publisher.Publish(mqcontracts.RoutingKeyUserSync, &payload); err != nil {
		return nil, fmt.Errorf("publish initial sync for %s: %w", user.Username, err)
	}

	s.logger.Info("User registered",
		zap.String("username", user.Username),
		zap.Int("courses", len(courses)),
		zap.String("todoist_project_id", project.ID),
	)

	return &RegisterResult{
		ProjectID:        project.ID,
		CourseSectionIDs: sections,
	}, nil
}

// Login checks the stored bcrypt hash and returns a JWT.
func (s *Registration) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", ErrUnknownUser
	}
	if !util.CheckPassword(password, u.PasswordHash) {
		return "", ErrUnknownUser
	}
	return util.GenerateJWT(u.Username, s.jwtSecret)
}

// Me returns the stored record for an authenticated user.
func (s *Registration) Me(ctx context.Context, username string) (*model.User, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, ErrUnknownUser
	}
	return u, nil
}

// UpdatePreferences rewrites the notification toggles only.
func (s *Registration) UpdatePreferences(ctx context.Context, username string, toggles model.EmailNotifications, todoistEnabled bool) error {
	if _, err := s.users.FindByUsername(ctx, username); err != nil {
		return ErrUnknownUser
	}
	return s.users.UpdatePreferences(ctx, username, toggles, todoistEnabled)
}
