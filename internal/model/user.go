package model

// EmailNotifications holds the per-channel email toggles for a user.
type EmailNotifications struct {
	CourseAnnouncements bool `json:"course_announcements"`
	CourseItems         bool `json:"course_items"`
	Mails               bool `json:"mails"`
}

// DefaultEmailNotifications 默认全部开启
func DefaultEmailNotifications() EmailNotifications {
	return EmailNotifications{
		CourseAnnouncements: true,
		CourseItems:         true,
		Mails:               true,
	}
}

// User is the directory record created at registration. The portal password
// stays recoverable because the scrapers need it to log in; PasswordHash is
// only for API logins and never leaves the database.
type User struct {
	Username                       string             `json:"username"`
	Password                       string             `json:"password"`
	PasswordHash                   string             `json:"-"`
	TodoistToken                   string             `json:"todoist_token"`
	Email                          string             `json:"email"`
	TodoistProjectID               string             `json:"todoist_project_id"`
	CourseSectionIDs               map[string]string  `json:"course_id_to_todoist_section_id"`
	Courses                        []CourseMetadata   `json:"courses"`
	EmailNotifications             EmailNotifications `json:"email_notifications"`
	AddCourseItemsToTodoistEnabled bool               `json:"add_course_items_to_todoist_enabled"`
}
