package mailer

import (
	"gucnotify/internal/model"
)

// Mailer sends the two notification mails the pipeline produces: the
// synchronous announcement mail and the fanned-out course item summary.
type Mailer interface {
	SendAnnouncement(to string, course model.CourseMetadata, announcement string) error
	SendCourseItem(to string, course model.CourseMetadata, week model.Week, item model.CourseItem) error
}
