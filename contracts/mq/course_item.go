package mq

import (
	"fmt"
	"time"

	"gucnotify/internal/model"
)

// CourseItemNewPayload is the envelope broadcast for every newly detected
// course item. It carries the full user record plus the course, week and
// item data so consumers can act without further lookups.
type CourseItemNewPayload struct {
	MessageID   string               `json:"message_id"`
	User        model.User           `json:"user_data"`
	Course      model.CourseMetadata `json:"course_data"`
	Week        model.Week           `json:"week_data"`
	Item        model.CourseItem     `json:"item_data"`
	PublishedAt time.Time            `json:"published_at"`
}

// Validate fails loudly on envelopes a consumer cannot act on.
func (p *CourseItemNewPayload) Validate() error {
	if p.User.Username == "" {
		return fmt.Errorf("course item payload: missing username")
	}
	if p.User.Email == "" {
		return fmt.Errorf("course item payload: missing email for %q", p.User.Username)
	}
	if p.Course.ID == "" {
		return fmt.Errorf("course item payload: missing course id")
	}
	if p.Item.URL == "" {
		return fmt.Errorf("course item payload: missing item url")
	}
	if p.Item.Title == "" {
		return fmt.Errorf("course item payload: missing item title")
	}
	return nil
}
