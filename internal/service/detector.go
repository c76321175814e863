package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	mqcontracts "gucnotify/contracts/mq"
	"gucnotify/internal/factstore"
	"gucnotify/internal/mailer"
	"gucnotify/internal/metrics"
	"gucnotify/internal/model"
	"gucnotify/internal/scraper"
)

// Detector pulls the current portal state for one user and turns unseen
// facts into downstream effects. The fact store's conditional write is the
// only mutation and the only dedup in the whole pipeline: everything after
// an Inserted may run at-least-once under bus redelivery.
type Detector struct {
	facts     factstore.Store
	cms       scraper.CMS
	publisher Publisher
	mailer    mailer.Mailer
	logger    *zap.Logger
}

func NewDetector(
	facts factstore.Store,
	cms scraper.CMS,
	publisher Publisher,
	m mailer.Mailer,
	logger *zap.Logger,
) *Detector {
	return &Detector{
		facts:     facts,
		cms:       cms,
		publisher: publisher,
		mailer:    m,
		logger:    logger,
	}
}

// ScrapeUser processes every enrolled course for one user. Courses are
// isolated from each other: one course failing is logged and counted while
// the rest proceed. Only a total failure (or invalid credentials, where
// continuing is pointless) is returned, so the bus redelivers the user.
func (d *Detector) ScrapeUser(ctx context.Context, user model.User) error {
	start := time.Now()
	defer func() {
		metrics.ScrapeDuration.WithLabelValues("cms").Observe(time.Since(start).Seconds())
	}()

	failed := 0
	for _, course := range user.Courses {
		if err := d.scrapeCourse(ctx, user, course); err != nil {
			if errors.Is(err, scraper.ErrInvalidCredentials) {
				return fmt.Errorf("scrape %s: %w", user.Username, err)
			}
			failed++
			metrics.RecordScrapeError("cms_course")
			d.logger.Error("Course scrape failed",
				zap.String("username", user.Username),
				zap.String("course_id", course.ID),
				zap.Error(err),
			)
		}
	}

	if failed > 0 && failed == len(user.Courses) {
		return fmt.Errorf("all %d courses failed for %s", failed, user.Username)
	}
	return nil
}

func (d *Detector) scrapeCourse(ctx context.Context, user model.User, course model.CourseMetadata) error {
	data, err := d.cms.GetCourseData(ctx, user.Username, user.Password, course.ID, course.Semester)
	if err != nil {
		return err
	}

	if user.EmailNotifications.CourseAnnouncements && strings.TrimSpace(data.Announcements) != "" {
		if err := d.handleAnnouncement(ctx, user, course, data.Announcements); err != nil {
			return err
		}
	}

	for _, week := range data.Weeks {
		for _, item := range week.Items {
			if err := d.handleItem(ctx, user, course, week, item); err != nil {
				return err
			}
		}
	}
	return nil
}

// handleAnnouncement gates on (username, course) and mails synchronously on
// Inserted. Announcements bypass the bus: email is their only channel.
func (d *Detector) handleAnnouncement(ctx context.Context, user model.User, course model.CourseMetadata, announcement string) error {
	res, err := d.facts.RecordAnnouncement(ctx, user.Username, course.ID, announcement)
	if err != nil {
		return err
	}
	metrics.RecordGateResult("announcement", res.String())
	if res == factstore.AlreadyExists {
		return nil
	}

	d.logger.Info("New announcement detected",
		zap.String("username", user.Username),
		zap.String("course_id", course.ID),
	)

	if err := d.mailer.SendAnnouncement(user.Email, course, announcement); err != nil {
		return err
	}
	metrics.RecordNotificationSent("announcement_email")
	return nil
}

// handleItem gates on (username, url) and publishes the broadcast envelope
// on Inserted. The consumers decide per channel whether to act.
func (d *Detector) handleItem(ctx context.Context, user model.User, course model.CourseMetadata, week model.Week, item model.CourseItem) error {
	res, err := d.facts.RecordCourseItem(ctx, user.Username, course.ID, week.StartDate, item)
	if err != nil {
		return err
	}
	metrics.RecordGateResult("item", res.String())
	if res == factstore.AlreadyExists {
		return nil
	}

	d.logger.Info("New course item detected",
		zap.String("username", user.Username),
		zap.String("course_id", course.ID),
		zap.String("url", item.URL),
	)

	payload := mqcontracts.CourseItemNewPayload{
		MessageID:   uuid.NewString(),
		User:        user,
		Course:      course,
		Week:        week,
		Item:        item,
		PublishedAt: time.Now(),
	}
	return d.publisher.Publish(mqcontracts.RoutingKeyCourseItemNew, &payload)
}
