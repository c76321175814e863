package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"gucnotify/internal/factstore"
	"gucnotify/internal/metrics"
	"gucnotify/internal/model"
	"gucnotify/internal/scraper"
)

// MailWatcher is the single-stage variant of the pipeline: detection and
// forwarding happen in one pass, no bus in between, because forwarding is
// the only channel for mail.
type MailWatcher struct {
	facts    factstore.Store
	mail     scraper.Mail
	sessions *scraper.SessionCache
	logger   *zap.Logger
}

// NewMailWatcher builds the watcher. sessions may be nil, in which case
// every scrape authenticates from scratch.
func NewMailWatcher(
	facts factstore.Store,
	mail scraper.Mail,
	sessions *scraper.SessionCache,
	logger *zap.Logger,
) *MailWatcher {
	return &MailWatcher{
		facts:    facts,
		mail:     mail,
		sessions: sessions,
		logger:   logger,
	}
}

// ScrapeUser enumerates the user's webmail and forwards every unseen mail
// to the registered address. Toggle off is a clean skip.
func (w *MailWatcher) ScrapeUser(ctx context.Context, user model.User) error {
	if !user.EmailNotifications.Mails {
		w.logger.Debug("Mail notifications disabled, skipping",
			zap.String("username", user.Username),
		)
		return nil
	}

	start := time.Now()
	defer func() {
		metrics.ScrapeDuration.WithLabelValues("mail").Observe(time.Since(start).Seconds())
	}()

	session, err := w.session(ctx, user)
	if err != nil {
		metrics.RecordScrapeError("mail_auth")
		return err
	}

	pages, err := w.mail.CountPages(ctx, session)
	if errors.Is(err, scraper.ErrSessionExpired) {
		// 缓存的 session 失效：重新登录再试一次
		if w.sessions != nil {
			w.sessions.Drop(ctx, user.Username)
		}
		session, err = w.session(ctx, user)
		if err != nil {
			metrics.RecordScrapeError("mail_auth")
			return err
		}
		pages, err = w.mail.CountPages(ctx, session)
	}
	if err != nil {
		metrics.RecordScrapeError("mail_page")
		return err
	}

	for page := 1; page <= pages; page++ {
		mailIDs, err := w.mail.ListMailIDs(ctx, session, page)
		if err != nil {
			metrics.RecordScrapeError("mail_page")
			return err
		}

		for _, mailID := range mailIDs {
			res, err := w.facts.RecordMail(ctx, user.Username, mailID)
			if err != nil {
				return err
			}
			metrics.RecordGateResult("mail", res.String())
			if res == factstore.AlreadyExists {
				continue
			}

			if err := w.mail.Forward(ctx, session, mailID, user.Email); err != nil {
				metrics.RecordScrapeError("forward")
				return err
			}
			metrics.RecordNotificationSent("mail_forward")

			w.logger.Info("Forwarded new mail",
				zap.String("username", user.Username),
				zap.String("mail_id", mailID),
			)
		}
	}
	return nil
}

func (w *MailWatcher) session(ctx context.Context, user model.User) (string, error) {
	if w.sessions != nil {
		if cached := w.sessions.Get(ctx, user.Username); cached != "" {
			return cached, nil
		}
	}

	session, err := w.mail.Authenticate(ctx, user.Username, user.Password)
	if err != nil {
		return "", err
	}
	if w.sessions != nil {
		w.sessions.Put(ctx, user.Username, session)
	}
	return session, nil
}
