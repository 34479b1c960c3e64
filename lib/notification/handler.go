package notificationhandler

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"spice-portal-backend/db"
	notificationstore "spice-portal-backend/lib/notification/store"
	"spice-portal-backend/lib/smtp"
	usersstore "spice-portal-backend/lib/users/store"
	initchecker "spice-portal-backend/lib/utils/init-checker"
	connectionhub "spice-portal-backend/lib/ws/hub/connection-hub"
	"spice-portal-backend/models"
	notificationapimodels "spice-portal-backend/models/api/notification"
	dbmodels "spice-portal-backend/models/db"
	wsmodels "spice-portal-backend/models/ws"
)

type Provider interface {
	// NotifyReviewers stores one notification per active administrator
	NotifyReviewers(requestID string, code models.NotificationType, title, message string)
	NotifyUser(userID string, requestID *string, code models.NotificationType, title, message string, byEmail bool)
	ListUnread(userID string) ([]notificationapimodels.NotificationView, error)
	MarkRead(userID, id string) error
	MarkAllRead(userID string) error
}

var Instance Provider

func NewHandler() {
	instance := impl{
		store:      notificationstore.NewInstance(db.DB),
		usersStore: usersstore.NewInstance(db.DB),
		pusher:     connectionhub.Instance,
		mailer:     smtp.Instance,
	}
	initchecker.CheckInit(
		"store", instance.store,
		"usersStore", instance.usersStore,
	)
	Instance = instance
}

type pusher interface {
	SendMessage(msg wsmodels.ServerMessage) bool
}

type impl struct {
	store      notificationstore.Provider
	usersStore usersstore.Provider
	pusher     pusher
	mailer     smtp.Provider
}

func (i impl) getLogger(userID string, code models.NotificationType) *log.Entry {
	return log.
		WithField("user_id", userID).
		WithField("event_code", code)
}

func (i impl) NotifyReviewers(requestID string, code models.NotificationType, title, message string) {
	reviewers, err := i.usersStore.ListByRole(models.AdminRole)
	if err != nil {
		log.
			WithField("approval_request_id", requestID).
			WithError(err).
			Error("error listing reviewers")
		return
	}
	for _, reviewer := range reviewers {
		i.NotifyUser(reviewer.ID, &requestID, code, title, message, false)
	}
}

func (i impl) NotifyUser(userID string, requestID *string, code models.NotificationType, title, message string, byEmail bool) {
	logger := i.getLogger(userID, code)
	rec := dbmodels.Notification{
		UserID:            userID,
		Type:              code,
		Title:             title,
		Message:           message,
		ApprovalRequestID: requestID,
	}
	id, err := i.store.Create(rec)
	if err != nil {
		logger.WithError(err).Error("error saving notification")
		return
	}
	rec.ID = id
	if i.pusher != nil {
		i.pusher.SendMessage(connectionhub.ToServerMessage(rec))
	}
	if byEmail {
		i.sendEmail(logger, userID, title, message)
	}
}

func (i impl) sendEmail(logger *log.Entry, userID, title, message string) {
	if i.mailer == nil {
		return
	}
	user, err := i.usersStore.GetByID(userID)
	if err != nil {
		logger.WithError(err).Error("error getting notification recipient")
		return
	}
	if user == nil || user.Email == "" {
		return
	}
	if err = i.mailer.SendEMail(user.Email, title, message); err != nil {
		logger.WithError(err).Warn("error sending notification e-mail")
	}
}

func (i impl) ListUnread(userID string) ([]notificationapimodels.NotificationView, error) {
	list, err := i.store.ListUnread(userID)
	if err != nil {
		return nil, err
	}
	result := make([]notificationapimodels.NotificationView, 0, len(list))
	for _, rec := range list {
		result = append(result, notificationapimodels.Convert(rec))
	}
	return result, nil
}

func (i impl) MarkRead(userID, id string) error {
	found, err := i.store.MarkRead(userID, id)
	if err != nil {
		return err
	}
	if !found {
		return errors.Wrap(models.ErrNotFound, "notification")
	}
	return nil
}

func (i impl) MarkAllRead(userID string) error {
	count, err := i.store.MarkAllRead(userID)
	if err != nil {
		return err
	}
	i.getLogger(userID, "").WithField("count", count).Debug("notifications marked as read")
	return nil
}
