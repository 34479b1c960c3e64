package notificationhandler

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"spice-portal-backend/models"
	dbmodels "spice-portal-backend/models/db"
	wsmodels "spice-portal-backend/models/ws"
)

type fakeStore struct {
	items []dbmodels.Notification
}

func (f *fakeStore) Create(rec dbmodels.Notification) (string, error) {
	rec.ID = "n" + string(rune('0'+len(f.items)))
	f.items = append(f.items, rec)
	return rec.ID, nil
}

func (f *fakeStore) ListUnread(userID string) ([]dbmodels.Notification, error) {
	result := []dbmodels.Notification{}
	for _, item := range f.items {
		if item.UserID == userID && !item.IsRead {
			result = append(result, item)
		}
	}
	return result, nil
}

func (f *fakeStore) MarkRead(userID, id string) (bool, error) {
	for idx := range f.items {
		if f.items[idx].ID == id && f.items[idx].UserID == userID {
			f.items[idx].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) MarkAllRead(userID string) (int64, error) {
	var count int64
	for idx := range f.items {
		if f.items[idx].UserID == userID && !f.items[idx].IsRead {
			f.items[idx].IsRead = true
			count++
		}
	}
	return count, nil
}

type fakeUsers struct {
	users []dbmodels.PortalUser
}

func (f fakeUsers) Create(rec dbmodels.PortalUser) (string, error) { return "", nil }

func (f fakeUsers) GetByID(id string) (*dbmodels.PortalUser, error) {
	for _, user := range f.users {
		if user.ID == id {
			return &user, nil
		}
	}
	return nil, nil
}

func (f fakeUsers) GetByEmail(email string) (*dbmodels.PortalUser, error) { return nil, nil }

func (f fakeUsers) Update(id string, updMap map[string]interface{}) error { return nil }

func (f fakeUsers) Delete(id string) error { return nil }

func (f fakeUsers) ListByRole(role models.UserRole) ([]dbmodels.PortalUser, error) {
	result := []dbmodels.PortalUser{}
	for _, user := range f.users {
		if user.Role == role {
			result = append(result, user)
		}
	}
	return result, nil
}

type fakePusher struct {
	sent []wsmodels.ServerMessage
}

func (f *fakePusher) SendMessage(msg wsmodels.ServerMessage) bool {
	f.sent = append(f.sent, msg)
	return true
}

type fakeMailer struct {
	to  []string
	err error
}

func (f *fakeMailer) SendEMail(to, subject, message string) error {
	f.to = append(f.to, to)
	return f.err
}

func newTestHandler() (impl, *fakeStore, *fakePusher, *fakeMailer) {
	store := &fakeStore{}
	push := &fakePusher{}
	mailer := &fakeMailer{}
	users := fakeUsers{users: []dbmodels.PortalUser{
		{BaseModel: dbmodels.BaseModel{ID: "admin-1"}, Role: models.AdminRole, Email: "a1@spice.lk"},
		{BaseModel: dbmodels.BaseModel{ID: "admin-2"}, Role: models.AdminRole, Email: "a2@spice.lk"},
		{BaseModel: dbmodels.BaseModel{ID: "user-1"}, Role: models.UserRoleUser, Email: "u1@spice.lk"},
	}}
	return impl{store: store, usersStore: users, pusher: push, mailer: mailer}, store, push, mailer
}

func TestNotifyReviewers(t *testing.T) {
	h, store, push, mailer := newTestHandler()
	h.NotifyReviewers("req-1", models.NotificationApprovalCreated, "New approval request", "Entrepreneur data edit")

	require.Len(t, store.items, 2)
	for _, item := range store.items {
		require.NotNil(t, item.ApprovalRequestID)
		require.Equal(t, "req-1", *item.ApprovalRequestID)
		require.Equal(t, models.NotificationPriorityHigh, item.Priority())
	}
	require.Len(t, push.sent, 2)
	require.Equal(t, "high", push.sent[0].Priority)
	require.Empty(t, mailer.to)
}

func TestNotifyUser(t *testing.T) {
	t.Run("e-mail is sent when requested", func(t *testing.T) {
		h, store, _, mailer := newTestHandler()
		reqID := "req-2"
		h.NotifyUser("user-1", &reqID, models.NotificationApprovalApproved, "Request approved", "done", true)
		require.Len(t, store.items, 1)
		require.Equal(t, []string{"u1@spice.lk"}, mailer.to)
	})
	t.Run("mail failure does not drop the notification", func(t *testing.T) {
		h, store, push, mailer := newTestHandler()
		mailer.err = errors.New("smtp down")
		h.NotifyUser("user-1", nil, models.NotificationCertificate, "Certificate", "issued", true)
		require.Len(t, store.items, 1)
		require.Len(t, push.sent, 1)
		require.Equal(t, "normal", push.sent[0].Priority)
	})
}

func TestMarkRead(t *testing.T) {
	h, store, _, _ := newTestHandler()
	h.NotifyUser("user-1", nil, models.NotificationCertificate, "one", "", false)
	h.NotifyUser("user-1", nil, models.NotificationCertificate, "two", "", false)

	list, err := h.ListUnread("user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, h.MarkRead("user-1", store.items[0].ID))
	err = h.MarkRead("admin-1", store.items[1].ID)
	require.ErrorIs(t, err, models.ErrNotFound)

	list, err = h.ListUnread("user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, h.MarkAllRead("user-1"))
	list, err = h.ListUnread("user-1")
	require.NoError(t, err)
	require.Empty(t, list)
}
