package connectionhub

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	log "github.com/sirupsen/logrus"
	"spice-portal-backend/db"
	notificationstore "spice-portal-backend/lib/notification/store"
	wsmodels "spice-portal-backend/models/ws"
)

type Provider interface {
	AddClient(userID string, conn *websocket.Conn)
	DeleteClient(userID string, conn *websocket.Conn)
	// SendMessage returns false when the user has no open connection
	SendMessage(msg wsmodels.ServerMessage) bool
	IsConnected(userID string) bool
}

var Instance Provider

func Init() {
	Instance = newHub(notificationstore.NewInstance(db.DB))
}

func newHub(store notificationstore.Provider) *impl {
	return &impl{
		clients: map[string]clientSession{},
		store:   store,
	}
}

type impl struct {
	mu      sync.RWMutex
	clients map[string]clientSession // map[userID]
	store   notificationstore.Provider
}

func (i *impl) DeleteClient(userID string, conn *websocket.Conn) {
	i.mu.Lock()
	defer i.mu.Unlock()
	sess, ok := i.clients[userID]
	// a newer connection of the same user replaced this one
	if !ok || (conn != nil && sess.conn != conn) {
		return
	}
	delete(i.clients, userID)
	sess.stop()
}

func (i *impl) AddClient(userID string, conn *websocket.Conn) {
	i.mu.Lock()
	if oldSess, ok := i.clients[userID]; ok {
		oldSess.stop()
	}
	i.clients[userID] = newSession(conn)
	i.mu.Unlock()
	go i.sendUnread(userID)
}

func (i *impl) SendMessage(msg wsmodels.ServerMessage) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	sess, ok := i.clients[msg.ToUserID]
	if !ok {
		return false
	}
	select {
	case sess.sendCh <- msg:
		return true
	default:
		log.WithField("user_id", msg.ToUserID).Warn("ws send buffer full, message dropped")
		return false
	}
}

func (i *impl) IsConnected(userID string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	sess, ok := i.clients[userID]
	return ok && sess.conn != nil && sess.conn.Conn != nil
}

// sendUnread pushes stored unread notifications to a freshly connected user
func (i *impl) sendUnread(userID string) {
	if i.store == nil {
		return
	}
	logger := log.WithField("user_id", userID)
	list, err := i.store.ListUnread(userID)
	if err != nil {
		logger.WithError(err).Error("error listing unread notifications")
		return
	}
	for idx := len(list) - 1; idx >= 0; idx-- {
		if !i.IsConnected(userID) {
			return
		}
		i.SendMessage(ToServerMessage(list[idx]))
	}
}
