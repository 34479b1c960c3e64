package connectionhub

import (
	"time"

	dbmodels "spice-portal-backend/models/db"
	wsmodels "spice-portal-backend/models/ws"
)

func ToServerMessage(rec dbmodels.Notification) wsmodels.ServerMessage {
	return wsmodels.ServerMessage{
		ToUserID: rec.UserID,
		ID:       rec.ID,
		Time:     rec.CreatedAt.Format(time.RFC3339),
		Code:     string(rec.Type),
		Title:    rec.Title,
		Msg:      rec.Message,
		Priority: string(rec.Priority()),
	}
}
