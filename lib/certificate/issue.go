package certificatehandler

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	approvalbuilder "spice-portal-backend/lib/approval-request/builder"
	pdfexport "spice-portal-backend/lib/export/pdf"
	"spice-portal-backend/models"
	dbmodels "spice-portal-backend/models/db"
)

// issueAction serves /api/certificate/issue, one certificate per recipient profile
type issueAction struct {
	handler impl
}

func (a issueAction) Invoke(ctx context.Context, tx *gorm.DB, payload map[string]any) error {
	return a.handler.issue(ctx, tx, payload)
}

func (i impl) issue(ctx context.Context, tx *gorm.DB, payload map[string]any) error {
	certificateType, recipientIDs, err := approvalbuilder.IssuanceParams(payload)
	if err != nil {
		return err
	}
	requestID, _ := payload[approvalbuilder.ApprovalRequestIDKey].(string)
	logger := log.
		WithField("approval_request_id", requestID).
		WithField("certificate_type", certificateType)
	certificateName, err := i.certificateName(certificateType)
	if err != nil {
		return err
	}
	profiles, err := i.recipients(tx, recipientIDs)
	if err != nil {
		return err
	}
	issuedAt := i.now().UTC()
	for _, profile := range profiles {
		number := i.newNumber(issuedAt)
		body, err := i.render(ctx, pdfexport.CertificateData{
			Number:          number,
			CertificateName: certificateName,
			BusinessName:    profile.BusinessName,
			BusinessRegNo:   profile.BusinessRegNo,
			HolderName:      holderName(profile),
			ProfileKind:     profile.Kind.ToHuman(),
			IssuedAt:        issuedAt,
		})
		if err != nil {
			return errors.Wrapf(err, "error rendering certificate for profile %s", profile.ID)
		}
		key := fileKey(number)
		if err = i.storage.UploadFile(ctx, key, body, "application/pdf"); err != nil {
			return err
		}
		_, err = i.certStore(tx).Create(dbmodels.Certificate{
			Number:            number,
			CertificateTypeID: certificateType,
			ProfileID:         profile.ID,
			FileKey:           key,
			IssuedAt:          issuedAt,
			ApprovalRequestID: requestID,
		})
		if err != nil {
			return err
		}
		notification := dbmodels.Notification{
			UserID:  profile.UserID,
			Type:    models.NotificationCertificate,
			Title:   "Certificate issued",
			Message: fmt.Sprintf("%s %s was issued to %s", certificateName, number, profile.BusinessName),
		}
		if requestID != "" {
			notification.ApprovalRequestID = &requestID
		}
		if _, err = i.notifications(tx).Create(notification); err != nil {
			return errors.Wrap(err, "error saving certificate notification")
		}
		logger.
			WithField("profile_id", profile.ID).
			WithField("number", number).
			Info("certificate issued")
	}
	return nil
}

func (i impl) render(ctx context.Context, data pdfexport.CertificateData) ([]byte, error) {
	if !i.slots.Acquire(ctx) {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "rendering slot not acquired")
		}
		return nil, errors.New("rendering is stopped")
	}
	defer i.slots.Release()
	return pdfexport.GenerateCertificate(data)
}

func holderName(profile dbmodels.RoleProfile) string {
	if profile.User == nil {
		return ""
	}
	return profile.User.FullName
}
