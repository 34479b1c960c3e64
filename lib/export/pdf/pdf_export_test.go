package pdfexport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"spice-portal-backend/models"
	approvalapimodels "spice-portal-backend/models/api/approval"
)

func TestGenerateCertificate(t *testing.T) {
	body, err := GenerateCertificate(CertificateData{
		Number:          "SPC-2026-0A1B2C3D",
		CertificateName: "Organic Certification",
		BusinessName:    "Ceylon Spices (Pvt) Ltd",
		BusinessRegNo:   "PV-1001",
		HolderName:      "Nimal Perera",
		ProfileKind:     "Exporter",
		IssuedAt:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(body[:4]))
}

func TestGenerateApprovalReport(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		body, err := GenerateApprovalReport(nil, time.Now())
		require.NoError(t, err)
		require.Equal(t, "%PDF", string(body[:4]))
	})
	t.Run("many rows span pages", func(t *testing.T) {
		list := make([]approvalapimodels.ApprovalView, 0, 80)
		for idx := 0; idx < 80; idx++ {
			list = append(list, approvalapimodels.ApprovalView{
				RequestName: "Entrepreneur data edit with a rather long request name that will not fit",
				TypeName:    models.ApprovalTypeEditData.ToHuman(),
				Status:      models.ApprovalStatusPending,
				RequestedBy: "user-1",
				CreatedAt:   time.Now(),
			})
		}
		body, err := GenerateApprovalReport(list, time.Now())
		require.NoError(t, err)
		require.Equal(t, "%PDF", string(body[:4]))
	})
}
