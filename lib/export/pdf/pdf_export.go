package pdfexport

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	approvalapimodels "spice-portal-backend/models/api/approval"
)

type CertificateData struct {
	Number          string
	CertificateName string
	BusinessName    string
	BusinessRegNo   string
	HolderName      string
	ProfileKind     string
	IssuedAt        time.Time
}

func newDocument(orientation string) (*fpdf.Fpdf, func(string) string) {
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetAuthor("Spice Portal", true)
	pdf.SetCreator("Spice Portal", true)
	return pdf, pdf.UnicodeTranslatorFromDescriptor("")
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	if pdf.Error() != nil {
		return nil, pdf.Error()
	}
	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func GenerateCertificate(data CertificateData) (pdfFile []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("GenerateCertificate panic recover: %v", r)
		}
	}()
	pdf, tr := newDocument("L")
	pdf.SetTitle(data.CertificateName, true)
	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()

	// frame
	pdf.SetLineWidth(1.5)
	pdf.SetDrawColor(139, 69, 19)
	pdf.Rect(10, 10, pageW-20, pageH-20, "D")
	pdf.SetLineWidth(0.4)
	pdf.Rect(14, 14, pageW-28, pageH-28, "D")

	pdf.SetY(32)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.CellFormat(0, 12, tr(data.CertificateName), "", 1, "C", false, 0, "")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 8, tr("This is to certify that"), "", 1, "C", false, 0, "")
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 12, tr(data.BusinessName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 13)
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("Registration No. %s", data.BusinessRegNo)), "", 1, "C", false, 0, "")
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 14)
	body := fmt.Sprintf("is registered with the Spice Portal as %s", data.ProfileKind)
	if data.HolderName != "" {
		body = fmt.Sprintf("represented by %s, %s", data.HolderName, body)
	}
	pdf.MultiCell(0, 8, tr(body), "", "C", false)

	pdf.SetY(pageH - 45)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat((pageW-40)/2, 6, tr(fmt.Sprintf("Certificate No. %s", data.Number)), "", 0, "L", false, 0, "")
	pdf.CellFormat((pageW-40)/2, 6, tr(fmt.Sprintf("Issued on %s", data.IssuedAt.Format("02 January 2006"))), "", 1, "R", false, 0, "")
	return output(pdf)
}

var approvalReportHeaders = []string{"Request", "Type", "Status", "Requested by", "Created", "Decided", "Remarks"}

var approvalReportWidths = []float64{60, 32, 22, 40, 28, 28, 67}

// GenerateApprovalReport landscape table of approval requests
func GenerateApprovalReport(list []approvalapimodels.ApprovalView, generatedAt time.Time) (pdfFile []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("GenerateApprovalReport panic recover: %v", r)
		}
	}()
	pdf, tr := newDocument("L")
	pdf.SetTitle("Approval requests", true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Approval requests", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s, %d requests", generatedAt.Format("2006-01-02 15:04"), len(list)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for idx, header := range approvalReportHeaders {
			pdf.CellFormat(approvalReportWidths[idx], 7, header, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}
	writeHeader()
	_, pageH := pdf.GetPageSize()
	for _, item := range list {
		if pdf.GetY() > pageH-25 {
			pdf.AddPage()
			writeHeader()
		}
		decided := ""
		if item.DecidedAt != nil {
			decided = item.DecidedAt.Format("2006-01-02")
		}
		row := []string{
			item.RequestName,
			item.TypeName,
			string(item.Status),
			item.RequestedBy,
			item.CreatedAt.Format("2006-01-02"),
			decided,
			item.Remarks,
		}
		for idx, value := range row {
			pdf.CellFormat(approvalReportWidths[idx], 6, tr(truncate(pdf, value, approvalReportWidths[idx]-2)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	return output(pdf)
}

func truncate(pdf *fpdf.Fpdf, value string, width float64) string {
	if pdf.GetStringWidth(value) <= width {
		return value
	}
	runes := []rune(value)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
