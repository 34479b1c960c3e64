package xlsexport

import (
	"bytes"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	approvalapimodels "spice-portal-backend/models/api/approval"
)

type Provider interface {
	ExportApprovalList(list []approvalapimodels.ApprovalView) (*bytes.Buffer, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{}
}

type impl struct{}

var approvalColumns = []column{
	{Title: "Request", Width: 40},
	{Title: "Type", Width: 20},
	{Title: "Target", Width: 45},
	{Title: "Status", Width: 12},
	{Title: "Requested by", Width: 38},
	{Title: "Created", Width: 18},
	{Title: "Decided by", Width: 38},
	{Title: "Decided", Width: 18},
	{Title: "Remarks", Width: 50},
}

func (i impl) ExportApprovalList(list []approvalapimodels.ApprovalView) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Error("error closing xlsx file")
		}
	}()
	sheet := "Approval requests"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, errors.Wrap(err, "error naming xlsx sheet")
	}
	row, err := writeHeader(f, sheet, 0, approvalColumns)
	if err != nil {
		return nil, errors.Wrap(err, "error writing xlsx header")
	}
	if len(list) != 0 {
		if _, err = writeApprovalData(f, sheet, list, row); err != nil {
			return nil, errors.Wrap(err, "error writing xlsx data")
		}
	}
	return f.WriteToBuffer()
}

func writeApprovalData(f *excelize.File, sheet string, list []approvalapimodels.ApprovalView, row int) (int, error) {
	if err := applyDataCellStyle(f, sheet, 1, row+1, len(approvalColumns), len(list)+1); err != nil {
		return row, err
	}
	for _, item := range list {
		row++
		decidedBy := ""
		if item.DecidedBy != nil {
			decidedBy = *item.DecidedBy
		}
		decidedAt := ""
		if item.DecidedAt != nil {
			decidedAt = item.DecidedAt.Format("2006-01-02 15:04")
		}
		values := []interface{}{
			item.RequestName,
			item.TypeName,
			item.RequestedURL,
			string(item.Status),
			item.RequestedBy,
			item.CreatedAt.Format("2006-01-02 15:04"),
			decidedBy,
			decidedAt,
			item.Remarks,
		}
		for idx, value := range values {
			if err := writeColumn(f, sheet, idx+1, row, value); err != nil {
				return row, err
			}
		}
	}
	return row, nil
}
