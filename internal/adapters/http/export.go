package httpadapter

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/projectcompass/compass/internal/core/domain"
)

const (
	exportSheet        = "Inquiries"
	exportDefaultLimit = 1000
	xlsxContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var exportHeaders = []string{
	"ID", "Vendor", "Category", "Type", "Priority", "Status",
	"Assigned To", "Due By", "Created At", "Subject",
}

func (rt *Router) exportInquiries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if filter.Limit == 0 {
		filter.Limit = exportDefaultLimit
	}

	items, err := rt.reader.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	workbook, err := inquiryWorkbook(items)
	if err != nil {
		writeError(w, err)
		return
	}
	defer workbook.Close()

	if rt.serverMetrics != nil {
		rt.serverMetrics.RecordExport(serviceName, len(items))
	}

	filename := "inquiries_" + time.Now().UTC().Format("20060102_150405") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := workbook.Write(w); err != nil {
		slog.Warn("export_write_failed",
			"request_id", requestIDFromContext(r.Context()), "error", err)
	}
}

func inquiryWorkbook(items []domain.Inquiry) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return nil, err
		}
	}

	for row, inq := range items {
		dueBy := ""
		if inq.DueBy != nil {
			dueBy = inq.DueBy.UTC().Format("2006-01-02 15:04")
		}
		values := []any{
			inq.ID,
			inq.VendorName,
			string(inq.Category),
			string(inq.Type),
			string(inq.Priority),
			string(inq.Status),
			inq.AssignedTo,
			dueBy,
			inq.CreatedAt.UTC().Format(time.RFC3339),
			inq.Email.Subject,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(exportSheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}
