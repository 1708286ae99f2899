package generate_excel

import (
	"context"
	"log/slog"
	"mime"
	"net/http"

	"atelier/internal/lib/api/response"
	"atelier/internal/lib/logger/sl"
)

type GenerateExcelHandler interface {
	GenerateExcel(ctx context.Context, orderID int64) ([]byte, string, error)
}

func GenerateReportExcel(log *slog.Logger, gen GenerateExcelHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.generate-report.GenerateReportExcel"

		log := log.With(slog.String("op", op))

		orderID, err := response.IDParam(r, "id")
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		excelBytes, fileName, err := gen.GenerateExcel(r.Context(), orderID)
		if err != nil {
			response.Error(w, r, log.With(slog.Int64("order_id", orderID)), err)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
		if _, err := w.Write(excelBytes); err != nil {
			log.Warn("failed to write excel response", sl.Err(err))
		}
	}
}
