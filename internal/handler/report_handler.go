package handler

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/firewise/fireedu-api/internal/service"
	"github.com/firewise/fireedu-api/pkg/logger"
)

var reportHeaders = []string{
	"ID", "Пользователь", "Email", "Роль", "Организация", "Очки", "Минут обучения",
	"Пре-тест", "Пре-тест (макс.)", "Пост-тест", "Пост-тест (макс.)", "Прирост, п.п.", "Пост-тест сдан",
}

// ReportHandler отдает административные выгрузки
type ReportHandler struct {
	reportService *service.ReportService
	log           *logger.Logger
}

// NewReportHandler создает новый обработчик отчетов
func NewReportHandler(reportService *service.ReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		log:           log.With("component", "ReportHandler"),
	}
}

// ExportAssessments выгружает результаты пре-/пост-тестов в CSV или Excel
// GET /api/admin/reports/assessments?format=csv|xlsx
func (h *ReportHandler) ExportAssessments(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}

	rows, err := h.reportService.AssessmentReport(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	filename := fmt.Sprintf("assessments_%s", time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
		if err := writeAssessmentXLSX(c.Writer, rows); err != nil {
			h.log.Error("failed to write xlsx report", "error", err)
		}
	default:
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))
		if err := writeAssessmentCSV(c.Writer, rows); err != nil {
			h.log.Error("failed to write csv report", "error", err)
		}
	}
}

// writeAssessmentCSV пишет отчет в CSV с BOM для корректного UTF-8 в Excel
func writeAssessmentCSV(w io.Writer, rows []service.AssessmentReportRow) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	writer := csv.NewWriter(bw)
	if err := writer.Write(reportHeaders); err != nil {
		return err
	}
	for _, r := range rows {
		record := reportRecord(r)
		line := make([]string, len(record))
		for i, v := range record {
			line[i] = fmt.Sprint(v)
		}
		if err := writer.Write(line); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

// writeAssessmentXLSX пишет отчет в Excel через StreamWriter
func writeAssessmentXLSX(w io.Writer, rows []service.AssessmentReportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Результаты"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	headers := make([]interface{}, len(reportHeaders))
	for i, h := range reportHeaders {
		headers[i] = h
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return err
	}

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, reportRecord(r)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

// reportRecord формирует строку отчета; пустые значения для несданных тестов
func reportRecord(r service.AssessmentReportRow) []interface{} {
	improvement := ""
	if delta, ok := r.Improvement(); ok {
		improvement = strconv.Itoa(delta)
	}
	completedAt := ""
	if r.PostTestCompletedAt != nil {
		completedAt = r.PostTestCompletedAt.UTC().Format(time.RFC3339)
	}
	return []interface{}{
		r.UserID,
		sanitizeForExcel(r.Username),
		sanitizeForExcel(r.Email),
		r.Role,
		sanitizeForExcel(r.Organization),
		r.EngagementPoints,
		r.TotalTimeSpentMinutes,
		optionalInt(r.PreTestScore),
		optionalInt(r.PreTestMaxScore),
		optionalInt(r.PostTestScore),
		optionalInt(r.PostTestMaxScore),
		improvement,
		completedAt,
	}
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
