package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"workOrders/internal/dashboard/models"
)

var csvHeader = []string{"REQUEST NO", "HOSPITAL", "DATE", "SERVICES", "SUB-SYSTEM", "ACTION PLAN", "VENDOR", "COST"}

type ExportEmptyError struct {
	text string
}

func (e *ExportEmptyError) Error() string {
	return e.text
}

func NewExportEmptyError() *ExportEmptyError {
	return &ExportEmptyError{text: "No data to export"}
}

// ToCSV serializes records with every data field double quoted.
func ToCSV(records []models.WorkOrder) (string, error) {
	if len(records) == 0 {
		return "", NewExportEmptyError()
	}

	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(csvHeader, ","))
	for _, wo := range records {
		cells := []string{
			wo.RequestNo,
			wo.Hospital,
			wo.RequestDate,
			wo.Services,
			wo.SubSystem,
			wo.ActionPlan,
			wo.Vendor,
			formatCost(wo.Cost),
		}
		for i, cell := range cells {
			cells[i] = quote(cell)
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, "\n"), nil
}

// formatCost leaves a zero cost blank, like any other missing field.
func formatCost(cost float64) string {
	if cost == 0 {
		return ""
	}
	return strconv.FormatFloat(cost, 'f', -1, 64)
}

func quote(cell string) string {
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}

// ExportFilename names the download after the UTC calendar date.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("work-orders-%s.csv", now.UTC().Format(time.DateOnly))
}
