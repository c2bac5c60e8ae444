package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"workOrders/internal/dashboard/models"
)

// ApplyFilters keeps the records matching every active selector and the
// search term. The relative order of records is preserved.
func ApplyFilters(records []models.WorkOrder, fs models.FilterState) []models.WorkOrder {
	fs = fs.Normalized()

	year, yearOk := selectedNumber(fs.Year)
	month, monthOk := selectedNumber(fs.Month)
	term := strings.ToLower(fs.Search)

	filtered := make([]models.WorkOrder, 0, len(records))
	for _, wo := range records {
		if fs.Hospital != models.All && wo.Hospital != fs.Hospital {
			continue
		}
		if fs.Year != models.All && (!yearOk || wo.RequestYear != year) {
			continue
		}
		if fs.Month != models.All && (!monthOk || wo.Month != month) {
			continue
		}
		if fs.Service != models.All && wo.Services != fs.Service {
			continue
		}
		if term != "" && !matchesSearch(&wo, term) {
			continue
		}
		filtered = append(filtered, wo)
	}
	return filtered
}

func selectedNumber(value string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	return n, err == nil
}

func matchesSearch(wo *models.WorkOrder, term string) bool {
	for _, v := range []string{wo.RequestNo, wo.Hospital, wo.Services, wo.SubSystem, wo.Vendor, wo.ActionPlan} {
		if v != "" && strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

// Describe renders the active filters for the "showing" line of the
// dashboard.
func Describe(fs models.FilterState) string {
	fs = fs.Normalized()
	active := []string{}
	if fs.Hospital != models.All {
		active = append(active, "Hospital: "+fs.Hospital)
	}
	if fs.Year != models.All {
		active = append(active, "Year: "+fs.Year)
	}
	if fs.Month != models.All {
		if m, ok := selectedNumber(fs.Month); ok && m >= 1 && m <= 12 {
			active = append(active, "Month: "+time.Month(m).String())
		} else {
			active = append(active, "Month: "+fs.Month)
		}
	}
	if fs.Service != models.All {
		active = append(active, "Service: "+fs.Service)
	}
	if fs.Search != "" {
		active = append(active, fmt.Sprintf("Search: %q", fs.Search))
	}
	if len(active) == 0 {
		return "(Showing all)"
	}
	return "(" + strings.Join(active, ", ") + ")"
}
