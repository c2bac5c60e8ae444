// Package pipeline holds the pure data steps of the dashboard:
// normalize, filter, paginate and export. Nothing here touches the
// network, the cache or the presentation layer.
package pipeline

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"workOrders/internal/dashboard/models"
)

// Column names used by the spreadsheet. The underscore spellings are
// accepted as aliases.
const (
	ColRequestNo   = "REQUEST NO"
	ColHospital    = "HOSPITAL"
	ColRequestDate = "REQUEST DATE"
	ColServices    = "SERVICES"
	ColSubSystem   = "SUB-SYSTEM"
	ColActionPlan  = "ACTION PLAN"
	ColVendor      = "VENDOR"
	ColCost        = "COST"
)

var columnAliases = map[string][]string{
	ColRequestNo:   {ColRequestNo, "REQUEST_NO"},
	ColHospital:    {ColHospital},
	ColRequestDate: {ColRequestDate, "REQUEST_DATE"},
	ColServices:    {ColServices},
	ColSubSystem:   {ColSubSystem, "SUB_SYSTEM"},
	ColActionPlan:  {ColActionPlan, "ACTION_PLAN"},
	ColVendor:      {ColVendor},
	ColCost:        {ColCost},
}

var dateLayouts = []string{"2006-1-2", "2006/1/2"}

var leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Normalize maps raw rows to work orders in input order. Ids are assigned
// 1-based by position. Dates are read as calendar dates in loc; when a date
// is missing or unparseable the year and month of now are used instead.
func Normalize(rows []models.RawRow, now time.Time, loc *time.Location) []models.WorkOrder {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	orders := make([]models.WorkOrder, 0, len(rows))
	for idx, row := range rows {
		wo := models.WorkOrder{
			Id:          idx + 1,
			RequestNo:   field(row, ColRequestNo),
			Hospital:    field(row, ColHospital),
			RequestDate: field(row, ColRequestDate),
			Services:    field(row, ColServices),
			SubSystem:   field(row, ColSubSystem),
			ActionPlan:  field(row, ColActionPlan),
			Vendor:      field(row, ColVendor),
			Cost:        ParseCost(lookup(row, ColCost)),
			RequestYear: now.Year(),
			Month:       int(now.Month()),
			Raw:         row,
		}
		if wo.Hospital == "" {
			wo.Hospital = models.UnknownHospital
		}
		if date, ok := ParseRequestDate(wo.RequestDate, loc); ok {
			wo.RequestYear = date.Year()
			wo.Month = int(date.Month())
		}
		orders = append(orders, wo)
	}
	return orders
}

// ParseRequestDate drops any time component and parses the remaining
// calendar date in loc, so that a date never shifts across midnight.
func ParseRequestDate(value string, loc *time.Location) (time.Time, bool) {
	datePart, _, _ := strings.Cut(strings.TrimSpace(value), "T")
	if datePart == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, datePart, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseCost reads the leading number of v. Anything that does not yield a
// finite, non-negative number becomes 0.
func ParseCost(v any) float64 {
	var cost float64
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		cost = val
	case int:
		cost = float64(val)
	case int64:
		cost = float64(val)
	default:
		s := strings.TrimSpace(stringify(val))
		m := leadingFloat.FindString(s)
		if m == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0
		}
		cost = parsed
	}
	if math.IsNaN(cost) || math.IsInf(cost, 0) || cost < 0 {
		return 0
	}
	return cost
}

func lookup(row models.RawRow, column string) any {
	for _, key := range columnAliases[column] {
		if v, ok := row[key]; ok && !isEmpty(v) {
			return v
		}
	}
	return nil
}

func field(row models.RawRow, column string) string {
	return stringify(lookup(row, column))
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	}
	return false
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
