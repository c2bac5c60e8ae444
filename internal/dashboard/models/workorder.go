package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	// All disables a selector in FilterState.
	All = "all"

	UnknownHospital = "Unknown Hospital"
)

// RawRow is one row as returned by the remote spreadsheet API.
type RawRow map[string]any

type WorkOrder struct {
	Id          int       `json:"id"`
	RequestNo   string    `json:"requestNo"`
	Hospital    string    `json:"hospital"`
	RequestDate string    `json:"requestDate"`
	Services    string    `json:"services"`
	SubSystem   string    `json:"subSystem"`
	ActionPlan  string    `json:"actionPlan"`
	Vendor      string    `json:"vendor"`
	Cost        float64   `json:"cost"`
	RequestYear int       `json:"requestYear"`
	Month       int       `json:"month"`
	Updated     time.Time `json:"updated,omitempty"`
	Raw         RawRow    `json:"raw,omitempty"`
}

// IsOpen reports whether the work order still lacks an action plan. A plan
// made of blanks, as the backend may send it, still counts as a plan.
func (w *WorkOrder) IsOpen() bool {
	return w.ActionPlan == ""
}

func (w WorkOrder) String() string {
	return fmt.Sprintf(
		`Id: %d,
RequestNo: %s,
Hospital: %s,
RequestDate: %s,
Services: %s,
Cost: %v,
Open: %v
`, w.Id, w.RequestNo, w.Hospital, w.RequestDate, w.Services, w.Cost, w.IsOpen())
}

// PendingUpdate is an action plan saved while offline. Entries are appended
// and only removed by an explicit replay.
type PendingUpdate struct {
	Id         string    `json:"id,omitempty" bson:"id,omitempty"`
	RequestNo  string    `json:"request_no" bson:"request_no"`
	ActionPlan string    `json:"action_plan" bson:"action_plan"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
}

type FilterState struct {
	Hospital string `json:"hospital"`
	Year     string `json:"year"`
	Month    string `json:"month"`
	Service  string `json:"service"`
	Search   string `json:"search"`
}

// DefaultFilterState selects everything.
func DefaultFilterState() FilterState {
	return FilterState{Hospital: All, Year: All, Month: All, Service: All}
}

// Normalized maps empty selectors to All.
func (f FilterState) Normalized() FilterState {
	for _, v := range []*string{&f.Hospital, &f.Year, &f.Month, &f.Service} {
		if strings.TrimSpace(*v) == "" {
			*v = All
		}
	}
	return f
}

func (f FilterState) IsDefault() bool {
	return f.Normalized() == DefaultFilterState()
}

type FilterOptions struct {
	Hospitals []string `json:"hospitals"`
	Years     []int    `json:"years"`
	Services  []string `json:"services"`
}

type Stats struct {
	Total int `json:"total"`
	Open  int `json:"open"`
}
