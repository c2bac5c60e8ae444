package pipeline

import (
	"workOrders/internal/dashboard/models"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Options collects the distinct selector values of the loaded set:
// hospitals and services ascending, years descending.
func Options(records []models.WorkOrder) models.FilterOptions {
	hospitals := map[string]struct{}{}
	services := map[string]struct{}{}
	years := map[int]struct{}{}
	for _, wo := range records {
		if wo.Hospital != "" {
			hospitals[wo.Hospital] = struct{}{}
		}
		if wo.Services != "" {
			services[wo.Services] = struct{}{}
		}
		if wo.RequestYear != 0 {
			years[wo.RequestYear] = struct{}{}
		}
	}

	opts := models.FilterOptions{
		Hospitals: maps.Keys(hospitals),
		Services:  maps.Keys(services),
		Years:     maps.Keys(years),
	}
	slices.Sort(opts.Hospitals)
	slices.Sort(opts.Services)
	slices.Sort(opts.Years)
	for i, j := 0, len(opts.Years)-1; i < j; i, j = i+1, j-1 {
		opts.Years[i], opts.Years[j] = opts.Years[j], opts.Years[i]
	}
	return opts
}

// Summarize counts all records and the open ones among them.
func Summarize(records []models.WorkOrder) models.Stats {
	stats := models.Stats{Total: len(records)}
	for i := range records {
		if records[i].IsOpen() {
			stats.Open++
		}
	}
	return stats
}
