package pipeline

import (
	"reflect"
	"testing"

	"workOrders/internal/dashboard/models"
)

func testOrders() []models.WorkOrder {
	return []models.WorkOrder{
		{Id: 1, RequestNo: "WO-001", Hospital: "HSA", Services: "BEMS", SubSystem: "Chiller", Vendor: "Acme", RequestYear: 2024, Month: 3},
		{Id: 2, RequestNo: "WO-002", Hospital: "HKL", Services: "FEMS", SubSystem: "Lift", ActionPlan: "Replace motor", RequestYear: 2023, Month: 11},
		{Id: 3, RequestNo: "WO-003", Hospital: "HSA", Services: "FEMS", SubSystem: "Pump", Vendor: "Pumpco", RequestYear: 2024, Month: 11},
		{Id: 4, RequestNo: "WO-004", Hospital: "HKL", Services: "BEMS", SubSystem: "AHU", ActionPlan: "Call VENDOR", RequestYear: 2024, Month: 3},
	}
}

func ids(orders []models.WorkOrder) []int {
	out := []int{}
	for _, wo := range orders {
		out = append(out, wo.Id)
	}
	return out
}

func TestApplyFilters(t *testing.T) {
	cases := []struct {
		name string
		fs   models.FilterState
		want []int
	}{
		{"default selects all", models.DefaultFilterState(), []int{1, 2, 3, 4}},
		{"empty state selects all", models.FilterState{}, []int{1, 2, 3, 4}},
		{"hospital", models.FilterState{Hospital: "HSA"}, []int{1, 3}},
		{"year", models.FilterState{Year: "2024"}, []int{1, 3, 4}},
		{"month", models.FilterState{Month: "11"}, []int{2, 3}},
		{"service", models.FilterState{Service: "BEMS"}, []int{1, 4}},
		{"conjunction", models.FilterState{Hospital: "HKL", Year: "2024", Month: "3", Service: "BEMS"}, []int{4}},
		{"search request no", models.FilterState{Search: "wo-003"}, []int{3}},
		{"search vendor and action plan", models.FilterState{Search: "vendor"}, []int{4}},
		{"search sub system", models.FilterState{Search: "LIFT"}, []int{2}},
		{"non numeric year matches nothing", models.FilterState{Year: "soon"}, []int{}},
		{"no match", models.FilterState{Hospital: "HSA", Search: "motor"}, []int{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ids(ApplyFilters(testOrders(), c.fs))
			if !reflect.DeepEqual(got, c.want) {
				t.Errorf("got %v, want %v", got, c.want)
			}
		})
	}
}

func TestApplyFiltersIsIdempotent(t *testing.T) {
	fs := models.FilterState{Year: "2024", Search: "s"}
	once := ApplyFilters(testOrders(), fs)
	twice := ApplyFilters(once, fs)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("filtering twice changed the result: %v vs %v", ids(once), ids(twice))
	}
	again := ApplyFilters(testOrders(), fs)
	if !reflect.DeepEqual(once, again) {
		t.Errorf("same input produced different output")
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe(models.DefaultFilterState()); got != "(Showing all)" {
		t.Errorf("got %q", got)
	}
	got := Describe(models.FilterState{Hospital: "HSA", Month: "3", Search: "pump"})
	want := `(Hospital: HSA, Month: March, Search: "pump")`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestOptionsAndSummary(t *testing.T) {
	opts := Options(testOrders())
	if !reflect.DeepEqual(opts.Hospitals, []string{"HKL", "HSA"}) {
		t.Errorf("hospitals %v", opts.Hospitals)
	}
	if !reflect.DeepEqual(opts.Years, []int{2024, 2023}) {
		t.Errorf("years must be descending, got %v", opts.Years)
	}
	if !reflect.DeepEqual(opts.Services, []string{"BEMS", "FEMS"}) {
		t.Errorf("services %v", opts.Services)
	}

	stats := Summarize(testOrders())
	if stats.Total != 4 || stats.Open != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}

	blank := append(testOrders(), models.WorkOrder{Id: 5, RequestNo: "WO-005", ActionPlan: "  "})
	if stats := Summarize(blank); stats.Total != 5 || stats.Open != 2 {
		t.Errorf("a blank action plan is not open, got %+v", stats)
	}
}
