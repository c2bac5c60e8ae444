package pipeline

import (
	"fmt"
	"testing"

	"workOrders/internal/dashboard/models"
)

func makeOrders(n int) []models.WorkOrder {
	orders := make([]models.WorkOrder, n)
	for i := range orders {
		orders[i] = models.WorkOrder{Id: i + 1, RequestNo: fmt.Sprintf("WO-%03d", i+1)}
	}
	return orders
}

func TestPaginateBounds(t *testing.T) {
	for _, total := range []int{0, 1, 14, 15, 16, 31, 45} {
		orders := makeOrders(total)
		totalPages := TotalPages(total, DefaultPageSize)
		for page := 0; page <= totalPages+1; page++ {
			p := Paginate(orders, page, DefaultPageSize)
			if len(p.Items) > DefaultPageSize {
				t.Errorf("total=%d page=%d: %d items exceed page size", total, page, len(p.Items))
			}
			if !(p.From <= p.To && p.To <= p.Total) {
				t.Errorf("total=%d page=%d: from=%d to=%d total=%d", total, page, p.From, p.To, p.Total)
			}
			if total == 0 && (p.From != 0 || p.To != 0 || p.Total != 0) {
				t.Errorf("empty set must report 0/0/0, got %+v", p)
			}
			if total > 0 && p.To-p.From+1 != len(p.Items) {
				t.Errorf("total=%d page=%d: bounds do not match %d items", total, page, len(p.Items))
			}
		}
	}
}

func TestPaginatePages(t *testing.T) {
	orders := makeOrders(31)

	p := Paginate(orders, 3, DefaultPageSize)
	if p.Page != 3 || p.From != 31 || p.To != 31 || p.TotalPages != 3 {
		t.Errorf("unexpected last page %+v", p)
	}
	if p.HasNext() || !p.HasPrev() {
		t.Errorf("last page navigation flags wrong: %+v", p)
	}

	p = Paginate(orders, 9, DefaultPageSize)
	if p.Page != 3 {
		t.Errorf("page beyond range must clamp to 3, got %d", p.Page)
	}

	empty := Paginate(nil, 1, DefaultPageSize)
	if empty.Page != 1 || empty.TotalPages != 1 || len(empty.Items) != 0 {
		t.Errorf("empty page %+v", empty)
	}
}

func TestPrevNext(t *testing.T) {
	if Prev(1) != 1 {
		t.Errorf("prev below page 1 must be a no-op")
	}
	if Prev(3) != 2 {
		t.Errorf("prev from 3 must be 2")
	}
	if Next(3, 3) != 3 || Next(4, 3) != 4 {
		t.Errorf("next at or beyond the last page must be a no-op")
	}
	if Next(1, 3) != 2 {
		t.Errorf("next from 1 must be 2")
	}
}
