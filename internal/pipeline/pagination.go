package pipeline

import "workOrders/internal/dashboard/models"

const DefaultPageSize = 15

type Page struct {
	Items      []models.WorkOrder `json:"items"`
	Page       int                `json:"page"`
	From       int                `json:"from"`
	To         int                `json:"to"`
	Total      int                `json:"total"`
	TotalPages int                `json:"totalPages"`
}

func (p Page) HasPrev() bool {
	return p.Page > 1
}

func (p Page) HasNext() bool {
	return p.Page < p.TotalPages
}

// TotalPages never reports fewer than one page so an empty result still
// displays as page 1.
func TotalPages(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (total + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}

// Paginate slices records into the requested page. Out of range page
// numbers are clamped to the first or last page.
func Paginate(records []models.WorkOrder, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(records)
	totalPages := TotalPages(total, size)
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	p := Page{
		Items:      []models.WorkOrder{},
		Page:       page,
		Total:      total,
		TotalPages: totalPages,
	}
	if total == 0 {
		return p
	}

	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	p.Items = records[start:end]
	p.From = start + 1
	p.To = end
	return p
}

// Prev returns the previous page number, staying on page 1.
func Prev(page int) int {
	if page > 1 {
		return page - 1
	}
	return page
}

// Next returns the following page number, staying put at or beyond the
// last page.
func Next(page, totalPages int) int {
	if page < totalPages {
		return page + 1
	}
	return page
}
