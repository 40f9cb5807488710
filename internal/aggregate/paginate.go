// ABOUTME: Page window math for paginated views.
// ABOUTME: A per-page of zero or less returns every row on one page.
package aggregate

// Page describes one window over a list.
type Page struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
	Start      int `json:"start"`
	End        int `json:"end"`
}

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool { return p.Page < p.TotalPages }

// Paginate computes the [Start, End) window of page over n items. perPage <= 0
// shows everything on one page; page is clamped into range.
func Paginate(n, page, perPage int) Page {
	if n < 0 {
		n = 0
	}
	if perPage <= 0 {
		perPage = n
	}
	totalPages := 1
	if perPage > 0 && n > 0 {
		totalPages = (n + perPage - 1) / perPage
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := 0
	end := n
	if perPage > 0 {
		start = (page - 1) * perPage
		end = start + perPage
		if end > n {
			end = n
		}
	}
	return Page{Page: page, PerPage: perPage, TotalItems: n, TotalPages: totalPages, Start: start, End: end}
}

// Window slices list to the page window.
func Window[T any](list []T, p Page) []T {
	if p.Start >= len(list) {
		return []T{}
	}
	end := p.End
	if end > len(list) {
		end = len(list)
	}
	return list[p.Start:end]
}
