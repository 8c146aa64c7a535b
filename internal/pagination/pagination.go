// Package pagination slices an ordered result set into fixed-size pages.
package pagination

// DefaultItemsPerPage is used when a caller passes a non-positive page size.
const DefaultItemsPerPage = 9

// PageState describes the current page of a result set.
type PageState struct {
	CurrentPage  int `json:"current_page"`
	ItemsPerPage int `json:"items_per_page"`
	TotalItems   int `json:"total_items"`
	TotalPages   int `json:"total_pages"`
}

// NewPageState returns a state on page 1 with no items.
func NewPageState(itemsPerPage int) PageState {
	if itemsPerPage <= 0 {
		itemsPerPage = DefaultItemsPerPage
	}
	return PageState{CurrentPage: 1, ItemsPerPage: itemsPerPage}
}

// TotalPagesFor returns ceil(totalItems / itemsPerPage).
func TotalPagesFor(totalItems, itemsPerPage int) int {
	if totalItems <= 0 || itemsPerPage <= 0 {
		return 0
	}
	return (totalItems + itemsPerPage - 1) / itemsPerPage
}

// WithTotal returns s with TotalItems and TotalPages recomputed.
// CurrentPage is left as is, even when it now lies past the last page.
func (s PageState) WithTotal(totalItems int) PageState {
	if totalItems < 0 {
		totalItems = 0
	}
	s.TotalItems = totalItems
	s.TotalPages = TotalPagesFor(totalItems, s.ItemsPerPage)
	return s
}

// InRange reports whether CurrentPage addresses an existing page.
func (s PageState) InRange() bool {
	return s.CurrentPage >= 1 && s.CurrentPage <= s.TotalPages
}

// Range returns the 1-based bounds of the current page for a
// "Showing X-Y of Z" label. Both bounds are 0 when the page is empty.
func (s PageState) Range() (from, to int) {
	if !s.InRange() {
		return 0, 0
	}
	from = (s.CurrentPage-1)*s.ItemsPerPage + 1
	to = min(s.CurrentPage*s.ItemsPerPage, s.TotalItems)
	return from, to
}

// Paginate returns the records on state's current page.
// A page before the first or past the last yields an empty slice.
func Paginate[T any](records []T, state PageState) []T {
	if state.ItemsPerPage <= 0 || state.CurrentPage < 1 || len(records) == 0 {
		return []T{}
	}
	// Compare page indexes before multiplying so huge pages cannot overflow.
	if state.CurrentPage-1 > (len(records)-1)/state.ItemsPerPage {
		return []T{}
	}
	start := (state.CurrentPage - 1) * state.ItemsPerPage
	end := min(start+state.ItemsPerPage, len(records))
	return records[start:end:end]
}
