package pagination

import "sync"

// Controller owns a PageState and applies navigation requests to it.
// The host supplies a scroll-to-top callback, invoked after every
// successful page change; the controller never scrolls anything itself.
type Controller struct {
	mu          sync.Mutex
	state       PageState
	scrollToTop func()
}

// NewController creates a controller on page 1.
func NewController(itemsPerPage int, scrollToTop func()) *Controller {
	return &Controller{state: NewPageState(itemsPerPage), scrollToTop: scrollToTop}
}

// State returns a copy of the current page state.
func (c *Controller) State() PageState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// GoToPage moves to page n. It is a no-op, returning false, when n is
// outside [1, TotalPages].
func (c *Controller) GoToPage(n int) bool {
	c.mu.Lock()
	if n < 1 || n > c.state.TotalPages {
		c.mu.Unlock()
		return false
	}
	c.state.CurrentPage = n
	scroll := c.scrollToTop
	c.mu.Unlock()

	if scroll != nil {
		scroll()
	}
	return true
}

// UpdateTotalPages recomputes TotalPages for a new item count.
// The current page is not clamped; a shrinking result set can leave the
// controller on a page that renders empty until the host navigates back.
func (c *Controller) UpdateTotalPages(totalItems int) PageState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.state.WithTotal(totalItems)
	return c.state
}

// SetPage sets the current page without bounds checks or scrolling.
// Used when restoring a page requested before the total is known.
func (c *Controller) SetPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.CurrentPage = n
}
