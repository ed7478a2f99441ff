package menu

import (
	"context"
	"errors"

	"github.com/HerbHall/storefront/internal/params"
	"github.com/HerbHall/storefront/pkg/models"
)

// Status is the menu screen state. Loading, error and empty are distinct
// states so a client never has to infer them from the data.
type Status string

const (
	StatusLoading         Status = "loading"
	StatusReady           Status = "ready"
	StatusEmpty           Status = "empty"
	StatusNotFound        Status = "not_found"
	StatusLocationError   Status = "location_error"
	StatusAssignmentError Status = "assignment_error"
	StatusProductError    Status = "product_error"
)

// Failed reports whether s is an error status.
func (s Status) Failed() bool {
	switch s {
	case StatusNotFound, StatusLocationError, StatusAssignmentError, StatusProductError:
		return true
	}
	return false
}

// View is the derived menu for one slug and state.
type View struct {
	Status   Status           `json:"status"`
	Slug     string           `json:"slug"`
	Location *models.Location `json:"location,omitempty"`
	Query    string           `json:"query"`
	State    params.State     `json:"-"`
	Items    []models.Product `json:"items"`

	// FilteredCount is len(Items). Pagination.TotalCount is the server's
	// count and ignores the assignment and dietary refinements.
	FilteredCount int        `json:"filtered_count"`
	Pagination    Pagination `json:"pagination"`

	Error     string `json:"error,omitempty"`
	Retryable bool   `json:"retryable"`
}

func newView(slug string, s params.State) View {
	return View{
		Status:     StatusLoading,
		Slug:       slug,
		Query:      s.QueryString(),
		State:      s,
		Items:      []models.Product{},
		Pagination: Paginate(0, s.Page.PageSize, s.Page.CurrentPage),
	}
}

// statusFor maps a pipeline error to its screen status.
func statusFor(err error) Status {
	switch {
	case errors.Is(err, ErrLocationNotFound):
		return StatusNotFound
	case errors.Is(err, ErrLocationFetch):
		return StatusLocationError
	case errors.Is(err, ErrAssignmentFetch):
		return StatusAssignmentError
	default:
		return StatusProductError
	}
}

func (v View) withError(err error) View {
	v.Status = statusFor(err)
	v.Error = err.Error()
	// Every fetch failure offers a retry, including backend 4xx answers.
	v.Retryable = v.Status != StatusNotFound && !errors.Is(err, context.Canceled)
	return v
}
