package models

// Status strings returned to callers.
const (
	StatusAdded       = "added"
	StatusEdited      = "edited"
	StatusDeleted     = "deleted"
	StatusTypeChanged = "type changed"
	StatusCreated     = "created"

	StatusAllSucceeded   = "all succeeded"
	StatusPartialSuccess = "partial success"
)

// MutationResult is the payload of a successful single-value mutation.
type MutationResult struct {
	Status string `json:"status"`
}

// BulkResult reports per-element outcomes of a bulk call. Errors holds one
// "<value>: <code>" entry per failed element, in input order.
type BulkResult struct {
	Status    string   `json:"status"`
	Succeeded []string `json:"succeeded"`
	Errors    []string `json:"errors,omitempty"`
}

// Page selects a window of items. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Normalize clamps the page into the supported range.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the zero-based index of the first row of the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// ItemPage is one page of non-deleted items.
type ItemPage struct {
	Items   []*ListItem
	Page    int
	Size    int
	HasMore bool
}
