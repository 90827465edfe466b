package gtfs

import (
	"fmt"
	"strings"
)

// RawRecord is one CSV data row keyed by header name. A missing key means the
// column was absent from the header; values are already trimmed.
type RawRecord map[string]string

// Route is a routes.txt record that passed the row schema.
type Route struct {
	RouteID        string  `json:"route_id" validate:"required"`
	AgencyID       *string `json:"agency_id,omitempty"`
	RouteShortName string  `json:"route_short_name"`
	RouteLongName  string  `json:"route_long_name"`
	RouteDesc      string  `json:"route_desc"`
	RouteType      int     `json:"route_type"`
	RouteURL       string  `json:"route_url,omitempty" validate:"omitempty,url"`
	RouteColor     string  `json:"route_color,omitempty" validate:"omitempty,gtfscolor"`
	RouteTextColor string  `json:"route_text_color,omitempty" validate:"omitempty,gtfscolor"`
	RouteSortOrder *int    `json:"route_sort_order,omitempty" validate:"omitempty,min=0"`
}

// Agency returns agency_id or "" when the row had none.
func (r Route) Agency() string {
	if r.AgencyID == nil {
		return ""
	}
	return *r.AgencyID
}

// FieldError is a single failed field constraint.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// ValidationError records a rejected row, or for blob failures the raw input
// fragment that could not be parsed.
type ValidationError struct {
	Row      int          `json:"row,omitempty"` // 1-based data row, 0 for blob failures
	Record   RawRecord    `json:"record,omitempty"`
	RawInput string       `json:"raw_input,omitempty"`
	Fields   []FieldError `json:"fields,omitempty"`
	Details  string       `json:"details,omitempty"`
}

func (e ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Details
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, strings.Join(msgs, "; "))
}

// ProcessedResult is the outcome of loading one routes.txt blob.
type ProcessedResult struct {
	Routes            []Route           `json:"data"`
	Errors            []ValidationError `json:"errors"`
	Success           bool              `json:"success"`
	SourceDescription string            `json:"source_description"`
}
