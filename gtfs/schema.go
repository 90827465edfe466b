package gtfs

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// routes.txt column names
const (
	ColRouteID        = "route_id"
	ColAgencyID       = "agency_id"
	ColRouteShortName = "route_short_name"
	ColRouteLongName  = "route_long_name"
	ColRouteDesc      = "route_desc"
	ColRouteType      = "route_type"
	ColRouteURL       = "route_url"
	ColRouteColor     = "route_color"
	ColRouteTextColor = "route_text_color"
	ColRouteSortOrder = "route_sort_order"
)

var colorPattern = regexp.MustCompile(`^[0-9A-F]{6}$`)

// decimalPattern admits plain decimal notation only; hex, Inf and NaN forms are rejected.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

var (
	schemaOnce     sync.Once
	routeValidator *validator.Validate
)

// schema returns the shared validator with Route's json names and the
// gtfscolor rule registered.
func schema() *validator.Validate {
	schemaOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("gtfscolor", func(fl validator.FieldLevel) bool {
			return colorPattern.MatchString(fl.Field().String())
		})
		routeValidator = v
	})
	return routeValidator
}

// ValidateRoute coerces a raw record into a Route. Each field stops at its
// first failing rule; failures of different fields are all reported.
func ValidateRoute(raw RawRecord) (Route, []FieldError) {
	var r Route
	var errs []FieldError

	r.RouteID = strings.TrimSpace(raw[ColRouteID])

	if v := strings.TrimSpace(raw[ColAgencyID]); v != "" {
		r.AgencyID = &v
	}

	var ok bool
	if r.RouteShortName, ok = raw[ColRouteShortName]; !ok {
		errs = append(errs, missingField(ColRouteShortName))
	}
	if r.RouteLongName, ok = raw[ColRouteLongName]; !ok {
		errs = append(errs, missingField(ColRouteLongName))
	}
	r.RouteDesc = raw[ColRouteDesc]

	if v, ok := raw[ColRouteType]; !ok {
		errs = append(errs, missingField(ColRouteType))
	} else if n, err := coerceInt(v); err != nil {
		errs = append(errs, FieldError{
			Field:   ColRouteType,
			Rule:    "number",
			Value:   v,
			Message: fmt.Sprintf("route_type must be a number, got %q", v),
		})
	} else {
		r.RouteType = n
	}

	r.RouteURL = strings.TrimSpace(raw[ColRouteURL])
	r.RouteColor = normalizeColor(raw[ColRouteColor])
	r.RouteTextColor = normalizeColor(raw[ColRouteTextColor])

	if v := strings.TrimSpace(raw[ColRouteSortOrder]); v != "" {
		if n, err := coerceInt(v); err != nil {
			errs = append(errs, FieldError{
				Field:   ColRouteSortOrder,
				Rule:    "integer",
				Value:   v,
				Message: fmt.Sprintf("route_sort_order must be a non-negative integer, got %q", v),
			})
		} else {
			r.RouteSortOrder = &n
		}
	}

	if err := schema().Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			errs = append(errs, FieldError{Rule: "schema", Message: err.Error()})
		}
		for _, fe := range verrs {
			errs = append(errs, toFieldError(fe))
		}
	}

	if len(errs) > 0 {
		return Route{}, errs
	}
	return r, nil
}

// coerceInt accepts integers and integral decimals such as "3.0".
func coerceInt(v string) (int, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	if !decimalPattern.MatchString(v) {
		return 0, fmt.Errorf("not a decimal number: %q", v)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("not an integer: %q", v)
	}
	return int(f), nil
}

func normalizeColor(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

func missingField(col string) FieldError {
	return FieldError{
		Field:   col,
		Rule:    "required",
		Message: fmt.Sprintf("%s is required", col),
	}
}

func toFieldError(fe validator.FieldError) FieldError {
	out := FieldError{
		Field: fe.Field(),
		Rule:  fe.Tag(),
		Value: fmt.Sprint(fe.Value()),
	}
	switch fe.Tag() {
	case "required":
		out.Message = fmt.Sprintf("%s is required and cannot be empty", fe.Field())
	case "url":
		out.Message = fmt.Sprintf("%s must be an absolute URL or empty", fe.Field())
	case "gtfscolor":
		out.Message = fmt.Sprintf("%s must be empty or a 6-digit hex string (e.g., 00FF00) without '#'", fe.Field())
	case "min":
		out.Message = fmt.Sprintf("%s must be a non-negative integer", fe.Field())
	default:
		out.Message = fe.Error()
	}
	return out
}
