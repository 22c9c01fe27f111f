package apihandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/tablewise/restaurant-backoffice/internal/pkg/apperror"
)

const maxBodyBytes = 1 << 20

// Schema decodes and validates a request body. Decoding is all-or-nothing:
// on failure no partial value is returned, and every field-level violation
// is reported together.
type Schema interface {
	Decode(c echo.Context, v *validator.Validate) (any, error)
}

type jsonSchema[T any] struct{}

// JSON returns a Schema that decodes the body into a T and validates its
// `validate` struct tags. Field paths in violations use JSON names.
func JSON[T any]() Schema {
	return jsonSchema[T]{}
}

func (jsonSchema[T]) Decode(c echo.Context, v *validator.Validate) (any, error) {
	out := new(T)

	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes+1))
	if err != nil {
		return nil, apperror.BadRequest("Could not read request body")
	}
	if len(raw) > maxBodyBytes {
		return nil, apperror.BadRequest("Request body too large")
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		raw = []byte("{}")
	}

	fields := map[string][]string{}
	if err := json.Unmarshal(raw, out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) || typeErr.Field == "" {
			return nil, apperror.BadRequest("Invalid JSON body")
		}
		// Unmarshal keeps decoding past a mismatch but reports only the first.
		collectTypeErrors(raw, reflect.TypeFor[T](), "", fields)
		if len(fields) == 0 {
			fields[typeErr.Field] = []string{"Expected " + typeErr.Type.String()}
		}
	}

	if err := v.Struct(out); err != nil {
		var ve validator.ValidationErrors
		var invalid *validator.InvalidValidationError
		switch {
		case errors.As(err, &ve):
			for path, msgs := range fieldErrors(ve) {
				if !coveredBy(fields, path) {
					fields[path] = msgs
				}
			}
		case errors.As(err, &invalid):
		default:
			return nil, err
		}
	}

	if len(fields) > 0 {
		return nil, apperror.Validation(fields)
	}
	return out, nil
}

var unmarshalerType = reflect.TypeFor[json.Unmarshaler]()

// collectTypeErrors decodes raw into t field by field and records every value
// whose JSON type does not match, keyed by its dotted JSON path.
func collectTypeErrors(raw json.RawMessage, t reflect.Type, prefix string, out map[string][]string) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	var obj map[string]json.RawMessage
	if t.Kind() != reflect.Struct ||
		reflect.PointerTo(t).Implements(unmarshalerType) ||
		json.Unmarshal(raw, &obj) != nil {
		var typeErr *json.UnmarshalTypeError
		if err := json.Unmarshal(raw, reflect.New(t).Interface()); errors.As(err, &typeErr) {
			path := joinPath(prefix, typeErr.Field)
			out[path] = append(out[path], "Expected "+typeErr.Type.String())
		}
		return
	}

	for i := range t.NumField() {
		f := t.Field(i)
		name := jsonFieldName(f)
		if f.Anonymous && f.Tag.Get("json") == "" {
			collectTypeErrors(raw, f.Type, prefix, out)
			continue
		}
		if !f.IsExported() || name == "" {
			continue
		}
		value, ok := lookupKey(obj, name)
		if !ok || string(value) == "null" {
			continue
		}
		collectTypeErrors(value, f.Type, joinPath(prefix, name), out)
	}
}

// lookupKey matches object keys the way encoding/json does: exact first,
// then case-insensitively.
func lookupKey(obj map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if v, ok := obj[name]; ok {
		return v, true
	}
	for k, v := range obj {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

func joinPath(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	default:
		return prefix + "." + field
	}
}

// coveredBy reports whether path, or one of its parents, already has a type
// error. A mismatched value is left zero and would otherwise also fail its
// validation rules.
func coveredBy(fields map[string][]string, path string) bool {
	for p := path; p != ""; {
		if _, ok := fields[p]; ok {
			return true
		}
		i := strings.LastIndexByte(p, '.')
		if i < 0 {
			break
		}
		p = p[:i]
	}
	return false
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*(?:/[a-z0-9]+(?:-[a-z0-9]+)*)*$`)

// NewValidator returns a validator that reports JSON field names and knows
// the "slug" rule.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// fieldErrors groups violations by dotted path without the root type name.
func fieldErrors(ve validator.ValidationErrors) map[string][]string {
	out := make(map[string][]string, len(ve))
	for _, fe := range ve {
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		out[path] = append(out[path], fieldMessage(fe))
	}
	return out
}

// fieldMessage converts a single FieldError into a human-readable message.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without", "required_with":
		return "Required"
	case "email":
		return "Invalid email"
	case "url", "http_url":
		return "Invalid URL"
	case "slug":
		return "Must contain only lowercase letters, digits and hyphens"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return fmt.Sprintf("Failed %s validation", fe.Tag())
	}
}
