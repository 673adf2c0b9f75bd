package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// requestError is a client error reported with status 400
type requestError struct {
	message string
	details string
}

func (e *requestError) Error() string {
	if e.details == "" {
		return e.message
	}
	return e.message + ": " + e.details
}

// decodeRequest parses a JSON body into dst and validates its struct tags.
// An empty body is accepted when allowEmpty is set.
func decodeRequest(r *http.Request, dst interface{}, allowEmpty bool) error {
	if r.Body == nil {
		if !allowEmpty {
			return &requestError{message: "invalid request body"}
		}
	} else if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !allowEmpty || !errors.Is(err, io.EOF) {
			return &requestError{message: "invalid request body", details: err.Error()}
		}
	}

	if errs := validate.Struct(dst); errs != nil {
		var verrs validator.ValidationErrors
		if !errors.As(errs, &verrs) {
			return &requestError{message: "validation failed", details: errs.Error()}
		}
		var details strings.Builder
		for _, err := range verrs {
			if details.Len() > 0 {
				details.WriteString("; ")
			}
			details.WriteString(describeFieldError(err))
		}
		return &requestError{message: "validation failed", details: details.String()}
	}
	return nil
}

func describeFieldError(err validator.FieldError) string {
	field := strings.ToLower(err.Field())
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, err.Param())
	case "min":
		if err.Type().Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, err.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, err.Param())
	case "max":
		if err.Type().Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, err.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, err.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}
