package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"example.com/exercisetracker/internal/domain"
)

const maxBodyBytes = 1 << 20

// AddExerciseRequest is the payload for POST /api/users/{_id}/exercises.
type AddExerciseRequest struct {
	Description string `json:"description" validate:"max=2000"`
	Duration    string `json:"duration" validate:"required,numeric"`
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// LogsRequest holds the query parameters for GET /api/users/{_id}/logs.
type LogsRequest struct {
	From  string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To    string `json:"to" validate:"omitempty,datetime=2006-01-02"`
	Limit string `json:"limit"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// validateRequest checks req and converts the first failure into a domain.ErrValidation.
func (h *Handler) validateRequest(req interface{}) error {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", domain.ErrValidation, fe.Field())
	case "numeric":
		return fmt.Errorf("%w: %s must be a number", domain.ErrValidation, fe.Field())
	case "datetime":
		return fmt.Errorf("%w: %s must use the YYYY-MM-DD format", domain.ErrValidation, fe.Field())
	case "max":
		return fmt.Errorf("%w: %s must be at most %s characters", domain.ErrValidation, fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%w: %s is invalid", domain.ErrValidation, fe.Field())
	}
}

// readBody returns the request body fields from a form-encoded, multipart or JSON payload.
func readBody(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		return readJSONBody(r)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, fmt.Errorf("%w: unable to parse body", domain.ErrValidation)
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: unable to parse body", domain.ErrValidation)
		}
	}
	return r.PostForm, nil
}

func readJSONBody(r *http.Request) (url.Values, error) {
	var raw map[string]interface{}
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: unable to parse body", domain.ErrValidation)
	}

	values := make(url.Values, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
		case string:
			values.Set(key, v)
		case json.Number:
			values.Set(key, v.String())
		case bool:
			values.Set(key, strconv.FormatBool(v))
		default:
			return nil, fmt.Errorf("%w: %s must be a scalar value", domain.ErrValidation, key)
		}
	}
	return values, nil
}

// coerceDuration truncates a numeric string to an integer.
func coerceDuration(raw string) (int, error) {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: duration must be a number", domain.ErrValidation)
	}
	if math.Abs(parsed) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: duration is out of range", domain.ErrValidation)
	}
	return int(math.Trunc(parsed)), nil
}

// parseLimit returns 0 (no cap) for missing, non-numeric or non-positive values.
func parseLimit(raw string) int {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || parsed < 1 || parsed > math.MaxInt32 {
		return 0
	}
	return int(parsed)
}
