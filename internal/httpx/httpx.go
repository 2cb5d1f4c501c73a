package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes caps request bodies. Booking and staff payloads are a few
// hundred bytes.
const MaxBodyBytes = 64 << 10

var ErrBodyTooLarge = errors.New("request body too large")

// DecodeJSON reads exactly one JSON object from r's body, rejecting unknown
// fields and bodies over MaxBodyBytes.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrBodyTooLarge
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain a single JSON object")
	}
	return nil
}

// ValidationDetails maps each failing field to its rule, with the rule's
// parameter when it has one ("max=80").
func ValidationDetails(errs validator.ValidationErrors) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	details := make(map[string]string, len(errs))
	for _, err := range errs {
		rule := err.Tag()
		if p := err.Param(); p != "" {
			rule += "=" + p
		}
		details[err.Field()] = rule
	}
	return details
}

func ParseLimitOffset(values url.Values, defaultLimit, maxLimit int64) (int64, int64, error) {
	limit, err := parseInt(values, "limit", defaultLimit, 1)
	if err != nil {
		return 0, 0, err
	}
	offset, err := parseInt(values, "offset", 0, 0)
	if err != nil {
		return 0, 0, err
	}
	return min(limit, maxLimit), offset, nil
}

func parseInt(values url.Values, key string, fallback, floor int64) (int64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < floor {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
