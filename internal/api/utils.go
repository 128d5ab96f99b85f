package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

// MaxBodyBytes caps every decoded request body.
const MaxBodyBytes = 1 << 20

// ErrorResponse writes the standard error envelope carrying the request ID.
func ErrorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	WriteJSONResponse(w, r, status, types.Response{
		Success:   false,
		Error:     message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// WriteJSONResponse encodes data and writes it with the given status.
func WriteJSONResponse(w http.ResponseWriter, r *http.Request, status int, data any) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	js, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to marshal JSON response",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err = w.Write(js); err != nil {
		// status already sent
		slog.ErrorContext(r.Context(), "Failed to write response body",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	}
}

// DecodeJSONBody decodes exactly one JSON value into dst. Unknown fields are
// rejected. The returned error is safe to show to the caller; writing the
// response is left to the handler.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q (wanted %s)", unmarshalTypeError.Field, unmarshalTypeError.Type)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return fmt.Errorf("body contains unknown key %q", field)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		case errors.As(err, &invalidUnmarshalError):
			panic(fmt.Errorf("invalid decode target: %w", err))
		default:
			return fmt.Errorf("error decoding JSON body: %w", err)
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

// VerifyAudience reports whether expected appears in the token audience.
// An empty expectation accepts any token.
func VerifyAudience(claimsAudience jwt.ClaimStrings, expected string) bool {
	if expected == "" {
		return true
	}
	return slices.Contains(claimsAudience, expected)
}
