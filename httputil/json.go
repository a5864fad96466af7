// httputil/json.go
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"reflect"
	"strings"

	"go.uber.org/zap"
)

// ErrEmptyBody is returned by BindJSON when the request carries no body.
var ErrEmptyBody = errors.New("request body is empty")

// Result is the JSON envelope every site endpoint answers with.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// jsonLogger is a package-level logger for encoding errors. Use SetJSONLogger to configure.
var jsonLogger JSONLogger

// JSONLogger is a minimal interface for logging JSON encoding errors.
// *zap.Logger satisfies it.
type JSONLogger interface {
	Error(msg string, fields ...zap.Field)
}

// SetJSONLogger configures the logger used for JSON encoding errors.
// This should be called once during application startup.
func SetJSONLogger(logger JSONLogger) {
	jsonLogger = logger
}

// WriteJSON writes a JSON response with the given status code.
// If encoding fails, the error is logged (if a logger is configured via
// SetJSONLogger) because headers and status have already been sent and
// we can't send another response.
//
// Invalid status codes (outside 100-599) are clamped to 500 Internal Server Error.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil && jsonLogger != nil {
		// Wrap in recover to prevent logger panics from crashing the server.
		func() {
			defer func() {
				if r := recover(); r != nil {
					fmt.Fprintf(os.Stderr, "httputil: logger panic while reporting json error: %v\n", r)
				}
			}()
			typeName := "nil"
			if v != nil {
				typeName = reflect.TypeOf(v).String()
			}
			jsonLogger.Error("json encoding failed after headers sent",
				zap.String("type", typeName),
				zap.Error(err),
			)
		}()
	}
}

// WriteResult writes a Result envelope with the given status.
func WriteResult(w http.ResponseWriter, status int, success bool, message string) {
	WriteJSON(w, status, Result{Success: success, Message: message})
}

// Fail is shorthand for WriteResult(w, status, false, message).
func Fail(w http.ResponseWriter, status int, message string) {
	WriteResult(w, status, false, message)
}

// BindJSON decodes the request body as JSON into v. Unknown fields are
// permitted; a body holding more than one JSON value is rejected.
//
// The returned errors are safe to log but are not meant for clients.
func BindJSON(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return ErrEmptyBody
	}
	defer r.Body.Close()

	// ContentLength is 0 for explicitly empty bodies, -1 for chunked/unknown.
	// Chunked requests with empty content fail at decode with EOF.
	if r.ContentLength == 0 {
		return ErrEmptyBody
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return parseJSONError(err)
	}

	if dec.More() {
		return errors.New("request body contains multiple JSON values")
	}
	return nil
}

// IsJSONContentType reports whether ct names a JSON media type,
// "application/json" or any "+json" suffix, ignoring parameters.
func IsJSONContentType(ct string) bool {
	ct = strings.TrimSpace(ct)
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = ct[:idx]
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	return ct == "application/json" || strings.HasSuffix(ct, "+json")
}

// parseJSONError converts json decoding errors into readable messages.
func parseJSONError(err error) error {
	if errors.Is(err, io.EOF) {
		return ErrEmptyBody
	}

	// The decoder reports a body cut off mid-value as ErrUnexpectedEOF
	// rather than a SyntaxError.
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.New("malformed JSON: unexpected end of input")
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("invalid value for field %q: expected %s", typeErr.Field, typeErr.Type.String())
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errors.New("request body too large")
	}

	return fmt.Errorf("invalid JSON in request body: %w", err)
}
