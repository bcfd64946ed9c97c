package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/faithpod/portal/core"
)

// maxErrorBody bounds how much of a failed answer is read.
const maxErrorBody = 64 << 10

// ErrorFor replaces the error returned for a status code.
type ErrorFor map[int]error

// errorMessage is the error body of the church API:
//
//	{"message": "The given data was invalid.", "errors": {"email": ["The email has already been taken."]}}
type errorMessage struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

func decodeResponse(resp *http.Response, out interface{}, errorFor ErrorFor) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return errors.Wrapf(err, "decoding response (status code = %d)", resp.StatusCode)
		}
		return nil
	}

	if err, ok := errorFor[resp.StatusCode]; ok {
		_, _ = io.Copy(io.Discard, resp.Body)
		return err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return errors.Wrapf(err, "reading error response (status code = %d)", resp.StatusCode)
	}
	return statusError(resp.StatusCode, body)
}

// statusError maps a failed answer to the errors the gateway knows how to render.
func statusError(code int, body []byte) error {
	var msg errorMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		msg.Message = strings.TrimSpace(string(body))
	}
	text := msg.Message
	if text == "" {
		text = msg.Error
	}

	switch {
	case (code == http.StatusUnauthorized || code == http.StatusForbidden) && isTenantMessage(text):
		return errors.Wrap(core.ErrTenantAccess, text)
	case code == http.StatusUnauthorized:
		return core.ErrUnauthorized
	case code == http.StatusForbidden:
		return core.ErrForbidden
	case code == http.StatusNotFound:
		return core.ErrNotFound
	case code >= 500:
		return errors.Wrapf(core.ErrUnavailable, "church api answered %d: %s", code, text)
	case code >= 400:
		return validationError(code, text, msg.Errors)
	default:
		return errors.Errorf("unexpected status code %d: %s", code, text)
	}
}

func isTenantMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "tenant") || strings.Contains(msg, "organization")
}

func validationError(code int, text string, fields map[string][]string) error {
	if text == "" {
		text = fmt.Sprintf("request rejected (status code = %d)", code)
	}
	if len(fields) == 0 {
		return core.NewValidationError(errors.New(text))
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	flds := make([]core.FieldError, 0, len(names))
	for _, name := range names {
		if msgs := fields[name]; len(msgs) > 0 {
			flds = append(flds, core.FieldError{Field: name, Error: msgs[0]})
		}
	}
	return core.NewValidationError(errors.New(text), flds...)
}
