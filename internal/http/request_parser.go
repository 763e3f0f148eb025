package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"payboard/internal/core"
)

// maxBodyBytes bounds every request body the handlers read.
const maxBodyBytes = 64 << 10

var errBodyTooLarge = errors.New("request body too large")

// decodeSubmission reads the entry form fields from a form-encoded or JSON
// body. JSON counters may be sent as numbers or as strings; either way the
// validation gate sees their text.
func decodeSubmission(r *http.Request) (core.FormInput, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return core.FormInput{}, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return core.FormInput{}, errBodyTooLarge
	}

	if isJSONBody(r.Header.Get("Content-Type"), body) {
		var js jsonSubmission
		if err := json.Unmarshal(body, &js); err != nil {
			return core.FormInput{}, fmt.Errorf("decode json: %w", err)
		}
		return cleanInput(string(js.Month), string(js.Success), string(js.Failed)), nil
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		return core.FormInput{}, fmt.Errorf("parse form: %w", err)
	}
	return cleanInput(form.Get(core.FieldMonth), form.Get(core.FieldSuccess), form.Get(core.FieldFailed)), nil
}

func isJSONBody(contentType string, body []byte) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "application/json" {
		return true
	}
	b := bytes.TrimSpace(body)
	return len(b) > 0 && (b[0] == '{' || b[0] == '[')
}

func cleanInput(month, success, failed string) core.FormInput {
	return core.FormInput{
		Month:   sanitizeInput(month),
		Success: sanitizeInput(success),
		Failed:  sanitizeInput(failed),
	}
}

type jsonSubmission struct {
	Month   jsonText `json:"month"`
	Success jsonText `json:"success"`
	Failed  jsonText `json:"failed"`
}

// jsonText holds a JSON string or number as text. null decodes to "".
type jsonText string

func (t *jsonText) UnmarshalJSON(b []byte) error {
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = jsonText(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*t = jsonText(n.String())
	}
	return nil
}
