package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nao1215/formbuilder/internal/csrf"
	"github.com/nao1215/formbuilder/internal/model"
)

// contentTypeJSON is the media type of submitted payloads.
const contentTypeJSON = "application/json"

// errNullResponse is reported when an ok response carries a JSON null.
var errNullResponse = errors.New("invalid JSON response: body is null")

// BuildRequest creates the POST request for snap. The token header is set
// only when token is non-empty.
func BuildRequest(ctx context.Context, cfg Config, snap *model.Snapshot, token string) (*http.Request, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.SubmitURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	if token != "" {
		req.Header.Set(csrf.HeaderName, token)
	}

	return req, nil
}

// Interpret maps an HTTP response to the outcome shown to the user.
//
// For an ok status (2xx or 3xx) the body must be JSON: an object with a
// truthy "ok" field is a success, any other value a rejection, and a body
// that is not JSON or is null a network error. For any other status the
// body may be JSON carrying a truthy "errors" field, which is shown
// re-encoded with decoded characters; otherwise the status text is shown.
func Interpret(code int, status string, body []byte) model.Outcome {
	if code >= 200 && code < 400 {
		var decoded any
		if err := json.Unmarshal(body, &decoded); err != nil {
			return model.NetworkError(parseErrorMessage(err))
		}
		if decoded == nil {
			return model.NetworkError(errNullResponse.Error())
		}
		obj, _ := decoded.(map[string]any)
		if truthy(obj["ok"]) {
			return model.Success()
		}
		return model.Rejected()
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err == nil {
		if raw, ok := obj["errors"]; ok && truthyRaw(raw) {
			if text, err := stringify(raw); err == nil {
				return model.ValidationErrors(text)
			}
		}
	}

	return model.Failed(statusText(code, status))
}

// statusText returns the reason phrase of a status line such as
// "500 Internal Server Error", falling back to the standard text.
func statusText(code int, status string) string {
	text := strings.TrimSpace(strings.TrimPrefix(status, strconv.Itoa(code)))
	if text != "" {
		return text
	}
	return http.StatusText(code)
}

// truthy follows JavaScript truthiness for decoded JSON values.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

func truthyRaw(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	return truthy(v)
}

// errorMessage strips the method and URL that *url.Error adds, leaving the
// failure itself.
func errorMessage(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err.Error()
	}
	return err.Error()
}

func parseErrorMessage(err error) string {
	return "invalid JSON response: " + err.Error()
}

// stringify re-encodes a JSON value compactly the way a browser's
// JSON.stringify prints a parsed value: escapes are decoded, non-ASCII and
// HTML characters are written as is, and object keys keep their order.
func stringify(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var sb strings.Builder
	if err := writeValue(&sb, dec); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeValue(sb *strings.Builder, dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch t := tok.(type) {
	case json.Delim:
		closing := json.Delim('}')
		if t == '[' {
			closing = ']'
		}
		sb.WriteRune(rune(t))
		for first := true; dec.More(); first = false {
			if !first {
				sb.WriteByte(',')
			}
			if t == '{' {
				key, err := dec.Token()
				if err != nil {
					return err
				}
				writeString(sb, fmt.Sprint(key))
				sb.WriteByte(':')
			}
			if err := writeValue(sb, dec); err != nil {
				return err
			}
		}
		end, err := dec.Token()
		if err != nil {
			return err
		}
		if end != closing {
			return errors.New("unbalanced JSON value")
		}
		sb.WriteRune(rune(closing))
	case string:
		writeString(sb, t)
	case json.Number:
		sb.WriteString(formatNumber(t))
	case bool:
		sb.WriteString(strconv.FormatBool(t))
	case nil:
		sb.WriteString("null")
	}
	return nil
}

func writeString(sb *strings.Builder, s string) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // encoding a string cannot fail
	sb.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// formatNumber prints n the way JavaScript prints a double in plain
// notation, keeping the literal outside that range.
func formatNumber(n json.Number) string {
	f, err := n.Float64()
	if err != nil {
		return n.String()
	}
	if f == 0 {
		return "0"
	}
	if abs := math.Abs(f); abs < 1e-6 || abs >= 1e21 {
		return n.String()
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
