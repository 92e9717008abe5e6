package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

const unparseableJSONMessage = "Unable to parse response as JSON"

// Response is the transient view of an HTTP response handed to the classifier.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       string
}

// Classify decides success or failure from the declared content type.
// The "json" match is a literal, case-sensitive substring check.
func (c *Client) Classify(resp Response) Result {
	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		return c.ClassifyJSON(resp)
	}

	c.logger.Debug("httpclient.non_json_response",
		zap.Int("status", resp.StatusCode),
		zap.String("content_type", resp.Header.Get("Content-Type")))

	return Failure(fmt.Sprintf("Can't process response from server. Status Code: %d Data from server: %s",
		resp.StatusCode, escapeBraces(resp.Body)))
}

// ClassifyJSON decodes the body and maps [200, 205) to success. Any other
// status is an API error, rendered from the payload's error descriptor when
// it carries both a code and a message, else from the raw body.
func (c *Client) ClassifyJSON(resp Response) Result {
	payload, err := decodeJSON(resp.Body)
	if err != nil {
		c.logger.Debug("httpclient.json_parse_failed",
			zap.Int("status", resp.StatusCode),
			zap.Error(err))
		return Failure(unparseableJSONMessage)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 205 {
		return Success(payload)
	}

	if details, ok := errorDetails(payload); ok {
		return Failure(fmt.Sprintf("Error from server, Status Code: %d data returned: %s", resp.StatusCode, details))
	}
	return Failure(fmt.Sprintf("Error from server, Status Code: %d data returned: %s",
		resp.StatusCode, escapeBraces(resp.Body)))
}

// decodeJSON parses exactly one JSON value. Numbers are kept as json.Number.
func decodeJSON(body string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

// errorDetails extracts {'message': code, 'detail': message} from the error
// descriptor. The outer "message" key holds the descriptor's code.
func errorDetails(payload any) (string, bool) {
	var descriptor any
	switch p := payload.(type) {
	case string:
		descriptor = p
	case map[string]any:
		descriptor = map[string]any{}
		if e, ok := p["error"]; ok {
			descriptor = e
		}
	default:
		return "", false
	}

	m, ok := descriptor.(map[string]any)
	if !ok {
		return "", false
	}

	code, message := m["code"], m["message"]
	if !truthy(code) || !truthy(message) {
		return "", false
	}
	return fmt.Sprintf("{'message': %s, 'detail': %s}", literal(code), literal(message)), true
}

func escapeBraces(s string) string {
	return strings.NewReplacer("{", "{{", "}", "}}").Replace(s)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

// literal renders a decoded JSON value as a dict-style literal:
// 'single quoted' strings, None, True/False. Object keys are sorted since
// decoded maps carry no order.
func literal(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		return quote(t)
	case bool:
		if t {
			return "True"
		}
		return "False"
	case json.Number:
		return t.String()
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = literal(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = literal(k) + ": " + literal(t[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(t)
	}
}

// quote single-quotes s, switching to double quotes when s holds a single
// quote but no double quote. Backslashes, the active quote and
// non-printable runes are escaped.
func quote(s string) string {
	q := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}

	var b strings.Builder
	b.WriteRune(q)
	for _, r := range s {
		switch {
		case r == q || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case !unicode.IsPrint(r):
			switch {
			case r <= 0xff:
				fmt.Fprintf(&b, `\x%02x`, r)
			case r <= 0xffff:
				fmt.Fprintf(&b, `\u%04x`, r)
			default:
				fmt.Fprintf(&b, `\U%08x`, r)
			}
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune(q)
	return b.String()
}
