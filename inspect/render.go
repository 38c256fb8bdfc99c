package inspect

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeRaw  = "text/plain; charset=utf-8"
)

// RenderJSON serializes r as a JSON object. No field is ever omitted.
func RenderJSON(r *Request) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Selector picks the sections of a raw rendering.
type Selector uint

const (
	AllSections Selector = iota
	HeadersOnly
	BodyOnly
)

func (s Selector) String() string {
	switch s {
	case HeadersOnly:
		return "headers"
	case BodyOnly:
		return "body"
	default:
		return "all"
	}
}

// SelectorFromSuffix maps a route suffix to a Selector. Only "h" and "b"
// are special; anything else, including "", selects every section.
func SelectorFromSuffix(suffix string) Selector {
	switch suffix {
	case "h":
		return HeadersOnly
	case "b":
		return BodyOnly
	default:
		return AllSections
	}
}

func (s Selector) client() bool  { return s == AllSections }
func (s Selector) headers() bool { return s == AllSections || s == HeadersOnly }
func (s Selector) body() bool    { return s == AllSections || s == BodyOnly }

// RenderRaw reconstructs r as an HTTP/1.1 style message. Header values and
// the body are written verbatim, without any escaping.
func RenderRaw(r *Request, sel Selector) string {
	lines := []string{r.Method + " " + r.Pathname + r.Search + " HTTP/1.1"}

	if sel.client() {
		c := r.Client
		lines = append(lines, "X-Client-IP: "+c.IP)
		if c.RealIP != nil && *c.RealIP != "" {
			lines = append(lines, "X-Real-IP: "+*c.RealIP)
		}
		lines = append(lines, "X-Protocol: "+c.Protocol, "X-Host: "+c.Host)
		if c.UserAgent != nil && *c.UserAgent != "" {
			lines = append(lines, "X-User-Agent: "+*c.UserAgent)
		}
	}

	if sel.headers() {
		for _, kv := range r.Headers {
			lines = append(lines, CanonicalHeaderName(kv.Name)+": "+kv.Value)
		}
	}

	if sel.body() {
		lines = append(lines, "", r.Body)
	}

	return strings.Join(lines, "\n")
}

// CanonicalHeaderName upper-cases the first character of every
// hyphen-delimited segment and leaves the rest untouched.
func CanonicalHeaderName(name string) string {
	parts := strings.Split(name, "-")
	for i, p := range parts {
		r, size := utf8.DecodeRuneInString(p)
		if size == 0 {
			continue
		}
		parts[i] = string(unicode.ToUpper(r)) + p[size:]
	}
	return strings.Join(parts, "-")
}
