// Package inspect turns an inbound HTTP request into a normalized,
// transport independent representation and renders it either as JSON or as
// a reconstructed raw HTTP message.
//
// Everything in this package is a pure function over explicit inputs, so
// any host server can drive it.
package inspect

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/valyala/fasthttp"
)

// BodyOverrideParam is the reserved query parameter that replaces the
// request body. It never shows up in Request.Query.
const BodyOverrideParam = "__body"

const (
	defaultIP       = "127.0.0.1"
	defaultProtocol = "http"
	defaultHost     = "localhost"
)

// BodyReader lazily reads the entity body. Normalize calls it at most once
// and only when the method may carry a body.
type BodyReader func() ([]byte, error)

// Input is what a host hands to Normalize for one request.
type Input struct {
	Method string
	// URL is the full request URL, including the query string.
	URL string
	// Header holds the received headers in arrival order. Names may use any
	// case and may repeat.
	Header Fields
	Body   BodyReader
}

// Normalize builds the canonical representation of in. It never fails:
// an unreadable body becomes "" and a body that is not JSON yields nil Data.
func Normalize(in Input) *Request {
	pathname, rawQuery := splitURL(in.URL)

	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	args.Parse(rawQuery)

	headers := normalizeHeaders(in.Header)

	search := ""
	if rawQuery != "" {
		search = "?" + rawQuery
	}

	body := resolveBody(in.Method, args, in.Body)

	return &Request{
		Method:      in.Method,
		HTTPVersion: HTTPVersion,
		URL:         in.URL,
		Pathname:    pathname,
		Search:      search,
		Query:       queryFields(args),
		Client:      clientInfo(headers),
		Headers:     headers,
		Body:        body,
		Data:        parseData(body),
	}
}

func resolveBody(method string, args *fasthttp.Args, read BodyReader) string {
	if args.Has(BodyOverrideParam) {
		return toText(args.Peek(BodyOverrideParam))
	}
	if method == fasthttp.MethodGet || method == fasthttp.MethodHead || read == nil {
		return ""
	}
	b, err := read()
	if err != nil {
		return ""
	}
	return toText(b)
}

// toText decodes b as UTF-8, replacing invalid sequences.
func toText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

func parseData(body string) json.RawMessage {
	if body == "" || !json.Valid([]byte(body)) {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(body)); err != nil {
		return nil
	}
	return buf.Bytes()
}

// queryFields collects the query arguments without the body override.
// A repeated key keeps its first position and its last value.
func queryFields(args *fasthttp.Args) Fields {
	q := Fields{}
	args.VisitAll(func(k, v []byte) {
		key := toText(k)
		if key == BodyOverrideParam {
			return
		}
		val := toText(v)
		if i := q.index(key); i >= 0 {
			q[i].Value = val
			return
		}
		q = append(q, Field{Name: key, Value: val})
	})
	return q
}

// normalizeHeaders lower-cases names and joins repeated headers with ", "
// at the position of their first occurrence.
func normalizeHeaders(in Fields) Fields {
	h := make(Fields, 0, len(in))
	for _, kv := range in {
		name := strings.ToLower(kv.Name)
		if i := h.index(name); i >= 0 {
			h[i].Value += ", " + kv.Value
			continue
		}
		h = append(h, Field{Name: name, Value: kv.Value})
	}
	return h
}

func clientInfo(h Fields) ClientInfo {
	var c ClientInfo

	if fwd, _ := h.Get("x-forwarded-for"); fwd != "" {
		first := strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
		c.RealIP = &first
	}

	c.IP = defaultIP
	if ip, _ := h.Get("x-real-ip"); ip != "" {
		c.IP = ip
	} else if c.RealIP != nil && *c.RealIP != "" {
		c.IP = *c.RealIP
	}

	c.Protocol = defaultProtocol
	if p, _ := h.Get("x-forwarded-proto"); p != "" {
		c.Protocol = p
	}

	c.Host = defaultHost
	if host, _ := h.Get("host"); host != "" {
		c.Host = host
	}

	if ua, ok := h.Get("user-agent"); ok {
		c.UserAgent = &ua
	}
	return c
}

// splitURL returns the escaped path and the raw query of a full or
// origin-form request URL.
func splitURL(raw string) (pathname, rawQuery string) {
	if u, err := url.Parse(raw); err == nil {
		pathname = u.EscapedPath()
		if pathname == "" {
			pathname = "/"
		}
		return pathname, u.RawQuery
	}

	rest := raw
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
		if j := strings.IndexAny(rest, "/?"); j >= 0 {
			rest = rest[j:]
		} else {
			rest = ""
		}
	}
	pathname = rest
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		pathname, rawQuery = rest[:i], rest[i+1:]
	}
	if pathname == "" {
		pathname = "/"
	}
	return pathname, rawQuery
}
