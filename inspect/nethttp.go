package inspect

import (
	"io"
	"net/http"
	"sort"
	"strings"
)

// FromHTTPRequest adapts a net/http request. net/http keeps headers in a
// map, so they are emitted with Host first and the rest sorted by name.
func FromHTTPRequest(r *http.Request) Input {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	target := r.RequestURI
	if !strings.HasPrefix(target, "/") {
		target = r.URL.RequestURI()
	}

	names := make([]string, 0, len(r.Header))
	for k := range r.Header {
		names = append(names, k)
	}
	sort.Strings(names)

	header := make(Fields, 0, len(names)+1)
	if r.Host != "" {
		header = append(header, Field{Name: "host", Value: r.Host})
	}
	for _, k := range names {
		for _, v := range r.Header[k] {
			header = append(header, Field{Name: k, Value: v})
		}
	}

	return Input{
		Method: r.Method,
		URL:    scheme + "://" + r.Host + target,
		Header: header,
		Body: func() ([]byte, error) {
			if r.Body == nil {
				return nil, nil
			}
			return io.ReadAll(r.Body)
		},
	}
}
