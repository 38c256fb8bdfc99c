package main

import (
	"bytes"
	"io"
	"strings"

	"github.com/valyala/fasthttp"

	"reqecho/inspect"
)

var cookieHeader = []byte("Cookie")

// readRequest adapts a fasthttp request for inspect.Normalize. Header names
// and values are copied because fasthttp reuses its buffers once the
// handler returns.
//
// Headers come in fasthttp's VisitAll order: Host, Content-Length,
// Content-Type and User-Agent first, then the others in arrival order.
// Cookie values are taken from the raw header bytes since fasthttp
// re-serializes the cookies it parsed.
func readRequest(ctx *fasthttp.RequestCtx) inspect.Input {
	scheme := "http"
	if ctx.IsTLS() {
		scheme = "https"
	}

	rawCookies := rawHeaderValues(ctx.Request.Header.RawHeaders(), cookieHeader)

	header := make(inspect.Fields, 0, ctx.Request.Header.Len())
	ctx.Request.Header.VisitAll(func(k, v []byte) {
		if len(rawCookies) > 0 && bytes.EqualFold(k, cookieHeader) {
			for _, c := range rawCookies {
				header = append(header, inspect.Field{Name: string(k), Value: c})
			}
			return
		}
		header = append(header, inspect.Field{Name: string(k), Value: string(v)})
	})

	return inspect.Input{
		Method: string(ctx.Method()),
		URL:    scheme + "://" + string(ctx.Host()) + originForm(string(ctx.RequestURI())),
		Header: header,
		Body:   func() ([]byte, error) { return readBody(ctx) },
	}
}

// originForm strips scheme and authority from an absolute-form request
// target, as sent to forward proxies.
func originForm(target string) string {
	if strings.HasPrefix(target, "/") {
		return target
	}
	i := strings.Index(target, "://")
	if i < 0 {
		return target
	}
	rest := target[i+3:]
	j := strings.IndexAny(rest, "/?")
	if j < 0 {
		return "/"
	}
	if rest[j] == '?' {
		return "/" + rest[j:]
	}
	return rest[j:]
}

// rawHeaderValues returns the values of every name header exactly as they
// appeared on the wire.
func rawHeaderValues(raw, name []byte) []string {
	var values []string
	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		i := bytes.IndexByte(line, ':')
		if i <= 0 || !bytes.EqualFold(bytes.TrimSpace(line[:i]), name) {
			continue
		}
		values = append(values, string(bytes.Trim(line[i+1:], " \t")))
	}
	return values
}

func readBody(ctx *fasthttp.RequestCtx) ([]byte, error) {
	if ctx.Request.IsBodyStream() {
		return io.ReadAll(ctx.RequestBodyStream())
	}
	return ctx.PostBody(), nil
}
