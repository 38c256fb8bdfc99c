package inspect

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorFromSuffix(t *testing.T) {
	tests := []struct {
		suffix string
		want   Selector
	}{
		{"h", HeadersOnly},
		{"b", BodyOnly},
		{"", AllSections},
		{"c", AllSections},
		{"hb", AllSections},
		{"H", AllSections},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SelectorFromSuffix(tt.suffix), "suffix %q", tt.suffix)
	}
}

func TestCanonicalHeaderName(t *testing.T) {
	tests := map[string]string{
		"content-type":    "Content-Type",
		"x-foo":           "X-Foo",
		"host":            "Host",
		"x--double":       "X--Double",
		"-leading":        "-Leading",
		"x-forwarded-for": "X-Forwarded-For",
		"sec-ch-ua":       "Sec-Ch-Ua",
	}
	for in, want := range tests {
		assert.Equal(t, want, CanonicalHeaderName(in))
	}
}

func TestRenderRawHeadersOnly(t *testing.T) {
	r := Normalize(Input{Method: "GET", URL: "/raw/h", Header: Fields{
		{"content-type", "text/plain"},
		{"x-foo", "bar"},
	}})

	out := RenderRaw(r, HeadersOnly)

	assert.Equal(t, []string{
		"GET /raw/h HTTP/1.1",
		"Content-Type: text/plain",
		"X-Foo: bar",
	}, strings.Split(out, "\n"))
}

func TestRenderRawBodyOnly(t *testing.T) {
	r := Normalize(Input{Method: "POST", URL: "/raw/b", Header: Fields{{"x-foo", "bar"}},
		Body: func() ([]byte, error) { return []byte("hello"), nil }})

	out := RenderRaw(r, BodyOnly)

	lines := strings.SplitN(out, "\n", 2)
	require.Len(t, lines, 2)
	assert.Equal(t, "POST /raw/b HTTP/1.1", lines[0])
	assert.Equal(t, "\nhello", lines[1])
}

func TestRenderRawAllSections(t *testing.T) {
	r := Normalize(Input{Method: "GET", URL: "http://echo.test/raw?x=1", Header: Fields{
		{"Host", "echo.test"},
		{"User-Agent", "test"},
		{"Accept", "*/*"},
	}})

	out := RenderRaw(r, AllSections)

	assert.Equal(t, strings.Join([]string{
		"GET /raw?x=1 HTTP/1.1",
		"X-Client-IP: 127.0.0.1",
		"X-Protocol: http",
		"X-Host: echo.test",
		"X-User-Agent: test",
		"Host: echo.test",
		"User-Agent: test",
		"Accept: */*",
		"",
		"",
	}, "\n"), out)
	assert.True(t, strings.HasSuffix(out, "\n"), "empty body still gets its separator")
}

func TestRenderRawForwardedClient(t *testing.T) {
	r := Normalize(Input{Method: "GET", URL: "/raw", Header: Fields{
		{"x-forwarded-for", "1.1.1.1, 2.2.2.2"},
		{"x-forwarded-proto", "https"},
	}})

	lines := strings.Split(RenderRaw(r, AllSections), "\n")

	assert.Equal(t, []string{
		"GET /raw HTTP/1.1",
		"X-Client-IP: 1.1.1.1",
		"X-Real-IP: 1.1.1.1",
		"X-Protocol: https",
		"X-Host: localhost",
	}, lines[:5])
}

func TestRenderRawKeepsBodyVerbatim(t *testing.T) {
	body := "line one\n\nX-Injected: yes\r\n"
	r := Normalize(Input{Method: "POST", URL: "/raw/b", Body: func() ([]byte, error) { return []byte(body), nil }})

	assert.Equal(t, "POST /raw/b HTTP/1.1\n\n"+body, RenderRaw(r, BodyOnly))
}

func TestRenderJSON(t *testing.T) {
	r := Normalize(Input{
		Method: "POST",
		URL:    "http://echo.test/json/deep?b=2&a=1&__body=%7B%22k%22%3A%22%3Cv%3E%22%7D",
		Header: Fields{{"Host", "echo.test"}, {"Content-Type", "application/json"}},
	})

	out, err := RenderJSON(r)
	require.NoError(t, err)

	var got struct {
		Method      string            `json:"method"`
		HTTPVersion string            `json:"httpVersion"`
		Pathname    string            `json:"pathname"`
		Query       map[string]string `json:"query"`
		Body        string            `json:"body"`
		Data        map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out, &got))

	assert.Equal(t, r.Method, got.Method)
	assert.Equal(t, "1.1", got.HTTPVersion)
	assert.Equal(t, r.Pathname, got.Pathname)
	assert.Equal(t, map[string]string{"b": "2", "a": "1"}, got.Query)
	assert.Equal(t, `{"k":"<v>"}`, got.Body)
	assert.Equal(t, map[string]string{"k": "<v>"}, got.Data)

	s := string(out)
	assert.True(t, strings.HasPrefix(s, `{"method":"POST","httpVersion":"1.1","url":`), s)
	assert.Contains(t, s, `"query":{"b":"2","a":"1"}`)
	assert.Contains(t, s, `"headers":{"host":"echo.test","content-type":"application/json"}`)
	assert.Contains(t, s, `"realIp":null`)
	assert.Contains(t, s, `"userAgent":null`)
	assert.NotContains(t, s, `\u003c`)
}

func TestRenderJSONEmptyFields(t *testing.T) {
	out, err := RenderJSON(Normalize(Input{Method: "GET", URL: "/json"}))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"method": "GET",
		"httpVersion": "1.1",
		"url": "/json",
		"pathname": "/json",
		"search": "",
		"query": {},
		"client": {"ip": "127.0.0.1", "realIp": null, "protocol": "http", "host": "localhost", "userAgent": null},
		"headers": {},
		"body": "",
		"data": null
	}`, string(out))
}
