package inspect

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHTTPRequest(t *testing.T) {
	req := httptest.NewRequest("POST", "http://echo.test/json/x?a=1", strings.NewReader(`{"ok":true}`))
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	req.Header.Add("Accept", "a")
	req.Header.Add("Accept", "b")

	in := FromHTTPRequest(req)
	require.NotNil(t, in.Body)
	assert.Equal(t, "http://echo.test/json/x?a=1", in.URL)
	assert.Equal(t, "POST", in.Method)

	r := Normalize(in)
	assert.Equal(t, []string{"host", "accept", "x-forwarded-for"}, r.Headers.Names())
	v, _ := r.Headers.Get("accept")
	assert.Equal(t, "a, b", v)
	assert.Equal(t, "echo.test", r.Client.Host)
	assert.Equal(t, "10.0.0.1", r.Client.IP)
	assert.Equal(t, `{"ok":true}`, r.Body)
	assert.Equal(t, `{"ok":true}`, string(r.Data))
}

func TestFromHTTPRequestTLS(t *testing.T) {
	req := httptest.NewRequest("GET", "https://secure.test/raw", nil)

	in := FromHTTPRequest(req)
	assert.Equal(t, "https://secure.test/raw", in.URL)
}
