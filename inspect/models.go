package inspect

import (
	"bytes"
	"encoding/json"
)

// HTTPVersion is reported for every request regardless of the transport.
const HTTPVersion = "1.1"

// Field is a single name/value pair of an ordered map.
type Field struct {
	Name  string
	Value string
}

// Fields is an insertion-ordered string map. It marshals to a JSON object
// whose keys keep their order.
type Fields []Field

// Get returns the value stored under name.
func (f Fields) Get(name string) (string, bool) {
	for _, kv := range f {
		if kv.Name == name {
			return kv.Value, true
		}
	}
	return "", false
}

// Names returns the keys in order.
func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for _, kv := range f {
		names = append(names, kv.Name)
	}
	return names
}

func (f Fields) index(name string) int {
	for i, kv := range f {
		if kv.Name == name {
			return i
		}
	}
	return -1
}

var (
	objOpen  = []byte("{")
	objClose = []byte("}")
	colon    = []byte(":")
	comma    = []byte(",")
)

func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(objOpen)
	for i, kv := range f {
		if i > 0 {
			buf.Write(comma)
		}
		if err := writeString(&buf, kv.Name); err != nil {
			return nil, err
		}
		buf.Write(colon)
		if err := writeString(&buf, kv.Value); err != nil {
			return nil, err
		}
	}
	buf.Write(objClose)
	return buf.Bytes(), nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// ClientInfo describes the caller as seen through the proxy headers.
type ClientInfo struct {
	IP        string  `json:"ip"`
	RealIP    *string `json:"realIp"`
	Protocol  string  `json:"protocol"`
	Host      string  `json:"host"`
	UserAgent *string `json:"userAgent"`
}

// Request is the normalized view of one inbound request. It is built by
// Normalize and never modified afterwards.
type Request struct {
	Method      string     `json:"method"`
	HTTPVersion string     `json:"httpVersion"`
	URL         string     `json:"url"`
	Pathname    string     `json:"pathname"`
	Search      string     `json:"search"`
	Query       Fields     `json:"query"`
	Client      ClientInfo `json:"client"`
	Headers     Fields     `json:"headers"`
	Body        string     `json:"body"`

	// Data holds the compacted body when the body is a single valid JSON
	// value, nil otherwise. A nil Data marshals as null.
	Data json.RawMessage `json:"data"`
}

// Value decodes Data. It returns nil when the body was not JSON.
func (r *Request) Value() (interface{}, error) {
	if r.Data == nil {
		return nil, nil
	}
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(r.Data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
