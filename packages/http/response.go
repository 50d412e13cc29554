package http

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Response is the outcome of one exchange. A transport failure leaves
// StatusCode at zero and sets Error.
type Response struct {
	StatusCode int
	Status     string
	Headers    map[string][]string
	Body       []byte
	Duration   time.Duration
	Error      string
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// HeaderValues returns every value of a header, matched case-insensitively.
func (r *Response) HeaderValues(key string) []string {
	if v, ok := r.Headers[key]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

func (r *Response) Header(key string) string {
	values := r.HeaderValues(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

// IsJSON reports whether the body is JSON, by content type or by content.
func (r *Response) IsJSON() bool {
	if strings.Contains(r.ContentType(), "json") {
		return true
	}
	return len(r.Body) > 0 && gjson.ValidBytes(r.Body)
}

func (r *Response) IsSuccess() bool {
	return r.Error == "" && r.StatusCode >= 200 && r.StatusCode < 300
}
