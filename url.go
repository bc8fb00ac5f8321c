package portal

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/fatih/structs"
)

// DefaultURLBuilder appends params to base as a query string.
//
// Function values are called and their result is used. Nil values
// produce empty parameters.
func DefaultURLBuilder(base string, params map[string]any) string {
	q := make(url.Values, len(params))
	for key, value := range params {
		q.Set(key, formatParam(value))
	}
	if len(q) == 0 {
		return base
	}

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

func formatParam(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case func() string:
		return v()
	case func() any:
		return formatParam(v())
	case fmt.Stringer:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(v)
}

// paramsMap flattens Config.Params.
func paramsMap(params any) map[string]any {
	if params == nil {
		return nil
	}

	switch p := params.(type) {
	case map[string]any:
		m := make(map[string]any, len(p))
		for k, v := range p {
			m[k] = v
		}
		return m
	case map[string]string:
		m := make(map[string]any, len(p))
		for k, v := range p {
			m[k] = v
		}
		return m
	case url.Values:
		m := make(map[string]any, len(p))
		for k := range p {
			m[k] = p.Get(k)
		}
		return m
	}

	if structs.IsStruct(params) {
		s := structs.New(params)
		s.TagName = "url"
		return s.Map()
	}
	panic(fmt.Sprintf("portal: Params must be a map or a struct, got %s", reflect.TypeOf(params)))
}

// buildURL builds the URL of the socket for the given transport.
func (s *Socket) buildURL(transportName string, extra map[string]any) string {
	params := map[string]any{
		"id":          s.id,
		"transport":   transportName,
		"heartbeat":   false,
		"lastEventId": s.LastEventID(),
		"_":           s.cacheBuster(),
	}
	if s.config.heartbeatEnabled() {
		params["heartbeat"] = s.config.Heartbeat.Milliseconds()
	}
	for k, v := range s.params {
		params[k] = v
	}
	for k, v := range extra {
		params[k] = v
	}
	return s.config.URLBuilder(s.url, params)
}

// BuildURL builds the URL of the socket for the transport of the current
// attempt, with additional query parameters.
func (s *Socket) BuildURL(params map[string]any) string {
	name, _ := s.Data("transport").(string)
	return s.buildURL(name, params)
}

func (s *Socket) cacheBuster() string {
	s.yeastMu.Lock()
	defer s.yeastMu.Unlock()
	return s.yeaster.Yeast()
}

func truncateURL(url string) string {
	if len(url) > 50 {
		return url[:50] + "..."
	}
	return url
}
