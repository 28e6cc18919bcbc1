package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
)

const maxHeaderValueSize = 8 << 10

var scriptPattern = regexp.MustCompile(`(?i)(<script|javascript\s*:|on\w+\s*=)`)

// requestCheck returns a client-facing reason when r must be rejected.
type requestCheck func(r *http.Request) string

var requestChecks = []requestCheck{checkPath, checkHeaders, checkQuery}

// Sanitize answers 400 before routing reaches a handler when the path, a
// header or the query string looks hostile. Bodies are left to the decoders.
func Sanitize() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, check := range requestChecks {
				if reason := check(c.Request()); reason != "" {
					return echo.NewHTTPError(http.StatusBadRequest, reason)
				}
			}
			return next(c)
		}
	}
}

func checkPath(r *http.Request) string {
	for _, p := range [...]string{r.URL.Path, r.URL.RawPath} {
		lower := strings.ToLower(p)
		switch {
		case strings.Contains(lower, ".."), strings.Contains(lower, "%2e%2e"), strings.Contains(lower, "%252e"):
			return "path traversal detected"
		case containsNull(lower):
			return "null byte detected in path"
		}
	}
	return ""
}

func checkHeaders(r *http.Request) string {
	for name, values := range r.Header {
		for _, v := range values {
			if len(v) > maxHeaderValueSize {
				return "header value too large: " + name
			}
			if strings.ContainsAny(v, "\r\n") {
				return "header injection detected: " + name
			}
		}
	}
	return ""
}

func checkQuery(r *http.Request) string {
	for key, values := range r.URL.Query() {
		for _, s := range append([]string{key}, values...) {
			if containsNull(s) || scriptPattern.MatchString(s) {
				return "invalid query parameter"
			}
		}
	}
	return ""
}

func containsNull(s string) bool {
	return strings.ContainsRune(s, 0) || strings.Contains(strings.ToLower(s), "%00")
}
