package middleware

import (
	"github.com/labstack/echo/v4"
)

type header struct {
	name, value string
}

// apiHeaders are sent on every response. Responses carry patient records, so
// nothing may be framed, sniffed, or kept in a shared cache.
var apiHeaders = []header{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Referrer-Policy", "no-referrer"},
	{"Cache-Control", "no-store"},
}

const hstsValue = "max-age=31536000; includeSubDomains"

// SecurityHeaders writes apiHeaders, plus Strict-Transport-Security when hsts
// is set (deployments behind TLS).
func SecurityHeaders(hsts bool) echo.MiddlewareFunc {
	headers := apiHeaders
	if hsts {
		headers = append(append([]header(nil), apiHeaders...), header{"Strict-Transport-Security", hstsValue})
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for _, hd := range headers {
				h.Set(hd.name, hd.value)
			}
			return next(c)
		}
	}
}
