package middleware

import (
	"net/http"

	"github.com/mssola/useragent"

	"employee-compass/pkg/requestcontext"
)

// Device parses the User-Agent into a human-readable description
// ("Chrome on Windows") and stores it in the context. Login and logout audit
// entries use it for their detail line.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithDevice(r.Context(), DescribeUserAgent(r.UserAgent()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DescribeUserAgent renders a raw User-Agent as "<browser> on <platform>".
// Unparseable agents come back as "unknown device".
func DescribeUserAgent(raw string) string {
	if raw == "" {
		return "unknown device"
	}
	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	os := ua.OSInfo().Name
	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case os != "":
		return os
	default:
		return "unknown device"
	}
}
