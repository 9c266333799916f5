package observability

import (
	"net/url"
	"strings"
)

// ParseOTLPHeaders reads OTEL_EXPORTER_OTLP_HEADERS syntax:
// comma-separated key=value pairs with percent-encoded values. Malformed
// pairs are skipped; nil is returned when nothing usable remains.
func ParseOTLPHeaders(raw string) map[string]string {
	var headers map[string]string

	for pair := range strings.SplitSeq(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)

		if !ok || key == "" {
			continue
		}

		decoded, err := url.PathUnescape(strings.TrimSpace(value))
		if err != nil {
			continue
		}

		if headers == nil {
			headers = make(map[string]string)
		}

		headers[key] = decoded
	}

	return headers
}
