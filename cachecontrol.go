package courier

import (
	"strconv"
	"strings"
	"time"
)

// cacheDirectives represents parsed Cache-Control directives. Only the
// directives the pipeline acts on are retained.
type cacheDirectives struct {
	NoStore bool
	NoCache bool
	MaxAge  *time.Duration
}

// parseCacheControl parses a Cache-Control header into structured directives.
func parseCacheControl(header string) cacheDirectives {
	var directives cacheDirectives
	if header == "" {
		return directives
	}

	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, "=") {
			kv := strings.SplitN(part, "=", 2)
			if len(kv) != 2 {
				continue
			}
			key := strings.ToLower(strings.TrimSpace(kv[0]))
			value := strings.Trim(strings.TrimSpace(kv[1]), "\"")

			if key == "max-age" {
				if seconds, err := strconv.Atoi(value); err == nil {
					maxAge := time.Duration(seconds) * time.Second
					directives.MaxAge = &maxAge
				}
			}
			continue
		}

		switch strings.ToLower(part) {
		case "no-store":
			directives.NoStore = true
		case "no-cache":
			directives.NoCache = true
		}
	}

	return directives
}

// freshnessTTL returns the storable lifetime of a response envelope, or
// false when the envelope must not be cached: non-2xx status, no-store,
// no-cache, or a missing/non-positive max-age.
func freshnessTTL(resp *Response) (time.Duration, bool) {
	if !resp.OK() {
		return 0, false
	}
	directives := parseCacheControl(resp.Headers.Get("Cache-Control"))
	if directives.NoStore || directives.NoCache {
		return 0, false
	}
	if directives.MaxAge == nil || *directives.MaxAge <= 0 {
		return 0, false
	}
	return *directives.MaxAge, true
}
