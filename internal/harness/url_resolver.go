package harness

import (
	"net/url"
	"strings"

	"github.com/brendan.keane/shopcheck/internal/errors"
)

// ResolveURL joins path onto baseURL. An absolute path (scheme and host) is
// returned unchanged apart from query merging. Any query string already in
// the path is kept, and query is added on top.
func ResolveURL(baseURL, path string, query map[string]string) (string, error) {
	parsedPath, err := url.Parse(path)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeValidation, "invalid URL/path").
			WithContext("path", path)
	}

	var target *url.URL
	if parsedPath.Scheme != "" && parsedPath.Host != "" {
		target = parsedPath
	} else {
		if baseURL == "" {
			return "", errors.New(errors.ErrorTypeConfig, "no base URL available for relative path").
				WithContext("path", path).
				WithContext("suggestion", "set --base-url or give the case a base_url")
		}

		base, err := url.Parse(baseURL)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrorTypeValidation, "invalid base URL").
				WithContext("base_url", baseURL)
		}
		if base.Scheme == "" || base.Host == "" {
			return "", errors.New(errors.ErrorTypeValidation, "base URL must be absolute (e.g., https://example.com/api)").
				WithContext("base_url", baseURL)
		}

		target = base
		relPath := parsedPath.Path
		if !strings.HasPrefix(relPath, "/") {
			relPath = "/" + relPath
		}
		if base.Path != "" && base.Path != "/" {
			target.Path = strings.TrimSuffix(base.Path, "/") + relPath
		} else {
			target.Path = relPath
		}
		target.RawPath = ""
		target.RawQuery = joinRawQuery(base.RawQuery, parsedPath.RawQuery)
	}

	return ApplyQueryParameters(target.String(), query)
}

func joinRawQuery(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "&" + b
	}
}
