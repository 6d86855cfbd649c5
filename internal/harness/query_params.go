package harness

import (
	"net/url"

	"github.com/brendan.keane/shopcheck/internal/errors"
)

// ApplyQueryParameters adds query parameters to a target URL. Parameters
// already present in the URL are kept.
func ApplyQueryParameters(targetURL string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return targetURL, nil
	}

	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeValidation, "failed to parse target URL for query parameters").
			WithContext("url", targetURL)
	}

	query := parsedURL.Query()
	for key, value := range params {
		query.Add(key, value)
	}

	// Encode sorts by key
	parsedURL.RawQuery = query.Encode()
	return parsedURL.String(), nil
}
