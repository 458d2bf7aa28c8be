package validator

import (
	"errors"
	"net/url"
)

// IsWebhookURL checks that a subscription target is an absolute http(s) URL.
func IsWebhookURL(raw string) error {
	if raw == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("invalid url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("url must use http or https")
	}
	if u.Host == "" {
		return errors.New("url is missing a host")
	}

	return nil
}
