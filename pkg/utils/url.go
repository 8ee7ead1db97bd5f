package utils

import (
	"errors"
	"net/url"
)

// Parses the agent endpoint and returns it normalized to
// <scheme>://<host>:<port>. If the port is not specified, it defaults
// to 5051. The scheme must be "http" or "https"; a bare <host>:<port>
// is treated as http.
func ParseAgentEndpoint(urlstr string) (string, error) {
	uri, err := url.Parse(urlstr)
	if err != nil || uri.Host == "" && uri.Scheme != "http" && uri.Scheme != "https" {
		uri, err = url.Parse("http://" + urlstr)
		if err != nil {
			return "", err
		}
	}

	switch uri.Scheme {
	case "http", "https":
	default:
		return "", errors.New("Unsupported protocol: " + uri.Scheme)
	}

	if uri.Hostname() == "" {
		return "", errors.New("Invalid agent endpoint: " + urlstr)
	}

	if uri.Port() == "" {
		uri.Host += ":5051"
	}

	return uri.Scheme + "://" + uri.Host, nil
}
