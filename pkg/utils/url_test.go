package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAgentEndpoint(t *testing.T) {
	testdata := map[string]string{
		"http://agent":        "http://agent:5051",
		"http://agent:5051":   "http://agent:5051",
		"http://agent:8080":   "http://agent:8080",
		"https://agent":       "https://agent:5051",
		"agent":               "http://agent:5051",
		"agent:8080":          "http://agent:8080",
		"192.168.0.1":         "http://192.168.0.1:5051",
		"[::1]:5051":          "http://[::1]:5051",
		"ftp://agent":         "",
		"http://":             "",
		"cache_object:foo/ba": "",
	}

	for input, expected := range testdata {
		endpoint, err := ParseAgentEndpoint(input)
		if expected == "" {
			assert.Error(t, err, input)
		} else {
			assert.NoError(t, err, input)
			assert.Equal(t, expected, endpoint, input)
		}
	}
}
