package codec

import (
	"encoding/json"
	"strings"

	"github.com/DeBrosOfficial/pollbus/pkg/errors"
)

// TimeURL returns the URL of the server time endpoint.
func TimeURL(origin string) string {
	return strings.TrimRight(origin, "/") + "/time/0"
}

// DecodeTime parses the [timetoken] body returned by the time endpoint.
func DecodeTime(body []byte) (string, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return "", errors.NewDecodeError("", body, err)
	}
	if len(parts) == 0 {
		return "", errors.NewDecodeError("empty time response", body, nil)
	}
	token, err := parseToken(parts[0])
	if err != nil {
		return "", errors.NewDecodeError("", body, err)
	}
	return token, nil
}
