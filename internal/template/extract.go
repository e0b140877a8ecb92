package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrPathNotFound is returned when a JSONPath matches nothing usable.
	ErrPathNotFound = errors.New("path not found")
	// ErrInvalidJSON is returned for bodies that are not JSON.
	ErrInvalidJSON = errors.New("invalid JSON in response body")
)

// ExtractString returns the string at path. Missing, null and empty values
// all yield ErrPathNotFound.
func ExtractString(body []byte, path string) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", ErrInvalidJSON
	}
	v := gjson.GetBytes(body, convertJSONPath(path))
	if v.Type == gjson.Null || v.String() == "" {
		return "", fmt.Errorf("%w: %q", ErrPathNotFound, path)
	}
	return v.String(), nil
}

// jsonPathToGJSON rewrites index and wildcard brackets into gjson segments.
var jsonPathToGJSON = strings.NewReplacer("[*]", ".#", "[", ".", "]", "")

// convertJSONPath turns $.items[0].id into items.0.id and $.data[*].name into data.#.name.
func convertJSONPath(path string) string {
	path = strings.TrimPrefix(strings.TrimPrefix(path, "$"), ".")
	return jsonPathToGJSON.Replace(path)
}
