package helpers

import (
	"os"
	"regexp"
	"strings"
)

const sanRegexStr = `[\/:*?"><|]`

var sanRegex = regexp.MustCompile(sanRegexStr)

// Sanitise cleans a file name by replacing characters that are invalid on
// common filesystems. Category keys are normally plain ASCII identifiers,
// but the mediator does not guarantee it.
func Sanitise(filename string) string {
	return strings.TrimSpace(sanRegex.ReplaceAllString(filename, "_"))
}

// MakeDirs creates directories recursively.
func MakeDirs(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file (not directory) exists at the given path.
func FileExists(path string) (bool, error) {
	f, err := os.Stat(path)
	if err == nil {
		return !f.IsDir(), nil
	} else if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
