// Package safety provides helpers that keep agent-written files confined to
// the downloads directory.
package safety

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// ToolError is a machine-readable error body for surfacing back to the agent as JSON.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error returns a compact, single-line JSON string to keep tool_result payloads small.
func (e ToolError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// maxNameLen bounds sanitised topic names so generated filenames stay
// well under filesystem limits once sequence, hash and timestamp are added.
const maxNameLen = 64

// SanitizeName converts a model-supplied topic into a string safe to embed
// in a filename: path separators, traversal dots and control characters are
// replaced, whitespace collapses to underscores. An empty result is an
// error rather than a silent fallback.
func SanitizeName(topic string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(topic) {
		switch {
		case r == '/' || r == '\\' || r == '.' || r == ':':
			b.WriteRune('_')
		case unicode.IsSpace(r):
			b.WriteRune('_')
		case unicode.IsControl(r):
			// drop
		default:
			b.WriteRune(r)
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "", ToolError{Code: "ERR_BAD_TOPIC", Message: fmt.Sprintf("topic %q has no usable characters", topic)}
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	return name, nil
}

// ValidatePath resolves name against absRoot and returns an absolute path
// inside the downloads directory. It rejects absolute inputs and anything
// that resolves outside the root (traversal, sneaky separators).
func ValidatePath(absRoot, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", ToolError{Code: "ERR_PATH_OUTSIDE_DOWNLOADS", Message: "absolute paths are not allowed"}
	}

	cleaned := filepath.Clean(name)
	if cleaned == "" || cleaned == "." {
		return "", ToolError{Code: "ERR_PATH_OUTSIDE_DOWNLOADS", Message: "empty file name"}
	}

	candidate := filepath.Join(absRoot, cleaned)

	// Boundary check using filepath.Rel (robust against partial prefix matches).
	rel, err := filepath.Rel(absRoot, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", ToolError{Code: "ERR_PATH_OUTSIDE_DOWNLOADS", Message: "file name resolves outside the downloads directory"}
	}
	// Everything the store writes is flat; a separator means the name was
	// not produced by our own formatting.
	if strings.ContainsRune(rel, filepath.Separator) {
		return "", ToolError{Code: "ERR_PATH_OUTSIDE_DOWNLOADS", Message: "nested paths are not allowed"}
	}

	return candidate, nil
}
