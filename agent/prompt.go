package agent

import (
	_ "embed"
	"os"
	"strings"

	"github.com/parleyhq/parley/errors"
)

//go:embed system_prompt.txt
var defaultSystemPrompt string

// LoadSystemPrompt reads the system prompt from path exactly once at
// startup. An empty path selects the embedded default. The content is opaque
// configuration; it is trimmed but never parsed.
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return strings.TrimSpace(defaultSystemPrompt), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read system prompt %q", path)
	}
	return strings.TrimSpace(string(data)), nil
}
