package tools

import (
	"context"
	"time"
)

// CurrentTimeTool reports the current time. No arguments, no state, a
// single string result.
type CurrentTimeTool struct {
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

type currentTimeArgs struct{}

func (t *CurrentTimeTool) Name() string { return "current_time" }

func (t *CurrentTimeTool) Description() string {
	return "Returns the current date and time in ISO-8601 format. Takes no arguments."
}

func (t *CurrentTimeTool) Parameters() map[string]interface{} {
	return schemaFor(&currentTimeArgs{})
}

func (t *CurrentTimeTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	return now().Format(time.RFC3339), nil
}
