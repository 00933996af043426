// Package tools defines the Tool interface the agent can invoke and the
// registry that holds the declarative list of available tools. The registry
// is built once at startup and read-only afterwards; tools themselves are
// stateless and safe for concurrent use.
package tools

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/invopop/jsonschema"
	"github.com/parleyhq/parley/errors"
)

// Tool defines a named action the agent may take. Description and Parameters
// are consumed by the LLM provider to decide when and how to call the tool.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns a JSON-schema object describing the arguments.
	Parameters() map[string]interface{}
	Execute(ctx context.Context, args map[string]interface{}) (string, error)
}

// Registry holds all registered tools by name.
type Registry struct {
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering a second tool with the same name is a
// programming error.
func (r *Registry) Register(t Tool) error {
	if _, exists := r.tools[t.Name()]; exists {
		return errors.New("tool %q is already registered", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// Get returns a tool by exact name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Active selects tools matching any of the given glob patterns, in name
// order. A pattern with no wildcard must match a registered tool exactly;
// an unmatched literal name is an error so configuration typos surface at
// startup instead of silently dropping tools.
func (r *Registry) Active(patterns []string) ([]Tool, error) {
	selected := make(map[string]bool)
	for _, pattern := range patterns {
		if !hasWildcard(pattern) {
			if _, ok := r.tools[pattern]; !ok {
				return nil, errors.New("tool %q is not registered (available: %v)", pattern, r.Names())
			}
			selected[pattern] = true
			continue
		}
		for name := range r.tools {
			match, err := doublestar.Match(pattern, name)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid tool pattern %q", pattern)
			}
			if match {
				selected[name] = true
			}
		}
	}

	var active []Tool
	for _, name := range r.Names() {
		if selected[name] {
			active = append(active, r.tools[name])
		}
	}
	return active, nil
}

func hasWildcard(pattern string) bool {
	for _, c := range pattern {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

// schemaFor reflects a JSON schema from an argument struct. Schemas are
// inlined (no $ref) because the providers expect a self-contained object.
func schemaFor(v interface{}) map[string]interface{} {
	reflector := &jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	schema := reflector.Reflect(v)

	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
	}
	delete(m, "$schema")
	delete(m, "$id")
	return m
}

// stringArg extracts a required string argument from a tool call.
func stringArg(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", errors.New("missing or invalid %q argument", key)
	}
	return v, nil
}
