package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register(&CurrentTimeTool{}))
	require.NoError(t, r.Register(&WeatherTool{}))
	return r
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Register(&WeatherTool{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistryNamesSorted(t *testing.T) {
	r := newTestRegistry(t)
	assert.Equal(t, []string{"current_time", "get_weather"}, r.Names())
}

func TestActiveSelectsAllWithWildcard(t *testing.T) {
	r := newTestRegistry(t)
	active, err := r.Active([]string{"*"})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "current_time", active[0].Name())
	assert.Equal(t, "get_weather", active[1].Name())
}

func TestActiveSelectsByGlob(t *testing.T) {
	r := newTestRegistry(t)
	active, err := r.Active([]string{"get_*"})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "get_weather", active[0].Name())
}

func TestActiveRejectsUnknownLiteral(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Active([]string{"launch_missiles"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestActiveDeduplicatesAcrossPatterns(t *testing.T) {
	r := newTestRegistry(t)
	active, err := r.Active([]string{"get_weather", "*"})
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestWeatherToolIsIdempotent(t *testing.T) {
	tool := &WeatherTool{}
	args := map[string]interface{}{"city": "London"}

	first, err := tool.Execute(context.Background(), args)
	require.NoError(t, err)
	second, err := tool.Execute(context.Background(), args)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "London")
}

func TestWeatherToolUnknownCity(t *testing.T) {
	tool := &WeatherTool{}
	out, err := tool.Execute(context.Background(), map[string]interface{}{"city": "Atlantis"})
	require.NoError(t, err)
	assert.Contains(t, out, "Atlantis")
}

func TestWeatherToolMissingArg(t *testing.T) {
	tool := &WeatherTool{}
	_, err := tool.Execute(context.Background(), map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "city")
}

func TestCurrentTimeToolUsesClock(t *testing.T) {
	fixed := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	tool := &CurrentTimeTool{Now: func() time.Time { return fixed }}

	out, err := tool.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, fixed.Format(time.RFC3339), out)
}

func TestSchemaForProducesObjectSchema(t *testing.T) {
	tool := &WeatherTool{}
	schema := tool.Parameters()

	assert.Equal(t, "object", schema["type"])
	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, props, "city")
	assert.NotContains(t, schema, "$schema")
}
