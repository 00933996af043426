package tools

import (
	"context"
	"fmt"
	"strings"
)

// WeatherTool answers weather queries from a fixed table. A real deployment
// would swap the table for a weather API call; keeping it deterministic makes
// the tool directly testable and idempotent.
type WeatherTool struct{}

type weatherArgs struct {
	City string `json:"city" jsonschema:"description=Name of the city to get the weather for"`
}

var weatherTable = map[string]string{
	"london":        "overcast, 14°C",
	"paris":         "partly cloudy, 17°C",
	"tokyo":         "light rain, 21°C",
	"new york":      "clear, 19°C",
	"san francisco": "fog, 15°C",
}

func (t *WeatherTool) Name() string { return "get_weather" }

func (t *WeatherTool) Description() string {
	return "Gets the current weather for a city. Args: city (string)."
}

func (t *WeatherTool) Parameters() map[string]interface{} {
	return schemaFor(&weatherArgs{})
}

func (t *WeatherTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	city, err := stringArg(args, "city")
	if err != nil {
		return "", err
	}
	conditions, ok := weatherTable[strings.ToLower(strings.TrimSpace(city))]
	if !ok {
		return fmt.Sprintf("No weather data available for %s.", city), nil
	}
	return fmt.Sprintf("Weather in %s: %s", city, conditions), nil
}
