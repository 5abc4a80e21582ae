package tools

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
)

type weatherReading struct {
	TempF     int
	Condition string
	Humidity  int
}

// weatherData is the fixed city table. Lookups are case-insensitive.
var weatherData = map[string]weatherReading{
	"new york":      {45, "Partly Cloudy", 65},
	"los angeles":   {72, "Sunny", 40},
	"chicago":       {38, "Windy", 55},
	"houston":       {68, "Clear", 70},
	"phoenix":       {85, "Sunny", 15},
	"san francisco": {58, "Foggy", 80},
	"seattle":       {48, "Rainy", 85},
	"miami":         {78, "Humid", 90},
	"denver":        {42, "Snow", 45},
	"boston":        {40, "Cloudy", 60},
	"london":        {50, "Rainy", 75},
	"paris":         {55, "Overcast", 70},
	"tokyo":         {60, "Clear", 50},
	"sydney":        {75, "Sunny", 55},
}

// randomConditions are used for cities outside the fixed table.
var randomConditions = []string{"Sunny", "Cloudy", "Rainy", "Windy", "Clear", "Partly Cloudy"}

func weatherMockTool() *Tool {
	return &Tool{
		Name:        "weather_mock",
		Description: "Get mock weather information for a city.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{
					"type":        "string",
					"description": "The name of the city to get weather for",
				},
			},
			"required": []string{"city"},
		},
		Handler: handleWeatherMock,
	}
}

func handleWeatherMock(ctx context.Context, args map[string]any) (string, error) {
	city, _ := args["city"].(string)

	data, ok := weatherData[strings.ToLower(strings.TrimSpace(city))]
	if !ok {
		// Unknown cities get a simulated reading rather than an error.
		data = weatherReading{
			TempF:     30 + rand.IntN(61),
			Condition: randomConditions[rand.IntN(len(randomConditions))],
			Humidity:  20 + rand.IntN(71),
		}
	}

	tempC := float64(data.TempF-32) * 5 / 9

	return fmt.Sprintf("Weather in %s:\n  Temperature: %d°F (%.1f°C)\n  Condition: %s\n  Humidity: %d%%",
		titleCase(city), data.TempF, tempC, data.Condition, data.Humidity), nil
}
