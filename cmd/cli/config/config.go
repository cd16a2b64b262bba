package config

import "os"

const defaultAPIURL = "http://localhost:3000"

// APIURL returns the base URL of the API.
// It can be overridden with the API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}
