package config

import "os"

func BasePath() string {
	return os.Getenv("APP_BASE_PATH")
}

func Port() string {
	port := os.Getenv("APP_PORT")
	if port == "" {
		return ":8080"
	}
	return port
}

// DailySalt keys the daily-challenge board derivation. Changing it
// changes every future daily board, so treat it like a secret.
func DailySalt() string {
	salt := os.Getenv("DAILY_SALT")
	if salt == "" {
		return "fifteen-daily"
	}
	return salt
}
