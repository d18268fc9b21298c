package config

// Environment variables read by FromEnv.
const (
	EnvDatabaseURL   = "DATABASE_URL"
	EnvRedisURL      = "REDIS_URL"
	EnvGeocodeAPIKey = "GEOCODE_API_KEY"
	EnvGeocodeURL    = "GEOCODE_URL"
	EnvChromePath    = "CHROME_PATH"
)

// FromEnv returns a Config holding only the values set in the environment.
// getenv is usually os.Getenv.
func FromEnv(getenv func(string) string) Config {
	return Config{
		DatabaseURL: getenv(EnvDatabaseURL),
		RedisURL:    getenv(EnvRedisURL),
		BrowserPath: getenv(EnvChromePath),
		Geocode: GeocodeConfig{
			URL:    getenv(EnvGeocodeURL),
			APIKey: getenv(EnvGeocodeAPIKey),
		},
	}
}
