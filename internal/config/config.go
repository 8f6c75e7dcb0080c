package config

import "os"

type Config struct {
	Port      string
	PublicURL string
}

func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "8080")
	c.PublicURL = getenv("PUBLIC_URL", "http://localhost:"+c.Port)
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
