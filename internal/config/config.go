package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port                 int
	DBDSN                string
	JWTSecret            string
	DataDir              string
	OpenAIBaseURL        string
	OpenAIModel          string
	WSInsecureSkipVerify bool
}

func Load() Config {
	port := 8084
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}

	dataDir := "./data"
	if v := os.Getenv("DATA_DIR"); v != "" {
		dataDir = v
	}

	model := "gpt-4o-mini"
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		model = v
	}

	wsInsecure := false
	if os.Getenv("WS_INSECURE_SKIP_VERIFY") == "true" {
		wsInsecure = true
	}

	return Config{
		Port:                 port,
		DBDSN:                os.Getenv("DB_DSN"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		DataDir:              dataDir,
		OpenAIBaseURL:        os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:          model,
		WSInsecureSkipVerify: wsInsecure,
	}
}
