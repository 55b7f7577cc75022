package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Cfg struct {
	WebISS   WebISS
	Logger   Logger
	Browser  Browser
	Wizard   Wizard
	Paths    Paths
	HTTP     HTTP
	NATS     NATS
	Selector Selector
}

type WebISS struct {
	URL          string
	Username     string
	Password     string
	LoginRetries int
}

type Logger struct {
	Env   string
	Level string
}

type Browser struct {
	Driver       string // playwright | rod
	Engine       string // firefox | chromium | webkit (только playwright)
	Display      string
	Headless     bool
	BrowsersPath string
}

// Wizard содержит тайминги и политики прохождения мастера
type Wizard struct {
	StepTimeout        time.Duration
	StepDelay          time.Duration
	AmbiguousAsSuccess bool
	ServiceDescription string
}

type Paths struct {
	DataDir string
	LogsDir string
}

type HTTP struct {
	Host string
	Port string
}

type NATS struct {
	URL     string
	Subject string
}

type Selector struct {
	File string
}

func Load() (*Cfg, error) {
	_ = godotenv.Load()

	cfg := &Cfg{
		WebISS: WebISS{
			URL:          env("WEBISS_URL", "https://palmasto.webiss.com.br"),
			Username:     os.Getenv("WEBISS_USERNAME"),
			Password:     os.Getenv("WEBISS_PASSWORD"),
			LoginRetries: envInt("LOGIN_RETRIES", 2),
		},
		Logger: Logger{
			Env:   env("ENV", "dev"),
			Level: env("LOG_LEVEL", "info"),
		},
		Browser: Browser{
			Driver:       strings.ToLower(env("BROWSER_DRIVER", "playwright")),
			Engine:       strings.ToLower(env("PW_BROWSER", "firefox")),
			Display:      env("DISPLAY", ":0"),
			Headless:     envBool("HEADLESS_MODE"),
			BrowsersPath: env("PLAYWRIGHT_BROWSERS_PATH", ""),
		},
		Wizard: Wizard{
			StepTimeout:        envSeconds("TIMEOUT", 15),
			StepDelay:          envSeconds("DELAY_BETWEEN_ACTIONS", 2.0),
			AmbiguousAsSuccess: env("ISSUANCE_AMBIGUOUS_POLICY", "success") != "failure",
			ServiceDescription: env("SERVICE_DESCRIPTION", "prestação de serviços educacionais"),
		},
		Paths: Paths{
			DataDir: env("DATA_DIRECTORY", "data"),
			LogsDir: env("LOGS_DIRECTORY", "logs"),
		},
		HTTP: HTTP{
			Host: env("HTTP_HOST", "127.0.0.1"),
			Port: env("HTTP_PORT", "8080"),
		},
		NATS: NATS{
			URL:     os.Getenv("NATS_URL"),
			Subject: env("NATS_SUBJECT", "nfse.outcomes"),
		},
		Selector: Selector{
			File: os.Getenv("SELECTORS_FILE"),
		},
	}

	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
		}
	}

	return cfg, nil
}

func env(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "true" || v == "1" || v == "yes"
}

// envSeconds читает дробное число секунд (например "2.5")
func envSeconds(key string, defaultValue float64) time.Duration {
	secs := defaultValue
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64); err == nil && f >= 0 {
			secs = f
		}
	}
	return time.Duration(secs * float64(time.Second))
}
