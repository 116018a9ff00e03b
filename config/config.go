package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/storage"
)

// Config holds every setting of the server, read from the environment.
type Config struct {
	// DatabaseURL is optional; without it the server keeps documents in memory.
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int
	LogLevel     slog.Level

	// ReminderInterval is how often the reminder sweep runs; zero disables it.
	ReminderInterval time.Duration
	SportRulesFile   string
	AllowedOrigins   []string

	R2 storage.CloudflareR2UploaderConfig
}

// Load reads the configuration from environment variables, loading a .env
// file first when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := strconv.Atoi(getEnvOrDefault("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnvOrDefault("LOG_LEVEL", "INFO"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
	}

	interval, err := time.ParseDuration(getEnvOrDefault("REMINDER_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_INTERVAL environment variable: %w", err)
	}
	if interval < 0 {
		return nil, fmt.Errorf("REMINDER_INTERVAL cannot be negative, got %s", interval)
	}

	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecretKey:     jwtKey,
		ServerPort:       port,
		LogLevel:         level,
		ReminderInterval: interval,
		SportRulesFile:   os.Getenv("SPORT_RULES_FILE"),
		AllowedOrigins:   splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		R2: storage.CloudflareR2UploaderConfig{
			AccountID:       os.Getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			BucketName:      os.Getenv("R2_BUCKET_NAME"),
			PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		},
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type sportCatalogue struct {
	Sports []models.SportRules `yaml:"sports"`
}

// LoadSportRules reads the sport catalogue from a YAML file. An empty path
// yields an empty catalogue.
func LoadSportRules(path string) ([]models.SportRules, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sport rules: %w", err)
	}
	return ParseSportRules(data)
}

// ParseSportRules decodes a catalogue document:
//
//	sports:
//	  - name: tenis
//	    uses_sets: true
//	    max_sets: 3
//	    win_points: 2
//	    loss_points: 1
func ParseSportRules(data []byte) ([]models.SportRules, error) {
	var cat sportCatalogue
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing sport rules: %w", err)
	}
	seen := make(map[string]bool, len(cat.Sports))
	for i, r := range cat.Sports {
		name := strings.ToLower(strings.TrimSpace(r.Name))
		if name == "" {
			return nil, fmt.Errorf("sport rules entry %d has no name", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("sport %q is listed twice", r.Name)
		}
		seen[name] = true
		if r.UsesSets && r.MaxSets > 0 && r.MaxSets%2 == 0 {
			return nil, fmt.Errorf("sport %q: max_sets must be odd, got %d", r.Name, r.MaxSets)
		}
	}
	return cat.Sports, nil
}
