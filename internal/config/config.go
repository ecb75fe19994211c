package config

import (
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	DiscordToken         string
	Debug                bool
	CommandGuildIds      []string // Guilds to sync commands to. Empty means global
	HousekeepingInterval time.Duration
	Database             DatabaseConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

// The command log is only kept when a database host is configured
func (db DatabaseConfig) Enabled() bool {
	return db.Host != ""
}

// Connection URL for pgx. Credentials are escaped by url.UserPassword
func (db DatabaseConfig) ConnString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.User, db.Password),
		Host:     net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:     db.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Load the configuration from the provided .env files (".env" when none
// is given) and the environment. Variables already present in the
// environment win over the ones in the files. A missing file is
// not an error, a malformed one is
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, errors.WithMessage(err, "could not load .env file")
	}

	var config Config

	config.DiscordToken = getEnv("DISCORD_TOKEN", "")
	if config.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}

	debug, err := strconv.ParseBool(getEnv("DEBUG", "false"))
	if err != nil {
		return Config{}, errors.WithMessage(err, "invalid DEBUG")
	}
	config.Debug = debug

	config.CommandGuildIds = splitList(getEnv("COMMAND_GUILD_IDS", ""))

	interval, err := time.ParseDuration(getEnv("HOUSEKEEPING_INTERVAL", "10m"))
	if err != nil {
		return Config{}, errors.WithMessage(err, "invalid HOUSEKEEPING_INTERVAL")
	}
	if interval <= 0 {
		return Config{}, errors.Errorf("HOUSEKEEPING_INTERVAL must be positive, got %s", interval)
	}
	config.HousekeepingInterval = interval

	config.Database, err = loadDatabase()
	if err != nil {
		return Config{}, err
	}

	return config, nil
}

func loadDatabase() (DatabaseConfig, error) {
	port, err := strconv.Atoi(getEnv("DATABASE_PORT", "5432"))
	if err != nil {
		return DatabaseConfig{}, errors.WithMessage(err, "invalid DATABASE_PORT")
	}
	return DatabaseConfig{
		Host:     getEnv("DATABASE_HOST", ""),
		Port:     port,
		User:     getEnv("DATABASE_USER", ""),
		Password: os.Getenv("DATABASE_PASSWORD"),
		Name:     getEnv("DATABASE_NAME", ""),
	}, nil
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
