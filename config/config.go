package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends understood by database.Open.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMongo    = "mongo"
)

type Config struct {
	AppEnv   string
	LogLevel string
	Port     int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	AcceptedOrigins []string

	Database Database
}

type Database struct {
	Type          string
	URL           string
	ReplicaURLs   []string
	SQLitePath    string
	SlowThreshold time.Duration

	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// SetDefaults registers every key with its default and enables environment
// lookup, so DB_TYPE overrides db_type.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", 8080)

	v.SetDefault("read_timeout_seconds", 180)
	v.SetDefault("write_timeout_seconds", 180)
	v.SetDefault("idle_timeout_seconds", 180)
	v.SetDefault("shutdown_timeout_seconds", 30)

	v.SetDefault("accepted_origins", "*")

	v.SetDefault("db_type", StoreSQLite)
	v.SetDefault("database_url", "")
	v.SetDefault("database_replica_urls", "")
	v.SetDefault("sqlite_path", "issues.db")
	v.SetDefault("db_slow_threshold", 2*time.Second)

	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_database", "issuetracker")
	v.SetDefault("mongo_collection", "issues")

	v.AutomaticEnv()
}

func Load(v *viper.Viper) Config {
	return Config{
		AppEnv:   v.GetString("app_env"),
		LogLevel: v.GetString("log_level"),
		Port:     v.GetInt("port"),

		ReadTimeout:     seconds(v, "read_timeout_seconds"),
		WriteTimeout:    seconds(v, "write_timeout_seconds"),
		IdleTimeout:     seconds(v, "idle_timeout_seconds"),
		ShutdownTimeout: seconds(v, "shutdown_timeout_seconds"),

		AcceptedOrigins: splitList(v.GetString("accepted_origins")),

		Database: Database{
			Type:          strings.ToLower(strings.TrimSpace(v.GetString("db_type"))),
			URL:           v.GetString("database_url"),
			ReplicaURLs:   splitList(v.GetString("database_replica_urls")),
			SQLitePath:    v.GetString("sqlite_path"),
			SlowThreshold: v.GetDuration("db_slow_threshold"),

			MongoURI:        v.GetString("mongo_uri"),
			MongoDatabase:   v.GetString("mongo_database"),
			MongoCollection: v.GetString("mongo_collection"),
		},
	}
}

func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt(key)) * time.Second
}

// splitList parses a comma separated value, skipping blanks.
func splitList(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
