package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/example/geo-attendance/internal/geo"
	"github.com/example/geo-attendance/internal/location"
)

// Store backends accepted by ATTENDANCE_STORE_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config captures environment driven configuration values for the attendance service.
type Config struct {
	HTTPPort    int
	LogLevel    string
	Backend     string
	SQLiteDSN   string
	PostgresDSN string
	RedisURL    string
	StoreKey    string
	Zone        geo.Zone
	Location    location.Request
}

// DefaultZone is the attendance zone used when nothing is configured.
func DefaultZone() geo.Zone {
	return geo.Zone{
		Center:       geo.Point{Latitude: 40.7128, Longitude: -74.0060},
		RadiusMeters: 1000,
	}
}

// LoadDotEnv reads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load parses configuration values from the current process environment.
//
// Optional values fall back to defaults. Every missing or malformed variable
// is collected and reported in a single error.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:  8080,
		LogLevel:  "info",
		Backend:   BackendSQLite,
		SQLiteDSN: "file:attendance.db?_pragma=busy_timeout(5000)",
		StoreKey:  "attendanceRecords",
		Zone:      DefaultZone(),
		Location:  location.DefaultRequest(),
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if portValue := env("ATTENDANCE_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "ATTENDANCE_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if level := env("ATTENDANCE_LOG_LEVEL"); level != "" {
		switch strings.ToLower(level) {
		case "debug", "info", "warn", "warning", "error":
			cfg.LogLevel = strings.ToLower(level)
		default:
			invalid = append(invalid, "ATTENDANCE_LOG_LEVEL")
		}
	}

	if backend := env("ATTENDANCE_STORE_BACKEND"); backend != "" {
		switch strings.ToLower(backend) {
		case BackendSQLite, BackendPostgres, BackendRedis, BackendMemory:
			cfg.Backend = strings.ToLower(backend)
		default:
			invalid = append(invalid, "ATTENDANCE_STORE_BACKEND")
		}
	}

	if dsn := env("ATTENDANCE_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	cfg.PostgresDSN = env("ATTENDANCE_POSTGRES_DSN")
	cfg.RedisURL = env("ATTENDANCE_REDIS_URL")
	switch {
	case cfg.Backend == BackendPostgres && cfg.PostgresDSN == "":
		missing = append(missing, "ATTENDANCE_POSTGRES_DSN")
	case cfg.Backend == BackendRedis && cfg.RedisURL == "":
		missing = append(missing, "ATTENDANCE_REDIS_URL")
	}

	if key := env("ATTENDANCE_STORE_KEY"); key != "" {
		cfg.StoreKey = key
	}

	if path := env("ATTENDANCE_ZONE_FILE"); path != "" {
		zone, err := LoadZoneFile(path)
		if err != nil {
			invalid = append(invalid, "ATTENDANCE_ZONE_FILE")
		} else {
			cfg.Zone = zone
		}
	}

	zoneInvalid := len(invalid)
	parseFloat("ATTENDANCE_ZONE_LATITUDE", &cfg.Zone.Center.Latitude, &invalid)
	parseFloat("ATTENDANCE_ZONE_LONGITUDE", &cfg.Zone.Center.Longitude, &invalid)
	parseFloat("ATTENDANCE_ZONE_RADIUS_METERS", &cfg.Zone.RadiusMeters, &invalid)
	if len(invalid) == zoneInvalid {
		if err := cfg.Zone.Validate(); err != nil {
			invalid = append(invalid, "ATTENDANCE_ZONE_*")
		}
	}

	parseDuration("ATTENDANCE_LOCATION_TIMEOUT", &cfg.Location.Timeout, &invalid)
	parseDuration("ATTENDANCE_LOCATION_MAX_AGE", &cfg.Location.MaxCachedAge, &invalid)
	if value := env("ATTENDANCE_LOCATION_HIGH_ACCURACY"); value != "" {
		highAccuracy, err := strconv.ParseBool(value)
		if err != nil {
			invalid = append(invalid, "ATTENDANCE_LOCATION_HIGH_ACCURACY")
		} else {
			cfg.Location.HighAccuracy = highAccuracy
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

type zoneDocument struct {
	Center struct {
		Latitude  *float64 `yaml:"latitude"`
		Longitude *float64 `yaml:"longitude"`
	} `yaml:"center"`
	RadiusMeters *float64 `yaml:"radius_meters"`
}

// LoadZoneFile reads a YAML zone document:
//
//	center:
//	  latitude: 40.7128
//	  longitude: -74.0060
//	radius_meters: 1000
func LoadZoneFile(path string) (geo.Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return geo.Zone{}, fmt.Errorf("read zone file: %w", err)
	}

	var doc zoneDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return geo.Zone{}, fmt.Errorf("parse zone file: %w", err)
	}
	if doc.Center.Latitude == nil || doc.Center.Longitude == nil || doc.RadiusMeters == nil {
		return geo.Zone{}, fmt.Errorf("zone file %s: center.latitude, center.longitude and radius_meters are required", path)
	}

	zone := geo.Zone{
		Center:       geo.Point{Latitude: *doc.Center.Latitude, Longitude: *doc.Center.Longitude},
		RadiusMeters: *doc.RadiusMeters,
	}
	if err := zone.Validate(); err != nil {
		return geo.Zone{}, fmt.Errorf("zone file %s: %w", path, err)
	}
	return zone, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseFloat(key string, dst *float64, invalid *[]string) {
	value := env(key)
	if value == "" {
		return
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		*invalid = append(*invalid, key)
		return
	}
	*dst = f
}

func parseDuration(key string, dst *time.Duration, invalid *[]string) {
	value := env(key)
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		*invalid = append(*invalid, key)
		return
	}
	*dst = d
}
