package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/geo-attendance/internal/geo"
)

var allKeys = []string{
	"ATTENDANCE_HTTP_PORT",
	"ATTENDANCE_LOG_LEVEL",
	"ATTENDANCE_STORE_BACKEND",
	"ATTENDANCE_SQLITE_DSN",
	"ATTENDANCE_POSTGRES_DSN",
	"ATTENDANCE_REDIS_URL",
	"ATTENDANCE_STORE_KEY",
	"ATTENDANCE_ZONE_FILE",
	"ATTENDANCE_ZONE_LATITUDE",
	"ATTENDANCE_ZONE_LONGITUDE",
	"ATTENDANCE_ZONE_RADIUS_METERS",
	"ATTENDANCE_LOCATION_TIMEOUT",
	"ATTENDANCE_LOCATION_MAX_AGE",
	"ATTENDANCE_LOCATION_HIGH_ACCURACY",
}

// clearEnv blanks every variable; t.Setenv restores the previous values afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.Backend != BackendSQLite {
			t.Fatalf("expected sqlite backend, got %q", cfg.Backend)
		}
		if cfg.SQLiteDSN != "file:attendance.db?_pragma=busy_timeout(5000)" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.StoreKey != "attendanceRecords" {
			t.Fatalf("unexpected store key: %q", cfg.StoreKey)
		}
		if cfg.Zone != DefaultZone() {
			t.Fatalf("unexpected zone: %+v", cfg.Zone)
		}
		if !cfg.Location.HighAccuracy || cfg.Location.Timeout != 10*time.Second || cfg.Location.MaxCachedAge != time.Minute {
			t.Fatalf("unexpected location request: %+v", cfg.Location)
		}
	})

	t.Run("parses overrides", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ATTENDANCE_HTTP_PORT", "9090")
		t.Setenv("ATTENDANCE_LOG_LEVEL", "DEBUG")
		t.Setenv("ATTENDANCE_STORE_BACKEND", "redis")
		t.Setenv("ATTENDANCE_REDIS_URL", "redis://localhost:6379/0")
		t.Setenv("ATTENDANCE_STORE_KEY", "site-b")
		t.Setenv("ATTENDANCE_ZONE_LATITUDE", "51.5074")
		t.Setenv("ATTENDANCE_ZONE_LONGITUDE", "-0.1278")
		t.Setenv("ATTENDANCE_ZONE_RADIUS_METERS", "250")
		t.Setenv("ATTENDANCE_LOCATION_TIMEOUT", "5s")
		t.Setenv("ATTENDANCE_LOCATION_MAX_AGE", "0s")
		t.Setenv("ATTENDANCE_LOCATION_HIGH_ACCURACY", "false")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		want := geo.Zone{Center: geo.Point{Latitude: 51.5074, Longitude: -0.1278}, RadiusMeters: 250}
		if cfg.HTTPPort != 9090 || cfg.LogLevel != "debug" || cfg.Backend != BackendRedis || cfg.StoreKey != "site-b" {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if cfg.Zone != want {
			t.Fatalf("expected zone %+v, got %+v", want, cfg.Zone)
		}
		if cfg.Location.HighAccuracy || cfg.Location.Timeout != 5*time.Second || cfg.Location.MaxCachedAge != 0 {
			t.Fatalf("unexpected location request: %+v", cfg.Location)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ATTENDANCE_STORE_BACKEND", "postgres")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "required environment variables are not set: ATTENDANCE_POSTGRES_DSN"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("collects invalid values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ATTENDANCE_HTTP_PORT", "abc")
		t.Setenv("ATTENDANCE_STORE_BACKEND", "mongo")
		t.Setenv("ATTENDANCE_LOCATION_TIMEOUT", "soon")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for invalid values")
		}
		for _, key := range []string{"ATTENDANCE_HTTP_PORT", "ATTENDANCE_STORE_BACKEND", "ATTENDANCE_LOCATION_TIMEOUT"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in %q", key, err.Error())
			}
		}
	})

	t.Run("rejects an out of range zone", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ATTENDANCE_ZONE_RADIUS_METERS", "-5")

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "ATTENDANCE_ZONE_*") {
			t.Fatalf("expected zone error, got %v", err)
		}
	})
}

func TestLoadZoneFile(t *testing.T) {
	t.Run("reads the document and lets env override it", func(t *testing.T) {
		clearEnv(t)
		path := writeFile(t, "zone.yaml", "center:\n  latitude: 48.8584\n  longitude: 2.2945\nradius_meters: 300\n")
		t.Setenv("ATTENDANCE_ZONE_FILE", path)
		t.Setenv("ATTENDANCE_ZONE_RADIUS_METERS", "500")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		want := geo.Zone{Center: geo.Point{Latitude: 48.8584, Longitude: 2.2945}, RadiusMeters: 500}
		if cfg.Zone != want {
			t.Fatalf("expected %+v, got %+v", want, cfg.Zone)
		}
	})

	t.Run("requires every field", func(t *testing.T) {
		path := writeFile(t, "zone.yaml", "center:\n  latitude: 48.8584\nradius_meters: 300\n")
		if _, err := LoadZoneFile(path); err == nil {
			t.Fatal("expected error for missing longitude")
		}
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		path := writeFile(t, "zone.yaml", "center: [\n")
		if _, err := LoadZoneFile(path); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ATTENDANCE_STORE_KEY", "")
	os.Unsetenv("ATTENDANCE_STORE_KEY")

	path := writeFile(t, ".env", "ATTENDANCE_STORE_KEY=from-dotenv\n")
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env"), path); err != nil {
		t.Fatalf("LoadDotEnv returned error: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.StoreKey != "from-dotenv" {
		t.Fatalf("expected store key from .env, got %q", cfg.StoreKey)
	}
}
