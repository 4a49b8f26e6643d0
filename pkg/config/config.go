package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"lintang/floodnav/pkg/weight"

	"github.com/joho/godotenv"
)

type Config struct {
	Env            string
	ListenAddr     string
	MapFile        string
	DBPath         string
	WeightFile     string
	SnapCacheSize  int
	BatchWorkers   int
	FloodSearchKm  float64
	RequestTimeout time.Duration
	Rebuild        bool
}

// Load baca .env (kalau ada), lalu flag. Default flag diambil dari environment variable.
func Load(name string, args []string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.Env, "env", getEnv("FLOODNAV_ENV", "development"), "development | production")
	fs.StringVar(&cfg.ListenAddr, "listenaddr", getEnv("FLOODNAV_LISTEN_ADDR", ":5000"), "server listen address")
	fs.StringVar(&cfg.MapFile, "f", getEnv("FLOODNAV_MAP_FILE", "solo.osm.pbf"), "openstreetmap file buat road network graphnya")
	fs.StringVar(&cfg.DBPath, "db", getEnv("FLOODNAV_DB", "floodnavDB"), "pebble db directory")
	fs.StringVar(&cfg.WeightFile, "weights", getEnv("FLOODNAV_WEIGHTS", ""), "optional yaml file with road class & weather coefficients")
	fs.IntVar(&cfg.SnapCacheSize, "snapcache", getEnvInt("FLOODNAV_SNAP_CACHE", 4096), "coordinate snap lru cache size")
	fs.IntVar(&cfg.BatchWorkers, "workers", getEnvInt("FLOODNAV_BATCH_WORKERS", 4), "batch route workers")
	fs.Float64Var(&cfg.FloodSearchKm, "floodradius", getEnvFloat("FLOODNAV_FLOOD_RADIUS_KM", 5), "radius (km) stored flood zones are looked up around origin & destination")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", getEnvDuration("FLOODNAV_REQUEST_TIMEOUT", 30*time.Second), "per request routing timeout")
	fs.BoolVar(&cfg.Rebuild, "rebuild", false, "ignore the stored graph snapshot and rebuild from the map file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.BatchWorkers < 1 {
		return nil, fmt.Errorf("workers must be >= 1, got %d", cfg.BatchWorkers)
	}
	return cfg, nil
}

// WeightModel default coefficient table, di-override WeightFile kalau di-set.
func (c *Config) WeightModel() (*weight.Model, error) {
	if c.WeightFile == "" {
		return weight.NewDefaultModel(), nil
	}
	wcfg, err := weight.LoadConfig(c.WeightFile)
	if err != nil {
		return nil, err
	}
	return weight.NewModel(wcfg)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
