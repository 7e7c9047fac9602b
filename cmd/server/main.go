package main

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/shrutilabs/ragasense/internal/pitch"
	"github.com/shrutilabs/ragasense/internal/service"
)

var (
	port           int
	dbPath         string
	configDir      string
	tonic          string
	algorithm      string
	allowedOrigins string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("RAGASENSE_DB_PATH", "ragasense.sqlite3"), "Path to SQLite database")
	flag.StringVar(&configDir, "configs", os.Getenv("RAGASENSE_CONFIG_DIR"), "Directory with reference tables (empty = embedded)")
	flag.StringVar(&tonic, "tonic", "261.63", "Default Sa frequency in Hz or a tuning preset name")
	flag.StringVar(&algorithm, "algorithm", "acf", "Pitch tracking backend (acf or amdf)")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()

	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	opts := []service.Option{
		service.WithDBPath(dbPath),
		service.WithAlgorithm(pitch.Algorithm(algorithm)),
	}
	if configDir != "" {
		opts = append(opts, service.WithConfigDir(configDir))
	}

	svc, err := service.NewAnalysisService(opts...)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer svc.Close()

	// The tonic flag takes a raw Hz value or a preset name from tuning.json.
	if hz, err := strconv.ParseFloat(tonic, 64); err == nil && hz > 0 {
		service.WithTonic(hz)(svc)
	} else if preset, ok := svc.References().Tuning[strings.ToLower(tonic)]; ok {
		service.WithTonic(preset.ReferenceSaHz)(svc)
	} else {
		log.Fatalf("Unknown tonic %q: pass a frequency in Hz or a tuning preset name", tonic)
	}

	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		AllowedOrigins: origins,
	}

	server := NewServer(svc, config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
