package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	bootstrap := zap.NewExample().Sugar()
	loadEnvFile(bootstrap)

	newApp().Run()
}

// loadEnvFile loads the nearest .env without overriding variables already set.
func loadEnvFile(logger *zap.SugaredLogger) {
	path, err := findEnvFile()
	if err != nil {
		logger.Warnw("failed to locate .env", "error", err)
		return
	}
	if path == "" {
		logger.Infow(".env not found in current or parent directories")
		return
	}
	if err := godotenv.Load(path); err != nil {
		logger.Warnw("failed to load env file", "path", path, "error", err)
		return
	}
	logger.Infow("loaded env file", "path", path)
}

func findEnvFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for i := 0; i < 6; i++ {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}
