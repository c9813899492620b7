package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"beltworks.ai/internal/persistence/r2s3"
)

// buildR2Mirror returns nil when mirroring is off.
func buildR2Mirror(logger *log.Logger) (*r2s3.Mirror, error) {
	if !envBool("BW_R2_MIRROR", false) {
		return nil, nil
	}

	endpoint := strings.TrimSpace(os.Getenv("BW_R2_ENDPOINT"))
	bucket := strings.TrimSpace(os.Getenv("BW_R2_BUCKET"))
	accessKeyID := strings.TrimSpace(os.Getenv("BW_R2_ACCESS_KEY_ID"))
	secretAccessKey := strings.TrimSpace(os.Getenv("BW_R2_SECRET_ACCESS_KEY"))
	prefix := strings.TrimSpace(os.Getenv("BW_R2_PREFIX"))

	if endpoint == "" || bucket == "" || accessKeyID == "" || secretAccessKey == "" {
		return nil, fmt.Errorf("BW_R2_MIRROR=true but BW_R2_ENDPOINT/BW_R2_BUCKET/BW_R2_ACCESS_KEY_ID/BW_R2_SECRET_ACCESS_KEY are not fully set")
	}

	client, err := r2s3.New(endpoint, bucket, accessKeyID, secretAccessKey)
	if err != nil {
		return nil, err
	}
	workers := envInt("BW_R2_UPLOAD_WORKERS", 1)
	return r2s3.NewMirror(client, prefix, workers, envInt("BW_R2_QUEUE", 64), 0, logger), nil
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
