package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Env               string
	Port              int
	DatabaseURL       string
	S3Bucket          string
	S3Endpoint        string
	S3Region          string
	S3AccessKey       string
	S3SecretKey       string
	S3KeyPrefix       string
	IngestGapSecond   int
	IntervalGapSecond int
	CommitTimeoutSec  int
	UploadConcurrency int
	MaxUploadBytes    int64
	ReplayBasePath    string
	UploadWebhookURL  string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.IngestGapSecond < 0 {
		return fmt.Errorf("INGEST_GAP_SECOND must not be negative, got %d", c.IngestGapSecond)
	}
	if c.IntervalGapSecond < 0 {
		return fmt.Errorf("INTERVAL_GAP_SECOND must not be negative, got %d", c.IntervalGapSecond)
	}
	if c.CommitTimeoutSec <= 0 {
		return fmt.Errorf("COMMIT_TIMEOUT_SECOND must be positive, got %d", c.CommitTimeoutSec)
	}
	if c.UploadConcurrency <= 0 {
		return fmt.Errorf("UPLOAD_CONCURRENCY must be positive, got %d", c.UploadConcurrency)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.ReplayBasePath != "" && !strings.HasPrefix(c.ReplayBasePath, "/") {
		return fmt.Errorf("REPLAY_BASE_PATH must start with '/', got %q", c.ReplayBasePath)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "S3_BUCKET", value: c.S3Bucket},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IngestGap() time.Duration {
	return time.Duration(c.IngestGapSecond) * time.Second
}

func (c *Config) IntervalGap() time.Duration {
	return time.Duration(c.IntervalGapSecond) * time.Second
}

func (c *Config) CommitTimeout() time.Duration {
	return time.Duration(c.CommitTimeoutSec) * time.Second
}

// BasePath returns the route prefix without a trailing slash.
func (c *Config) BasePath() string {
	return strings.TrimSuffix(c.ReplayBasePath, "/")
}
