package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/replaylog/internal/config"
)

type envConfig struct {
	Env               string `env:"ENV" envDefault:"production"`
	Port              int    `env:"PORT" envDefault:"3000"`
	DatabaseURL       string `env:"DATABASE_URL,required"`
	S3Bucket          string `env:"S3_BUCKET,required"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKey       string `env:"S3_ACCESS_KEY"`
	S3SecretKey       string `env:"S3_SECRET_KEY"`
	S3KeyPrefix       string `env:"S3_KEY_PREFIX"`
	IngestGapSecond   int    `env:"INGEST_GAP_SECOND" envDefault:"10"`
	IntervalGapSecond int    `env:"INTERVAL_GAP_SECOND" envDefault:"30"`
	CommitTimeoutSec  int    `env:"COMMIT_TIMEOUT_SECOND" envDefault:"60"`
	UploadConcurrency int    `env:"UPLOAD_CONCURRENCY" envDefault:"8"`
	MaxUploadBytes    int64  `env:"MAX_UPLOAD_BYTES" envDefault:"67108864"`
	ReplayBasePath    string `env:"REPLAY_BASE_PATH" envDefault:"/replay"`
	UploadWebhookURL  string `env:"UPLOAD_WEBHOOK_URL"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:               raw.Env,
		Port:              raw.Port,
		DatabaseURL:       raw.DatabaseURL,
		S3Bucket:          raw.S3Bucket,
		S3Endpoint:        raw.S3Endpoint,
		S3Region:          raw.S3Region,
		S3AccessKey:       raw.S3AccessKey,
		S3SecretKey:       raw.S3SecretKey,
		S3KeyPrefix:       raw.S3KeyPrefix,
		IngestGapSecond:   raw.IngestGapSecond,
		IntervalGapSecond: raw.IntervalGapSecond,
		CommitTimeoutSec:  raw.CommitTimeoutSec,
		UploadConcurrency: raw.UploadConcurrency,
		MaxUploadBytes:    raw.MaxUploadBytes,
		ReplayBasePath:    raw.ReplayBasePath,
		UploadWebhookURL:  raw.UploadWebhookURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
