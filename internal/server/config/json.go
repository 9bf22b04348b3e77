package config

import (
	"encoding/json"
	"os"

	"github.com/avelins/classmedia/internal/flagx"
	"github.com/avelins/classmedia/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "15m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP string `json:"endpoint_addr_http"`
	DatabaseDSN      string `json:"database_dsn"`
	SecretKey        string `json:"secret_key"`

	RedisURL       string `json:"redis_url"`
	QuotaBackend   string `json:"quota_backend"`
	StorageBackend string `json:"storage_backend"`

	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`

	UploadCredentialTTL timex.Duration `json:"upload_credential_ttl"`
	ConfirmHeadTimeout  timex.Duration `json:"confirm_head_timeout"`

	QuotaUploadsPerHour int64 `json:"quota_uploads_per_hour"`
	QuotaUploadsPerDay  int64 `json:"quota_uploads_per_day"`
	QuotaMaxTotalBytes  int64 `json:"quota_max_total_bytes"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags; when neither
// is set, no JSON file is loaded. If the file cannot be read or contains
// invalid JSON, the function panics. Zero-valued fields in the file keep the
// defaults already present in config.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.RedisURL != "" {
		config.RedisURL = c.RedisURL
	}
	if c.QuotaBackend != "" {
		config.QuotaBackend = c.QuotaBackend
	}
	if c.StorageBackend != "" {
		config.StorageBackend = c.StorageBackend
	}
	if c.S3AccessKey != "" {
		config.S3AccessKey = c.S3AccessKey
	}
	if c.S3SecretKey != "" {
		config.S3SecretKey = c.S3SecretKey
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if c.UploadCredentialTTL.Duration != 0 {
		config.UploadCredentialTTL = c.UploadCredentialTTL.Duration
	}
	if c.ConfirmHeadTimeout.Duration != 0 {
		config.ConfirmHeadTimeout = c.ConfirmHeadTimeout.Duration
	}
	if c.QuotaUploadsPerHour != 0 {
		config.QuotaUploadsPerHour = c.QuotaUploadsPerHour
	}
	if c.QuotaUploadsPerDay != 0 {
		config.QuotaUploadsPerDay = c.QuotaUploadsPerDay
	}
	if c.QuotaMaxTotalBytes != 0 {
		config.QuotaMaxTotalBytes = c.QuotaMaxTotalBytes
	}
}
