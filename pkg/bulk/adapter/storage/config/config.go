// Package config holds the storage adapter settings decoded from the
// application configuration.
package config

// StorageConfig configures one storage backend.
type StorageConfig struct {
	// Type selects the backend: "local" or "gcs".
	Type string `yaml:"type"`
	// BucketName is the default bucket (or subdirectory for local).
	BucketName string `yaml:"bucket_name"`
	// CredentialsFile points at a service account key for GCS; empty uses
	// application default credentials.
	CredentialsFile string `yaml:"credentials_file"`
	// BaseDir roots the local backend's object tree.
	BaseDir string `yaml:"base_dir"`
}
