package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	storageconfig "github.com/callscope/callscope/pkg/bulk/adapter/storage/config"
	exception "github.com/callscope/callscope/pkg/bulk/support/util/exception"
	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"
)

const moduleName = "config"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	// EmbeddedConfig contains the raw bytes of the configuration file.
	EmbeddedConfig EmbeddedConfig
	// EnvFilePath is the path to the .env file, if any.
	EnvFilePath string `name:"envFilePath" optional:"true"`
}

// LoadConfig layers configuration: defaults from NewConfig, then the
// embedded YAML, then environment variable overrides derived from yaml
// tags (e.g. CALLSCOPE_SYSTEM_LOGGING_LEVEL). Expected to run once at
// startup.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	expanded, err := NewOsEnvironmentExpander().Expand(embeddedConfig)
	if err != nil {
		return nil, exception.NewBulkError(moduleName, "failed to expand environment placeholders", err)
	}

	var yamlConfig Config
	if err := yaml.Unmarshal(expanded, &yamlConfig); err != nil {
		return nil, exception.NewBulkError(moduleName, "failed to unmarshal embedded config", err)
	}
	mergeConfig(cfg, &yamlConfig)

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewBulkError(moduleName, "failed to load config from environment variables", err)
	}
	return cfg, nil
}

// NewConfigProvider is the fx provider for *Config. It loads the layered
// configuration and applies the configured log level.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := LoadConfig(params.EnvFilePath, params.EmbeddedConfig)
	if err != nil {
		return nil, err
	}

	logger.SetLogLevel(cfg.Callscope.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Callscope.System.Logging.Level)
	return cfg, nil
}

// mergeConfig performs a deep merge from source into dest: non-zero source
// values overwrite dest.
func mergeConfig(dest, source *Config) {
	mergeSystemConfig(&dest.Callscope.System, &source.Callscope.System)
	mergeRemoteConfig(&dest.Callscope.Remote, &source.Callscope.Remote)
	mergeExportConfig(&dest.Callscope.Export, &source.Callscope.Export)
	mergeMetricsConfig(&dest.Callscope.Metrics, &source.Callscope.Metrics)

	if source.Callscope.Bulk.Operations != nil {
		if dest.Callscope.Bulk.Operations == nil {
			dest.Callscope.Bulk.Operations = map[string]OperationTuning{}
		}
		for name, tuning := range source.Callscope.Bulk.Operations {
			dest.Callscope.Bulk.Operations[name] = tuning
		}
	}
	if source.Callscope.Storage != nil {
		if dest.Callscope.Storage == nil {
			dest.Callscope.Storage = map[string]storageconfig.StorageConfig{}
		}
		for name, sc := range source.Callscope.Storage {
			dest.Callscope.Storage[name] = sc
		}
	}
	if source.Callscope.Database != nil {
		if dest.Callscope.Database == nil {
			dest.Callscope.Database = map[string]DatabaseConfig{}
		}
		for name, dc := range source.Callscope.Database {
			dest.Callscope.Database[name] = dc
		}
	}
}

func mergeSystemConfig(dest, source *SystemConfig) {
	if source.Timezone != "" {
		dest.Timezone = source.Timezone
	}
	if source.Logging.Level != "" {
		dest.Logging.Level = source.Logging.Level
	}
}

func mergeRemoteConfig(dest, source *RemoteConfig) {
	if source.Endpoint != "" {
		dest.Endpoint = source.Endpoint
	}
	if source.APIKey != "" {
		dest.APIKey = source.APIKey
	}
	if source.TimeoutSeconds != 0 {
		dest.TimeoutSeconds = source.TimeoutSeconds
	}
}

func mergeExportConfig(dest, source *ExportConfig) {
	if source.StorageRef != "" {
		dest.StorageRef = source.StorageRef
	}
	if source.OutputBaseDir != "" {
		dest.OutputBaseDir = source.OutputBaseDir
	}
	if source.Compression != "" {
		dest.Compression = source.Compression
	}
}

func mergeMetricsConfig(dest, source *MetricsConfig) {
	if source.Enabled {
		dest.Enabled = true
	}
	if source.Backend != "" {
		dest.Backend = source.Backend
	}
	if source.Endpoint != "" {
		dest.Endpoint = source.Endpoint
	}
	if source.Exporter != "" {
		dest.Exporter = source.Exporter
	}
	if source.Tracing.Enabled {
		dest.Tracing.Enabled = true
	}
	if source.Tracing.Exporter != "" {
		dest.Tracing.Exporter = source.Tracing.Exporter
	}
	if source.Tracing.Endpoint != "" {
		dest.Tracing.Endpoint = source.Tracing.Endpoint
	}
	if source.Tracing.SampleRatio != 0 {
		dest.Tracing.SampleRatio = source.Tracing.SampleRatio
	}
}

// loadStructFromEnv recursively overrides struct fields from environment
// variables named after their yaml tag path (upper-cased, underscored).
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		if field.Kind() == reflect.Map && field.Type().Key().Kind() == reflect.String && field.Type().Elem().Kind() == reflect.Struct {
			if err := loadMapOfStructsFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// loadMapOfStructsFromEnv fills map[string]struct fields from variables of
// the form PREFIX_KEY_FIELD, e.g. CALLSCOPE_DATABASE_RECORDINGS_DSN.
func loadMapOfStructsFromEnv(mapField reflect.Value, prefix string) error {
	elemType := mapField.Type().Elem()

	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, prefix) {
			continue
		}
		parts := strings.SplitN(strings.TrimPrefix(env, prefix), "=", 2)
		if len(parts) != 2 {
			continue
		}
		keyAndField := strings.SplitN(parts[0], "_", 2)
		if len(keyAndField) != 2 {
			continue
		}
		mapKey := strings.ToLower(keyAndField[0])
		fieldName := keyAndField[1]

		if mapField.IsNil() {
			mapField.Set(reflect.MakeMap(mapField.Type()))
		}
		structVal := reflect.New(elemType).Elem()
		if existing := mapField.MapIndex(reflect.ValueOf(mapKey)); existing.IsValid() {
			structVal.Set(existing)
		}
		if err := setStructFieldFromEnv(structVal, fieldName, parts[1]); err != nil {
			return err
		}
		mapField.SetMapIndex(reflect.ValueOf(mapKey), structVal)
	}
	return nil
}

// setStructFieldFromEnv sets the struct field whose yaml tag matches
// fieldName case-insensitively. An unknown field name is not an error.
func setStructFieldFromEnv(structVal reflect.Value, fieldName, value string) error {
	typ := structVal.Type()
	for i := 0; i < typ.NumField(); i++ {
		yamlTag := typ.Field(i).Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		if strings.EqualFold(yamlTag, fieldName) {
			return setField(structVal.Field(i), value)
		}
	}
	return nil
}

func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	}
	return nil
}
