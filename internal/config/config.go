package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreSQLite   = "sqlite"
	StoreDynamoDB = "dynamodb"

	PublishFS = "fs"
	PublishS3 = "s3"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// StoreBackend selects where readings are persisted: sqlite or dynamodb.
	StoreBackend string

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration
	SQLiteLogQueries      bool

	// TableName is the DynamoDB table keyed by datetime.
	TableName string

	// PublishBackend selects where the status page goes: fs or s3.
	PublishBackend string
	// PublishDir is the absolute path of the directory the fs publisher writes to.
	// It is served at / by the HTTP server.
	PublishDir string
	PublishKey string
	BucketName string

	AWSRegion   string
	AWSEndpoint string

	StoreTimeout   time.Duration
	PublishTimeout time.Duration

	// MQTTBroker empty disables MQTT ingest.
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string
}

// defaults holds the values that differ between the local server and the
// Lambda front.
type defaults struct {
	storeBackend   string
	publishBackend string
}

var (
	localDefaults  = defaults{storeBackend: StoreSQLite, publishBackend: PublishFS}
	lambdaDefaults = defaults{storeBackend: StoreDynamoDB, publishBackend: PublishS3}
)

// LoadFromEnv reads the configuration from the process environment only.
func LoadFromEnv() (Config, error) {
	return Load("")
}

// LoadForLambda reads the configuration from the environment with DynamoDB and
// S3 as the default backends. The Lambda filesystem is read-only outside /tmp,
// so a local backend is only used when selected explicitly.
func LoadForLambda() (Config, error) {
	src, err := newSource("")
	if err != nil {
		return Config{}, err
	}
	return load(src, lambdaDefaults)
}

// Load reads the configuration from the environment, falling back to values
// in the YAML file at path when a variable is unset. Keys in the file are the
// lower-cased variable names, e.g. "http_addr: :9090". An empty path skips the
// file.
func Load(path string) (Config, error) {
	src, err := newSource(path)
	if err != nil {
		return Config{}, err
	}
	return load(src, localDefaults)
}

func load(src source, d defaults) (Config, error) {
	appEnv := src.get("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(src.get("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	storeBackend := src.get("STORE_BACKEND", d.storeBackend)
	switch storeBackend {
	case StoreSQLite, StoreDynamoDB:
	default:
		return Config{}, fmt.Errorf("invalid STORE_BACKEND %q (allowed: sqlite, dynamodb)", storeBackend)
	}

	publishBackend := src.get("PUBLISH_BACKEND", d.publishBackend)
	switch publishBackend {
	case PublishFS, PublishS3:
	default:
		return Config{}, fmt.Errorf("invalid PUBLISH_BACKEND %q (allowed: fs, s3)", publishBackend)
	}

	publishDir := src.get("PUBLISH_DIR", "site")
	publishDir, err = filepath.Abs(publishDir)
	if err != nil {
		return Config{}, fmt.Errorf("PUBLISH_DIR %q: %w", publishDir, err)
	}

	publishKey := src.get("PUBLISH_KEY", "index.html")
	if strings.Contains(publishKey, "..") || strings.HasPrefix(publishKey, "/") {
		return Config{}, fmt.Errorf("invalid PUBLISH_KEY %q (must be a relative object name)", publishKey)
	}

	maxOpenConns, err := src.getInt("SQLITE_MAX_OPEN_CONNS", "1")
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := src.getInt("SQLITE_MAX_IDLE_CONNS", "1")
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := src.getDuration("SQLITE_CONN_MAX_LIFETIME", "0s")
	if err != nil {
		return Config{}, err
	}
	logQueries, err := src.getBool("SQLITE_LOG_QUERIES", "false")
	if err != nil {
		return Config{}, err
	}

	storeTimeout, err := src.getDuration("STORE_TIMEOUT", "5s")
	if err != nil {
		return Config{}, err
	}
	publishTimeout, err := src.getDuration("PUBLISH_TIMEOUT", "5s")
	if err != nil {
		return Config{}, err
	}
	if storeTimeout <= 0 || publishTimeout <= 0 {
		return Config{}, fmt.Errorf("STORE_TIMEOUT and PUBLISH_TIMEOUT must be > 0")
	}

	mqttPort, err := src.getInt("MQTT_PORT", "1883")
	if err != nil {
		return Config{}, err
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("MQTT_PORT %d is out of range [1, 65535]", mqttPort)
	}

	return Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		HTTPAddr:              src.get("HTTP_ADDR", ":8080"),
		StoreBackend:          storeBackend,
		SQLiteDriver:          src.get("SQLITE_DRIVER", "sqlite3"),
		SQLiteDSN:             src.get("SQLITE_DSN", ""),
		SQLitePath:            src.get("SQLITE_PATH", "data/readings.db"),
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
		SQLiteLogQueries:      logQueries,
		TableName:             src.get("TABLE_NAME", "SensorData"),
		PublishBackend:        publishBackend,
		PublishDir:            publishDir,
		PublishKey:            publishKey,
		BucketName:            src.get("BUCKET_NAME", "pi-sensor-service-site"),
		AWSRegion:             src.get("AWS_REGION", "us-east-1"),
		AWSEndpoint:           src.get("AWS_ENDPOINT_URL", ""),
		StoreTimeout:          storeTimeout,
		PublishTimeout:        publishTimeout,
		MQTTBroker:            src.get("MQTT_BROKER", ""),
		MQTTPort:              mqttPort,
		MQTTClientID:          src.get("MQTT_CLIENT_ID", "airquality-server"),
		MQTTTopic:             src.get("MQTT_TOPIC", "sensors/+/readings"),
	}, nil
}

// source resolves a key from the environment first, then from the config file.
type source struct {
	file map[string]string
}

func newSource(path string) (source, error) {
	s := source{file: map[string]string{}}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return source{}, fmt.Errorf("config: read %q: %w", path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return source{}, fmt.Errorf("config: parse yaml %q: %w", path, err)
	}
	for k, v := range raw {
		switch v.(type) {
		case map[string]any, []any:
			return source{}, fmt.Errorf("config: key %q must be a scalar", k)
		case nil:
			continue
		}
		s.file[strings.ToUpper(strings.TrimSpace(k))] = fmt.Sprint(v)
	}
	return s, nil
}

func (s source) get(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	if v := strings.TrimSpace(s.file[key]); v != "" {
		return v
	}
	return def
}

func (s source) getInt(key, def string) (int, error) {
	raw := s.get(key, def)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func (s source) getDuration(key, def string) (time.Duration, error) {
	raw := s.get(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func (s source) getBool(key, def string) (bool, error) {
	raw := s.get(key, def)
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return b, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
