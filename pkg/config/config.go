package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Certificates CertificatesConfig
	VerifyLimit  VerifyRateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"INDICERT_APP_ENV" required:"true"`
	Port         string `envconfig:"INDICERT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"INDICERT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"INDICERT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"INDICERT_DB_DSN"`
	Driver string `envconfig:"INDICERT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"INDICERT_DB_HOST"`
	LegacyPort     int    `envconfig:"INDICERT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"INDICERT_DB_USER"`
	LegacyPassword string `envconfig:"INDICERT_DB_PASSWORD"`
	LegacyName     string `envconfig:"INDICERT_DB_NAME"`
	LegacySSLMode  string `envconfig:"INDICERT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"INDICERT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INDICERT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INDICERT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INDICERT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"INDICERT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"INDICERT_REDIS_ADDR"`
	Password     string        `envconfig:"INDICERT_REDIS_PASSWORD"`
	DB           int           `envconfig:"INDICERT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INDICERT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INDICERT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INDICERT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INDICERT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INDICERT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CertificatesConfig governs certificate issuance and artifact handling.
type CertificatesConfig struct {
	BaseURL       string        `envconfig:"INDICERT_CERT_BASE_URL" required:"true"`
	ArtifactsDir  string        `envconfig:"INDICERT_CERT_ARTIFACTS_DIR" default:"certificates"`
	ReadTimeout   time.Duration `envconfig:"INDICERT_CERT_READ_TIMEOUT" default:"10s"`
	IDMaxAttempts int           `envconfig:"INDICERT_CERT_ID_MAX_ATTEMPTS" default:"5"`
	ValidityYears int           `envconfig:"INDICERT_CERT_VALIDITY_YEARS" default:"10"`
	QRSizePixels  int           `envconfig:"INDICERT_CERT_QR_SIZE_PX" default:"256"`
}

// VerificationURL builds the public URL encoded into certificate QR codes.
func (c CertificatesConfig) VerificationURL(certificateID string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/verify/" + certificateID
}

type VerifyRateLimitConfig struct {
	Window  time.Duration `envconfig:"INDICERT_VERIFY_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit int           `envconfig:"INDICERT_VERIFY_RATE_LIMIT_IP_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"INDICERT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
