package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	CORS          CORSConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"TRADEX_APP_ENV" required:"true"`
	Port         string `envconfig:"TRADEX_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRADEX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRADEX_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

type DBConfig struct {
	DSN    string `envconfig:"TRADEX_DB_DSN"`
	Driver string `envconfig:"TRADEX_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TRADEX_DB_HOST"`
	LegacyPort     int    `envconfig:"TRADEX_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TRADEX_DB_USER"`
	LegacyPassword string `envconfig:"TRADEX_DB_PASSWORD"`
	LegacyName     string `envconfig:"TRADEX_DB_NAME"`
	LegacySSLMode  string `envconfig:"TRADEX_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRADEX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRADEX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRADEX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRADEX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRADEX_REDIS_URL"`
	Address      string        `envconfig:"TRADEX_REDIS_ADDR"`
	Password     string        `envconfig:"TRADEX_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRADEX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRADEX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRADEX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRADEX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRADEX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRADEX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TRADEX_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TRADEX_JWT_ISSUER" default:"trader-exchange"`
	ExpirationMinutes int    `envconfig:"TRADEX_JWT_EXPIRATION_MINUTES" default:"720"`
	// SessionTTLMinutes bounds how long a revocable session record lives in Redis.
	// Zero falls back to the token expiration.
	SessionTTLMinutes int `envconfig:"TRADEX_SESSION_TTL_MINUTES" default:"0"`
}

// TokenTTL returns the access token lifetime.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// SessionTTL returns how long a session record is retained, never shorter than the token.
func (j JWTConfig) SessionTTL() time.Duration {
	session := time.Duration(j.SessionTTLMinutes) * time.Minute
	if token := j.TokenTTL(); session < token {
		return token
	}
	return session
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TRADEX_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TRADEX_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TRADEX_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TRADEX_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TRADEX_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"TRADEX_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"TRADEX_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"TRADEX_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow     time.Duration `envconfig:"TRADEX_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit int           `envconfig:"TRADEX_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit    int           `envconfig:"TRADEX_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TRADEX_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"TRADEX_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"TRADEX_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	MarketplaceTopic string `envconfig:"TRADEX_PUBSUB_MARKETPLACE_TOPIC" default:"marketplace-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TRADEX_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TRADEX_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TRADEX_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
