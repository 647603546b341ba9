package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Inventory     InventoryConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Inventory.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VITALSTOCK_APP_ENV" required:"true"`
	Port         string `envconfig:"VITALSTOCK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VITALSTOCK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VITALSTOCK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VITALSTOCK_DB_DSN"`
	Driver string `envconfig:"VITALSTOCK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VITALSTOCK_DB_HOST"`
	LegacyPort     int    `envconfig:"VITALSTOCK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VITALSTOCK_DB_USER"`
	LegacyPassword string `envconfig:"VITALSTOCK_DB_PASSWORD"`
	LegacyName     string `envconfig:"VITALSTOCK_DB_NAME"`
	LegacySSLMode  string `envconfig:"VITALSTOCK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VITALSTOCK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VITALSTOCK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VITALSTOCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VITALSTOCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VITALSTOCK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VITALSTOCK_REDIS_ADDR"`
	Password     string        `envconfig:"VITALSTOCK_REDIS_PASSWORD"`
	DB           int           `envconfig:"VITALSTOCK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VITALSTOCK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VITALSTOCK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VITALSTOCK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VITALSTOCK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VITALSTOCK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VITALSTOCK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VITALSTOCK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VITALSTOCK_JWT_EXPIRATION_MINUTES" default:"480"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VITALSTOCK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VITALSTOCK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VITALSTOCK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VITALSTOCK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VITALSTOCK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"VITALSTOCK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"VITALSTOCK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"VITALSTOCK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

// InventoryConfig pins the inventory-wide knobs that the source system kept as
// literals: the unit acting as the central warehouse and the critical-stock
// floor used by alert reconciliation.
type InventoryConfig struct {
	CentralUnitID          string `envconfig:"VITALSTOCK_INVENTORY_CENTRAL_UNIT_ID" required:"true"`
	CriticalStockThreshold int    `envconfig:"VITALSTOCK_INVENTORY_CRITICAL_STOCK_THRESHOLD" default:"10"`
	MovementWindowDays     int    `envconfig:"VITALSTOCK_INVENTORY_MOVEMENT_WINDOW_DAYS" default:"30"`
}

// CentralUnit returns the parsed central warehouse unit id.
func (i InventoryConfig) CentralUnit() uuid.UUID {
	id, err := uuid.Parse(i.CentralUnitID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (i InventoryConfig) validate() error {
	if _, err := uuid.Parse(i.CentralUnitID); err != nil {
		return fmt.Errorf("invalid %s: %w", EnvCentralUnitID, err)
	}
	if i.CriticalStockThreshold < 0 {
		return fmt.Errorf("%s must not be negative", EnvCriticalStockThreshold)
	}
	if i.MovementWindowDays <= 0 {
		return fmt.Errorf("%s must be positive", EnvMovementWindowDays)
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VITALSTOCK_AUTO_MIGRATE" default:"false"`
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
