package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Docstore     DocstoreConfig
	DB           DBConfig
	Redis        RedisConfig
	Cache        CacheConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Docstore.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORGS_APP_ENV" required:"true"`
	Port         string `envconfig:"ORGS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ORGS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORGS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// DocstoreConfig selects and parameterizes the document store backend.
type DocstoreConfig struct {
	Backend string        `envconfig:"ORGS_DOCSTORE_BACKEND" default:"masterdata"`
	BaseURL string        `envconfig:"ORGS_DOCSTORE_BASE_URL"`
	Token   string        `envconfig:"ORGS_DOCSTORE_TOKEN"`
	Timeout time.Duration `envconfig:"ORGS_DOCSTORE_TIMEOUT" default:"10s"`

	Entities EntitiesConfig
}

func (d DocstoreConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(d.Backend)) {
	case DocstoreBackendMasterdata:
		if strings.TrimSpace(d.BaseURL) == "" {
			return fmt.Errorf("%s is required for the masterdata backend", EnvDocstoreBaseURL)
		}
	case DocstoreBackendGorm:
	default:
		return fmt.Errorf("unknown docstore backend %q", d.Backend)
	}
	return nil
}

// IsGormBackend reports whether documents live in the local relational store.
func (d DocstoreConfig) IsGormBackend() bool {
	return strings.EqualFold(strings.TrimSpace(d.Backend), DocstoreBackendGorm)
}

// EntitiesConfig carries the injected acronym/schema pairs for each entity.
type EntitiesConfig struct {
	PersonaAcronym    string `envconfig:"ORGS_ENTITY_PERSONA_ACRONYM" default:"persona"`
	PersonaSchema     string `envconfig:"ORGS_ENTITY_PERSONA_SCHEMA" default:"persona-schema-v1"`
	RoleAcronym       string `envconfig:"ORGS_ENTITY_ROLE_ACRONYM" default:"business-role"`
	RoleSchema        string `envconfig:"ORGS_ENTITY_ROLE_SCHEMA" default:"business-role-schema-v1"`
	AssignmentAcronym string `envconfig:"ORGS_ENTITY_ASSIGNMENT_ACRONYM" default:"organization-assignment"`
	AssignmentSchema  string `envconfig:"ORGS_ENTITY_ASSIGNMENT_SCHEMA" default:"organization-assignment-schema-v1"`
}

type DBConfig struct {
	DSN    string `envconfig:"ORGS_DB_DSN"`
	Driver string `envconfig:"ORGS_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"ORGS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORGS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORGS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORGS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ORGS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ORGS_REDIS_ADDR"`
	Password     string        `envconfig:"ORGS_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORGS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORGS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORGS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORGS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORGS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORGS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CacheConfig controls the per-organization assignment snapshot cache.
type CacheConfig struct {
	AssignmentTTL time.Duration `envconfig:"ORGS_CACHE_ASSIGNMENT_TTL" default:"60s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"ORGS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ORGS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ORGS_AUTO_MIGRATE" default:"false"`
}
