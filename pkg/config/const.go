package config

const (
	// EnvPrefix is intentionally empty; every variable carries the full
	// ORGS_ name in its envconfig tag.
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"

	DocstoreBackendMasterdata = "masterdata"
	DocstoreBackendGorm       = "gorm"
)

// Environment variable names shared with tests and deploy manifests.
const (
	EnvAppEnv          = "ORGS_APP_ENV"
	EnvPort            = "ORGS_APP_PORT"
	EnvDocstoreBackend = "ORGS_DOCSTORE_BACKEND"
	EnvDocstoreBaseURL = "ORGS_DOCSTORE_BASE_URL"
	EnvDocstoreToken   = "ORGS_DOCSTORE_TOKEN"
	EnvDBDSN           = "ORGS_DB_DSN"
	EnvRedisURL        = "ORGS_REDIS_URL"
)
