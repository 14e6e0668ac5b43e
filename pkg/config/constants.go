package config

const (
	// EnvPrefix scopes every environment variable the client reads.
	EnvPrefix = "SNAPMOB"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv     = "SNAPMOB_APP_ENV"
	EnvAPIBaseURL = "SNAPMOB_API_BASE_URL"
	EnvStateDB    = "SNAPMOB_STATE_DB_PATH"
)
