package config

// EnvPrefix is the envconfig prefix for every setting.
const EnvPrefix = "HARBORLINE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv = "HARBORLINE_APP_ENV"

	EnvDBDSN  = "HARBORLINE_DB_DSN"
	EnvDBHost = "HARBORLINE_DB_HOST"
	EnvDBUser = "HARBORLINE_DB_USER"
	EnvDBName = "HARBORLINE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
