package config

// EnvPrefix namespaces every environment variable the platform reads.
const EnvPrefix = "fls"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "FLS_DB_DSN"
	EnvDBHost = "FLS_DB_HOST"
	EnvDBUser = "FLS_DB_USER"
	EnvDBName = "FLS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
