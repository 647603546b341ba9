package config

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "VITALSTOCK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "VITALSTOCK_DB_DSN"
	EnvDBHost = "VITALSTOCK_DB_HOST"
	EnvDBUser = "VITALSTOCK_DB_USER"
	EnvDBName = "VITALSTOCK_DB_NAME"

	EnvCentralUnitID          = "VITALSTOCK_INVENTORY_CENTRAL_UNIT_ID"
	EnvCriticalStockThreshold = "VITALSTOCK_INVENTORY_CRITICAL_STOCK_THRESHOLD"
	EnvMovementWindowDays     = "VITALSTOCK_INVENTORY_MOVEMENT_WINDOW_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
