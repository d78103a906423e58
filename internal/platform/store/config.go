package store

// Config aggregates per-backend configuration
type Config struct {
	AppName string

	PG PGConfig
}

// PGConfig configures Postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int
}
