package domain

// DatabaseDriver represents the type of database engine.
type DatabaseDriver string

const (
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
)

// DatabaseConnection holds the metadata for connecting to the database that
// stores the driving and reference tables.
// The password is resolved separately through a secret.Store.
type DatabaseConnection struct {
	Name     string         `json:"name" yaml:"name"`
	Driver   DatabaseDriver `json:"driver" yaml:"driver"`
	Host     string         `json:"host" yaml:"host"`         // hostname or file path (sqlite)
	Port     int            `json:"port" yaml:"port"`         // 0 for sqlite
	Database string         `json:"database" yaml:"database"` // db name or empty for sqlite
	Username string         `json:"username" yaml:"username"`
	SSLMode  string         `json:"sslMode" yaml:"sslMode"`
}

// SecretKey is the key under which the connection password is stored.
func (c *DatabaseConnection) SecretKey() string {
	return "db:" + c.Name
}
