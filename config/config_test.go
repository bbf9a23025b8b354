package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_PORT", "")
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	c, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, "4444", c.AppPort)
	assert.Equal(t, 720, c.TokenTTLHours)
	assert.Equal(t, DriverMySQL, c.DBDriver)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, "uploads", c.UploadDir)
	assert.Equal(t, 10, c.UploadMaxMB)
}

func TestParseEnvironmentOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_PORT", "")
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DATABASE_URI", "/tmp/blog.db")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("REDIS_PORT", "6380")

	c, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, "8080", c.AppPort, "PORT is honoured when APP_PORT is unset")
	assert.Equal(t, DriverSQLite, c.DBDriver)
	assert.Equal(t, "/tmp/blog.db", c.DatabaseURI)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.Equal(t, 6380, c.RedisPort)
}

func TestParseJSONFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("MONGODB_SERVER_URL", "")
	t.Setenv("MONGO_URI", "")

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"app": {"port": "9000", "jwt_secret": "from-file", "allowed_origins": ["https://blog.example"]},
		"database": {"driver": "mongo"},
		"mongo": {"uri": "mongodb://localhost:27017", "database": "posts"}
	}`), 0o600))

	c, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", c.AppPort)
	assert.Equal(t, "from-file", c.JWTSecret)
	assert.Equal(t, []string{"https://blog.example"}, c.AllowedOrigins)
	assert.Equal(t, DriverMongo, c.DBDriver)
	assert.Equal(t, "posts", c.MongoDatabase)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AppConfig
		wantErr bool
	}{
		{name: "ok", cfg: AppConfig{JWTSecret: "x", DBDriver: DriverPostgres}},
		{name: "missing secret", cfg: AppConfig{DBDriver: DriverMySQL}, wantErr: true},
		{name: "unknown driver", cfg: AppConfig{JWTSecret: "x", DBDriver: "oracle"}, wantErr: true},
		{name: "mongo without uri", cfg: AppConfig{JWTSecret: "x", DBDriver: DriverMongo}, wantErr: true},
		{name: "mongo with uri", cfg: AppConfig{JWTSecret: "x", DBDriver: DriverMongo, MongoURI: "mongodb://db"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDialectorFor(t *testing.T) {
	d, err := dialectorFor(AppConfig{DBDriver: DriverSQLite, DatabaseURI: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = dialectorFor(AppConfig{DBDriver: DriverMySQL, DBUser: "u", DBHost: "h", DBPort: "3306", DBName: "blog"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	d, err = dialectorFor(AppConfig{DBDriver: DriverPostgres, DBHost: "h", DBPort: "5432"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = dialectorFor(AppConfig{DBDriver: DriverMongo})
	assert.Error(t, err)
}
