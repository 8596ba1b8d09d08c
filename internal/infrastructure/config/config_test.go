package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "invoicing-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "invoicing", cfg.Database.DBName)
		assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiration)
		assert.NotEmpty(t, cfg.JWT.Secret)
		assert.Equal(t, 200*time.Millisecond, cfg.Telemetry.DBSlowQueryThresh)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("INVOICING_APP_PORT", "9000")
		t.Setenv("INVOICING_DATABASE_HOST", "db.internal")
		t.Setenv("INVOICING_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("INVOICING_REDIS_ENABLED", "true")
		t.Setenv("INVOICING_JWT_ACCESS_TOKEN_EXPIRATION", "5m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
		assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTokenExpiration)
	})

	t.Run("rejects idle connections above open connections", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("INVOICING_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("INVOICING_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("INVOICING_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_Production(t *testing.T) {
	setBase := func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("INVOICING_APP_ENV", "production")
		t.Setenv("INVOICING_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("INVOICING_DATABASE_PASSWORD", "secure-password")
		t.Setenv("INVOICING_DATABASE_SSLMODE", "require")
	}

	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "valid"},
		{name: "short secret", env: map[string]string{"INVOICING_JWT_SECRET": "short"}, wantErr: "jwt.secret"},
		{name: "missing password", env: map[string]string{"INVOICING_DATABASE_PASSWORD": ""}, wantErr: "database.password"},
		{name: "ssl disabled", env: map[string]string{"INVOICING_DATABASE_SSLMODE": "disable"}, wantErr: "sslmode"},
		{name: "full sql", env: map[string]string{"INVOICING_TELEMETRY_DB_LOG_FULL_SQL": "true"}, wantErr: "db_log_full_sql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBase(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.True(t, cfg.App.IsProduction())
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "invoicing", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/invoicing?sslmode=disable", d.DSN())
}
