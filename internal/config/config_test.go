package config

import (
	"testing"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Store:    StoreConfig{Driver: DriverPostgres},
		Postgres: PostgresConfig{User: "bedslot", Password: "secret", Name: "bedslot"},
		Studio: StudioConfig{
			TimeZone:  "America/Sao_Paulo",
			Timetable: "mon-fri=07:00,18:00;sat=09:00",
		},
		Booking: BookingConfig{LateCancelWindow: 2 * time.Hour},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:   "memory store needs no database",
			mutate: func(c *Config) { c.Store.Driver = DriverMemory; c.Postgres = PostgresConfig{} },
		},
		{
			name:    "missing database credentials",
			mutate:  func(c *Config) { c.Postgres.Password = "" },
			wantErr: "missing POSTGRES_PASSWORD",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Store.Driver = "sqlite" },
			wantErr: `unknown STORE_DRIVER "sqlite"`,
		},
		{
			name:    "bad time zone",
			mutate:  func(c *Config) { c.Studio.TimeZone = "Mars/Olympus" },
			wantErr: "invalid STUDIO_TZ",
		},
		{
			name:    "bad timetable",
			mutate:  func(c *Config) { c.Studio.Timetable = "funday=07:00" },
			wantErr: "invalid STUDIO_TIMETABLE",
		},
		{
			name:    "negative late window",
			mutate:  func(c *Config) { c.Booking.LateCancelWindow = -time.Minute },
			wantErr: "BOOKING_LATE_CANCEL_WINDOW",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Postgres = PostgresConfig{}
	cfg.Studio.TimeZone = "Nowhere/Special"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing POSTGRES_USER")
	assert.Contains(t, err.Error(), "missing POSTGRES_DB")
	assert.Contains(t, err.Error(), "invalid STUDIO_TZ")
}

func TestDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("POSTGRES_USER", "bedslot")

	var cfg Config
	require.NoError(t, envconfig.Process("", &cfg))

	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowOrigins)
	assert.Equal(t, 2*time.Hour, cfg.Booking.LateCancelWindow)
	assert.Equal(t, 1, cfg.Booking.LowBalanceThreshold)
	assert.Equal(t, 5, cfg.Booking.ExpiryWarningDays)
	assert.Equal(t, "bedslot", cfg.Postgres.User)

	_, err := cfg.Studio.ParseTimetable()
	assert.NoError(t, err)
}
