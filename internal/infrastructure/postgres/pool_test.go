package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciptastok/opname-api/pkg/config"
)

func TestPoolConfig_LimitesDesdeConfig(t *testing.T) {
	pc, err := poolConfig(config.DBConfig{
		Host: "db", Port: 5432, User: "ops", Password: "p@ss", DBName: "opname", SSLMode: "disable",
		MaxConns: 8, MinConns: 2, MaxConnIdleTime: 5 * time.Minute, HealthCheckPeriod: 30 * time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, "db", pc.ConnConfig.Host)
	assert.Equal(t, "p@ss", pc.ConnConfig.Password)
	assert.Equal(t, "opname", pc.ConnConfig.Database)
	assert.Equal(t, int32(8), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, 5*time.Minute, pc.MaxConnIdleTime)
	assert.Equal(t, 30*time.Second, pc.HealthCheckPeriod)
	assert.Equal(t, time.Hour, pc.MaxConnLifetime)
	assert.Equal(t, applicationName, pc.ConnConfig.RuntimeParams["application_name"])
	assert.NotNil(t, pc.AfterConnect, "registra el codec decimal")
}

func TestPoolConfig_DatabaseURLTienePrioridad(t *testing.T) {
	pc, err := poolConfig(config.DBConfig{
		DatabaseURL: "postgres://u:p@remote:6543/prod?sslmode=disable&application_name=reportes",
		Host:        "ignorado", MaxConns: 4, MinConns: 9,
	})
	require.NoError(t, err)

	assert.Equal(t, "remote", pc.ConnConfig.Host)
	assert.Equal(t, uint16(6543), pc.ConnConfig.Port)
	assert.Equal(t, "reportes", pc.ConnConfig.RuntimeParams["application_name"], "no pisa el de la URL")
	assert.Equal(t, int32(4), pc.MaxConns)
	assert.LessOrEqual(t, pc.MinConns, pc.MaxConns, "MinConns mayor que MaxConns se ignora")
}

func TestPoolConfig_DSNInvalido(t *testing.T) {
	_, err := poolConfig(config.DBConfig{DatabaseURL: "postgres://u:p@host:notaport/db"})
	assert.Error(t, err)
}
