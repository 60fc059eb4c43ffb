package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	DB     DBConfig
	JWT    JWTConfig
	HTTP   HTTPConfig
	Opname OpnameConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
	Storage  string // postgres | memory (memoria: demos y pruebas manuales, sin persistencia)
}

// DBConfig configuración de PostgreSQL y del pool de conexiones.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string

	MaxConns          int32
	MinConns          int32
	AcquireTimeout    time.Duration // espera máxima por una conexión libre del pool
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration // keep-alive de conexiones ociosas
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración para validar tokens. La emisión ocurre en el servicio de autenticación.
type JWTConfig struct {
	Secret string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host        string
	Port        int
	BodyLimitMB int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// OpnameConfig parámetros del motor de opname.
type OpnameConfig struct {
	AdminRoleID       int           // role_id con permisos de administrador
	DeleteMaxAttempts int           // intentos totales al borrar una asignación ante deadlock
	DeleteBackoff     time.Duration // espera base; el intento n espera n*DeleteBackoff
	MaxRowErrors      int           // errores por fila devueltos en una carga de Excel
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, DB_PORT, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "opname-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
			Storage:  strings.ToLower(getString(v, "APP_STORAGE", "postgres")),
		},
		DB: DBConfig{
			DatabaseURL:       getString(v, "DATABASE_URL", ""),
			Host:              getString(v, "DB_HOST", "localhost"),
			Port:              getInt(v, "DB_PORT", 5432),
			User:              getString(v, "DB_USER", "postgres"),
			Password:          getString(v, "DB_PASSWORD", ""),
			DBName:            getString(v, "DB_NAME", "opname"),
			SSLMode:           getString(v, "DB_SSLMODE", "disable"),
			MaxConns:          int32(getInt(v, "DB_MAX_CONNS", 10)),
			MinConns:          int32(getInt(v, "DB_MIN_CONNS", 1)),
			AcquireTimeout:    getDuration(v, "DB_ACQUIRE_TIMEOUT", 10*time.Second),
			MaxConnIdleTime:   getDuration(v, "DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
			HealthCheckPeriod: getDuration(v, "DB_HEALTH_CHECK_PERIOD", time.Minute),
		},
		JWT: JWTConfig{
			Secret: getString(v, "JWT_SECRET", ""),
		},
		HTTP: HTTPConfig{
			Host:        getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:        getInt(v, "HTTP_PORT", 8080),
			BodyLimitMB: getInt(v, "HTTP_BODY_LIMIT_MB", 10),
		},
		Opname: OpnameConfig{
			AdminRoleID:       getInt(v, "OPNAME_ADMIN_ROLE_ID", 1),
			DeleteMaxAttempts: getInt(v, "OPNAME_DELETE_MAX_ATTEMPTS", 3),
			DeleteBackoff:     getDuration(v, "OPNAME_DELETE_BACKOFF", 100*time.Millisecond),
			MaxRowErrors:      getInt(v, "OPNAME_MAX_ROW_ERRORS", 10),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.App.Storage != "postgres" && c.App.Storage != "memory" {
		return fmt.Errorf("APP_STORAGE debe ser postgres o memory, recibido %q", c.App.Storage)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET es obligatorio")
	}
	if c.DB.MaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS debe ser mayor que cero")
	}
	if c.Opname.DeleteMaxAttempts <= 0 {
		return fmt.Errorf("OPNAME_DELETE_MAX_ATTEMPTS debe ser mayor que cero")
	}
	if c.Opname.MaxRowErrors <= 0 {
		c.Opname.MaxRowErrors = 10
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

// getDuration acepta "250ms", "10s" o un entero en milisegundos.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	raw := strings.TrimSpace(v.GetString(key))
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
