package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		Addr                      string
		DebugHost                 string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		AllowOrigins              []string
		LoginRateLimit            float64 // requests per second, per IP
	}

	TenancyConfig struct {
		APIPort        string
		CentralAPIURL  string
		DefaultTenant  string
		RequestTimeout time.Duration
	}

	CacheConfig struct {
		TTL             time.Duration
		ReferenceTTL    time.Duration
		TransactionsTTL time.Duration
		CleanupInterval time.Duration
	}

	DatabaseConfig struct {
		Engine     string // postgres | sqlite
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
		Path       string // sqlite only
	}

	EmailConfig struct {
		DefaultFrom    string
		SendgridApiKey string
	}

	ReportsConfig struct {
		Organization string
		Currency     string
		LogoPath     string
	}

	Config struct {
		Env          string
		Debug        bool
		TestMode     bool
		AppName      string
		Build        string
		SecretKey    string
		RollbarToken string
		WorkDir      string
		Server       ServerConfig
		Tenancy      TenancyConfig
		Cache        CacheConfig
		Database     DatabaseConfig
		Email        EmailConfig
		Reports      ReportsConfig
	}
)

// Address returns the "host:port" the database listens on.
func (c DatabaseConfig) Address() string {
	if c.Port == "" {
		return c.Host
	}
	return c.Host + ":" + c.Port
}

func (c EmailConfig) DefaultFromEmail() mail.Address {
	if addr, err := mail.ParseAddress(c.DefaultFrom); err == nil {
		return *addr
	}
	return mail.Address{Address: c.DefaultFrom}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Faithpod")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "kq8-w1)zn3$+7c=dz&po@h2(h!x)#*c2(#yg4h^$cegm2lfp")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.readTimeout", 10*time.Second)
	v.SetDefault("server.writeTimeout", 60*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 8*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 24*time.Hour)
	v.SetDefault("server.allowOrigins", []string{"*"})
	v.SetDefault("server.loginRateLimit", 1.0)

	v.SetDefault("tenancy.apiPort", "8000")
	v.SetDefault("tenancy.centralApiUrl", "")
	v.SetDefault("tenancy.defaultTenant", "")
	v.SetDefault("tenancy.requestTimeout", 30*time.Second)

	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.referenceTtl", 10*time.Minute)
	v.SetDefault("cache.transactionsTtl", 2*time.Minute)
	v.SetDefault("cache.cleanupInterval", time.Minute)

	v.SetDefault("database.engine", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "portal")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", "portal.db")

	v.SetDefault("email.defaultFrom", "Faithpod <noreply@localhost>")
	v.SetDefault("email.sendgridApiKey", "")

	v.SetDefault("reports.organization", "KSDACHURCH")
	v.SetDefault("reports.currency", "Ksh.")
	v.SetDefault("reports.logoPath", "")
}

// NewConfig loads the app configuration from defaults, `config/.env.<env>` and the environment.
// Environment variables are prefixed with the upper-cased ENV, e.g. DEV_SERVER_ADDR.
func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	conf.Env = env
	conf.WorkDir = wd
	return conf, nil
}
