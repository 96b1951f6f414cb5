package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppName          string
	Build            string
	Env              string // DEV (local; default), TEST, QA, PROD
	Debug            bool
	TestMode         bool
	SecretKey        string
	FrontendBaseURL  string
	DefaultFromEmail mail.Address
	RollbarToken     string
	SendgridApiKey   string

	PasswordResetTimeoutDelta time.Duration
	RegistrationEnabled       bool

	Server struct {
		Address                   string
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		CORSOrigins               []string
	}

	Database struct {
		Engine        string // postgres | sqlite
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite only
	}

	Storage struct {
		Provider        string // local | gcs | s3
		Bucket          string
		Region          string
		Endpoint        string
		PublicBaseURL   string
		CredentialsJSON string
		LocalDir        string
	}

	Redis struct {
		Address    string
		Password   string
		DB         int
		ContextTTL time.Duration
	}

	Reference struct {
		OutletsPath   string
		DivisionsPath string
	}
}

func (c Config) SubjectPrefix() string {
	return "[" + c.AppName + "] "
}

func (c Config) DatabaseAddress() string {
	return net.JoinHostPort(c.Database.Host, c.Database.Port)
}

func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, env)

	conf := new(Config)
	conf.Env = env
	conf.AppName = v.GetString("appName")
	conf.Build = v.GetString("build")
	conf.Debug = v.GetBool("debug")
	conf.TestMode = v.GetBool("testMode")
	conf.SecretKey = v.GetString("secretKey")
	conf.FrontendBaseURL = v.GetString("frontendBaseUrl")
	conf.DefaultFromEmail = mail.Address{Name: conf.AppName, Address: v.GetString("defaultFromEmail")}
	conf.RollbarToken = v.GetString("rollbarToken")
	conf.SendgridApiKey = v.GetString("sendgridApiKey")
	conf.PasswordResetTimeoutDelta = v.GetDuration("passwordResetTimeoutDelta")
	conf.RegistrationEnabled = v.GetBool("registrationEnabled")

	conf.Server.Address = v.GetString("server.address")
	conf.Server.Host = v.GetString("server.host")
	conf.Server.DebugHost = v.GetString("server.debugHost")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	conf.Server.JWTExpirationDelta = v.GetDuration("server.jwtExpirationDelta")
	conf.Server.JWTRefreshExpirationDelta = v.GetDuration("server.jwtRefreshExpirationDelta")
	conf.Server.CORSOrigins = v.GetStringSlice("server.corsOrigins")

	conf.Database.Engine = v.GetString("database.engine")
	conf.Database.Host = v.GetString("database.host")
	conf.Database.Port = v.GetString("database.port")
	conf.Database.Name = v.GetString("database.name")
	conf.Database.User = v.GetString("database.user")
	conf.Database.Password = v.GetString("database.password")
	conf.Database.AdminUser = v.GetString("database.adminUser")
	conf.Database.AdminPassword = v.GetString("database.adminPassword")
	conf.Database.DisableTLS = v.GetBool("database.disableTLS")
	conf.Database.Path = v.GetString("database.path")

	conf.Storage.Provider = v.GetString("storage.provider")
	conf.Storage.Bucket = v.GetString("storage.bucket")
	conf.Storage.Region = v.GetString("storage.region")
	conf.Storage.Endpoint = v.GetString("storage.endpoint")
	conf.Storage.PublicBaseURL = v.GetString("storage.publicBaseUrl")
	conf.Storage.CredentialsJSON = v.GetString("storage.credentialsJson")
	conf.Storage.LocalDir = v.GetString("storage.localDir")

	conf.Redis.Address = v.GetString("redis.address")
	conf.Redis.Password = v.GetString("redis.password")
	conf.Redis.DB = v.GetInt("redis.db")
	conf.Redis.ContextTTL = v.GetDuration("redis.contextTTL")

	conf.Reference.OutletsPath = v.GetString("reference.outletsPath")
	conf.Reference.DivisionsPath = v.GetString("reference.divisionsPath")
	return conf
}

func setDefaults(v *viper.Viper, env string) {
	v.SetTypeByDefaultValue(true)

	v.SetDefault("appName", "Topsell TAMS")
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("secretKey", "x9#k2-tams)pq4$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontendBaseUrl", "http://localhost:5173")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("registrationEnabled", true)

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("server.corsOrigins", []string{"*"})

	v.SetDefault("database.engine", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "tams")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", "tams.db")

	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.bucket", "maintenance-photos")
	v.SetDefault("storage.localDir", "media")
	v.SetDefault("storage.publicBaseUrl", "http://localhost:8000/media")

	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.contextTTL", time.Duration(0))
}
