package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Addr            string
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
		CORSOrigins     []string
		MaxUploadSize   int64
	}

	StorageConfig struct {
		Backend         string // sheets | database | inmem
		SpreadsheetID   string
		CredentialsJSON string
		CredentialsFile string
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	MinioConfig struct {
		Endpoint      string
		AccessKey     string
		SecretKey     string
		Bucket        string
		UseSSL        bool
		PublicBaseURL string
		LinkExpiry    time.Duration
	}

	FilesConfig struct {
		Backend  string // drive | minio
		FolderID string
		Minio    MinioConfig
	}

	AIConfig struct {
		Provider string // gemini | openai
		APIKey   string
		Model    string
		BaseURL  string
		Timeout  time.Duration
	}

	RedisConfig struct {
		URL     string
		Channel string
	}

	AuthConfig struct {
		AllowPlaintextPasswords bool
	}

	Config struct {
		Env                       string
		Debug                     bool
		TestMode                  bool
		AppName                   string
		Build                     string
		SecretKey                 string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		DefaultFromEmail          mail.Address
		FrontendBaseURL           string
		SendgridApiKey            string
		RollbarToken              string
		Server                    ServerConfig
		Storage                   StorageConfig
		Database                  DatabaseConfig
		Files                     FilesConfig
		AI                        AIConfig
		Redis                     RedisConfig
		Auth                      AuthConfig
	}
)

// Address returns the database "host:port".
func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// legacyEnv maps config keys to the variable names the portal has always been deployed with.
var legacyEnv = map[string]string{
	"server.port":             "PORT",
	"secretKey":               "JWT_SECRET",
	"storage.spreadsheetId":   "GOOGLE_SHEET_ID",
	"storage.credentialsJSON": "GOOGLE_CREDENTIALS",
	"storage.credentialsFile": "GOOGLE_KEY_FILE",
	"ai.apiKey":               "GEMINI_API_KEY",
	"files.folderId":          "DRIVE_FOLDER_ID",
}

func newViper() *viper.Viper {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Caseboard")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "k2v9-qx)tp7$+31=mw&zrc4(f!a)#*h8(#ue^$ldny5bq")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 30*24*time.Hour)
	v.SetDefault("defaultFromEmail", "Caseboard <noreply@localhost>")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.corsOrigins", "*")
	v.SetDefault("server.maxUploadSize", int64(15<<20))

	v.SetDefault("storage.backend", "sheets")
	v.SetDefault("storage.spreadsheetId", "")
	v.SetDefault("storage.credentialsJSON", "")
	v.SetDefault("storage.credentialsFile", "")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "caseboard")
	v.SetDefault("database.user", "caseboard")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("files.backend", "drive")
	v.SetDefault("files.folderId", "")
	v.SetDefault("files.minio.endpoint", "localhost:9000")
	v.SetDefault("files.minio.accessKey", "")
	v.SetDefault("files.minio.secretKey", "")
	v.SetDefault("files.minio.bucket", "iep-files")
	v.SetDefault("files.minio.useSSL", false)
	v.SetDefault("files.minio.publicBaseURL", "")
	v.SetDefault("files.minio.linkExpiry", 7*24*time.Hour)

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.baseURL", "https://api.deepseek.com")
	v.SetDefault("ai.timeout", 60*time.Second)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.channel", "caseboard:events")

	v.SetDefault("auth.allowPlaintextPasswords", true)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.Set("env", env)

	// load .env if it exists (ignore if it does not)
	if wd, err := Getwd(); err == nil {
		dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}

	v.SetEnvPrefix("CASEBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, name := range legacyEnv {
		_ = v.BindEnv(key, "CASEBOARD_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), name)
	}
	return v
}

// NewConfig loads the application configuration.
func NewConfig() *Config {
	v := newViper()

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config: invalid defaultFromEmail %q: %v", v.GetString("defaultFromEmail"), err)
	}

	debug := v.GetBool("debug")
	serverHost := v.GetString("server.host")
	serverAddr := v.GetString("server.addr")
	if serverAddr == "" {
		serverAddr = fmt.Sprintf(":%s", v.GetString("server.port"))
	}

	return &Config{
		Env:                       v.GetString("env"),
		Debug:                     debug,
		TestMode:                  v.GetBool("testMode"),
		AppName:                   v.GetString("appName"),
		Build:                     v.GetString("build"),
		SecretKey:                 v.GetString("secretKey"),
		JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
		JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		DefaultFromEmail:          *from,
		FrontendBaseURL:           v.GetString("frontendBaseURL"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		Server: ServerConfig{
			Addr:            serverAddr,
			Host:            serverHost,
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			CORSOrigins:     splitList(v.GetString("server.corsOrigins")),
			MaxUploadSize:   v.GetInt64("server.maxUploadSize"),
		},
		Storage: StorageConfig{
			Backend:         CleanString(v.GetString("storage.backend"), true),
			SpreadsheetID:   v.GetString("storage.spreadsheetId"),
			CredentialsJSON: v.GetString("storage.credentialsJSON"),
			CredentialsFile: v.GetString("storage.credentialsFile"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Files: FilesConfig{
			Backend:  CleanString(v.GetString("files.backend"), true),
			FolderID: v.GetString("files.folderId"),
			Minio: MinioConfig{
				Endpoint:      v.GetString("files.minio.endpoint"),
				AccessKey:     v.GetString("files.minio.accessKey"),
				SecretKey:     v.GetString("files.minio.secretKey"),
				Bucket:        v.GetString("files.minio.bucket"),
				UseSSL:        v.GetBool("files.minio.useSSL"),
				PublicBaseURL: v.GetString("files.minio.publicBaseURL"),
				LinkExpiry:    v.GetDuration("files.minio.linkExpiry"),
			},
		},
		AI: AIConfig{
			Provider: CleanString(v.GetString("ai.provider"), true),
			APIKey:   v.GetString("ai.apiKey"),
			Model:    v.GetString("ai.model"),
			BaseURL:  strings.TrimRight(v.GetString("ai.baseURL"), "/"),
			Timeout:  v.GetDuration("ai.timeout"),
		},
		Redis: RedisConfig{
			URL:     v.GetString("redis.url"),
			Channel: v.GetString("redis.channel"),
		},
		Auth: AuthConfig{
			AllowPlaintextPasswords: v.GetBool("auth.allowPlaintextPasswords"),
		},
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
