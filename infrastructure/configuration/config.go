package configuration

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"blog-social/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Database    Database    `json:"database"`
	App         App         `json:"app"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
	Social      Social      `json:"social"`
}

type App struct {
	Port        int      `json:"port"`
	SecretKey   string   `json:"secretKey"`
	TLSEnabled  bool     `json:"tlsEnabled"`
	TLSCertFile string   `json:"tlsCertFile"`
	TLSKeyFile  string   `json:"tlsKeyFile"`
	CORSOrigins []string `json:"corsOrigins"`
}

type Database struct {
	Psql  Db `json:"psql"`
	MySql Db `json:"mysql"`
	Mongo Db `json:"mongo"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
}

type RedisClient struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
}

// DB returns the numeric Redis database index, 0 when unset or not a number.
func (r RedisClient) DB() int {
	n, err := strconv.Atoi(r.DatabaseName)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

type Logger struct {
	Format string `json:"format"`
	Level  string `json:"level"`
}

// Social holds platform credentials and publishing behavior
type Social struct {
	VK                     OAuthClient `json:"vk"`
	Telegram               Telegram    `json:"telegram"`
	Thread                 OAuthClient `json:"thread"`
	PlaceholderImage       string      `json:"placeholderImage"`
	RequestTimeoutSeconds  int         `json:"requestTimeoutSeconds"`
	Retry                  int         `json:"retry"`
	ParallelPublish        bool        `json:"parallelPublish"`
	ScheduleSpec           string      `json:"scheduleSpec"`
	ScheduleBatch          int         `json:"scheduleBatch"`
	ContentCacheTTLSeconds int         `json:"contentCacheTTLSeconds"`
	RefreshLockTTLSeconds  int         `json:"refreshLockTTLSeconds"`
	Topic                  string      `json:"topic"`
	Queue                  string      `json:"queue"`
	PostLinkBase           string      `json:"postLinkBase"`
}

type OAuthClient struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectURI"`
	APIVersion   string `json:"apiVersion"`
}

type Telegram struct {
	BotToken string `json:"botToken"`
}

// RequestTimeout is the per external call deadline.
func (s Social) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

func (s Social) ContentCacheTTL() time.Duration {
	return time.Duration(s.ContentCacheTTLSeconds) * time.Second
}

func (s Social) RefreshLockTTL() time.Duration {
	return time.Duration(s.RefreshLockTTLSeconds) * time.Second
}

var C Config

func init() {
	LoadEnvFromFile(envFiles...)
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initSocial(&C)
	// Prefer https redirect URIs locally when TLS enabled
	if C.App.TLSEnabled {
		if C.Social.VK.RedirectURI != "" && !hasHTTPS(C.Social.VK.RedirectURI) {
			C.Social.VK.RedirectURI = toHTTPSCallback(C.Social.VK.RedirectURI)
		}
		if C.Social.Thread.RedirectURI != "" && !hasHTTPS(C.Social.Thread.RedirectURI) {
			C.Social.Thread.RedirectURI = toHTTPSCallback(C.Social.Thread.RedirectURI)
		}
	}
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	setIfEmpty(&C.Database.Psql.Name, os.Getenv("DB_NAME"))
	setIfEmpty(&C.Database.Psql.Host, os.Getenv("DB_HOST"))
	setIfEmpty(&C.Database.Psql.User, os.Getenv("DB_USER"))
	setIfEmpty(&C.Database.Psql.Password, os.Getenv("DB_PASSWORD"))
	setIfEmpty(&C.Database.Psql.Port, os.Getenv("DB_PORT"))
	setIfEmpty(&C.Database.Psql.Port, "5432")

	// Optional MSSQL config via environment variables (Azure SQL in production)
	setIfEmpty(&C.Database.Mssql.Name, os.Getenv("MSSQL_DB_NAME"))
	setIfEmpty(&C.Database.Mssql.Host, os.Getenv("MSSQL_HOST"))
	setIfEmpty(&C.Database.Mssql.Password, os.Getenv("MSSQL_PASSWORD"))
	setIfEmpty(&C.Database.Mssql.Port, os.Getenv("MSSQL_PORT"))
	setIfEmpty(&C.Database.Mssql.User, os.Getenv("MSSQL_USER"))
	setIfEmpty(&C.Database.Mssql.Host, "localhost")
	setIfEmpty(&C.Database.Mssql.Port, "1433")
	setIfEmpty(&C.Database.Mssql.User, "sa")

	// Blog posts live in the CMS MySQL database
	setIfEmpty(&C.Database.MySql.Name, os.Getenv("MYSQL_DB_NAME"))
	setIfEmpty(&C.Database.MySql.Host, os.Getenv("MYSQL_HOST"))
	setIfEmpty(&C.Database.MySql.User, os.Getenv("MYSQL_USER"))
	setIfEmpty(&C.Database.MySql.Password, os.Getenv("MYSQL_PASSWORD"))
	setIfEmpty(&C.Database.MySql.Port, os.Getenv("MYSQL_PORT"))
	setIfEmpty(&C.Database.MySql.Port, "3306")

	setIfEmpty(&C.Database.Mongo.Host, os.Getenv("MONGO_HOST"))
	setIfEmpty(&C.Database.Mongo.Port, os.Getenv("MONGO_PORT"))
	setIfEmpty(&C.Database.Mongo.User, os.Getenv("MONGO_USER"))
	setIfEmpty(&C.Database.Mongo.Password, os.Getenv("MONGO_PASSWORD"))
	setIfEmpty(&C.Database.Mongo.Name, os.Getenv("MONGO_DB_NAME"))
	setIfEmpty(&C.Database.Mongo.Name, "blog_social")

	logger.GetLogger().WithFields(map[string]interface{}{
		"psqlHost":  C.Database.Psql.Host,
		"mssqlHost": C.Database.Mssql.Host,
		"mysqlHost": C.Database.MySql.Host,
		"mongoHost": C.Database.Mongo.Host,
	}).Info("Database configuration")
}

func initApp(C *Config) {
	// SECRET_KEY from environment overrides config file for JWT verification
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	setIfEmpty(&C.App.TLSCertFile, os.Getenv("TLS_CERT_FILE"))
	setIfEmpty(&C.App.TLSKeyFile, os.Getenv("TLS_KEY_FILE"))
	if len(C.App.CORSOrigins) == 0 {
		C.App.CORSOrigins = []string{"http://localhost:3000"}
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
}

func initSocial(C *Config) {
	s := &C.Social
	setIfEmpty(&s.VK.ClientID, os.Getenv("VK_CLIENT_ID"))
	setIfEmpty(&s.VK.ClientSecret, os.Getenv("VK_CLIENT_SECRET"))
	setIfEmpty(&s.VK.RedirectURI, os.Getenv("VK_REDIRECT_URI"))
	setIfEmpty(&s.VK.APIVersion, os.Getenv("VK_API_VERSION"))
	setIfEmpty(&s.VK.APIVersion, "5.131")

	setIfEmpty(&s.Telegram.BotToken, os.Getenv("TELEGRAM_BOT_TOKEN"))

	setIfEmpty(&s.Thread.ClientID, os.Getenv("THREAD_CLIENT_ID"))
	setIfEmpty(&s.Thread.ClientSecret, os.Getenv("THREAD_CLIENT_SECRET"))
	setIfEmpty(&s.Thread.RedirectURI, os.Getenv("THREAD_REDIRECT_URI"))
	setIfEmpty(&s.Thread.APIVersion, os.Getenv("THREAD_API_VERSION"))
	setIfEmpty(&s.Thread.APIVersion, "v18.0")

	setIfEmpty(&s.PlaceholderImage, os.Getenv("SOCIAL_PLACEHOLDER_IMAGE"))
	setIfEmpty(&s.PlaceholderImage, "https://example.com/placeholder.jpg")
	setIfEmpty(&s.PostLinkBase, os.Getenv("SOCIAL_POST_LINK_BASE"))
	setIfEmpty(&s.PostLinkBase, "https://example.com/blog/post/")
	setIfEmpty(&s.ScheduleSpec, "@every 30s")
	setIfEmpty(&s.Topic, "social-publications")
	setIfEmpty(&s.Queue, "social-publications")
	if s.RequestTimeoutSeconds <= 0 {
		s.RequestTimeoutSeconds = 15
	}
	if s.ScheduleBatch <= 0 {
		s.ScheduleBatch = 20
	}
	if s.ContentCacheTTLSeconds <= 0 {
		s.ContentCacheTTLSeconds = 60
	}
	if s.RefreshLockTTLSeconds <= 0 {
		s.RefreshLockTTLSeconds = 30
	}
	if s.Retry < 0 {
		s.Retry = 0
	}
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// helpers to coerce local callback to https
func hasHTTPS(u string) bool { return len(u) >= 8 && u[:8] == "https://" }
func toHTTPSCallback(u string) string {
	if len(u) >= 7 && u[:7] == "http://" {
		return "https://" + u[7:]
	}
	return u
}
