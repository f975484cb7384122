// Package config charge .env (godotenv) puis assemble la configuration typée avec viper.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Scylla   ScyllaConfig   `mapstructure:"scylla"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MongoDB  MongoDBConfig  `mapstructure:"mongodb"`
	Elastic  ElasticConfig  `mapstructure:"elastic"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Invoice  InvoiceConfig  `mapstructure:"invoice"`
	Log      LogConfig      `mapstructure:"log"`

	// EnvFileLoaded : .env trouvé au démarrage
	EnvFileLoaded bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Mode           string   `mapstructure:"mode"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type ScyllaConfig struct {
	Hosts            []string      `mapstructure:"hosts"`
	Username         string        `mapstructure:"username"`
	Password         string        `mapstructure:"password"`
	ProductsKeyspace string        `mapstructure:"products_keyspace"`
	OrdersKeyspace   string        `mapstructure:"orders_keyspace"`
	SSLEnabled       bool          `mapstructure:"ssl_enabled"`
	CACertPath       string        `mapstructure:"ca_cert_path"`
	Timeout          time.Duration `mapstructure:"timeout"`
	NumConns         int           `mapstructure:"num_conns"`
	// Bootstrap crée les tables manquantes au démarrage
	Bootstrap bool `mapstructure:"bootstrap"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MongoDBConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type ElasticConfig struct {
	URL      string `mapstructure:"url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Index    string `mapstructure:"index"`
}

type MinIOConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	AccessKey  string        `mapstructure:"access_key"`
	SecretKey  string        `mapstructure:"secret_key"`
	UseSSL     bool          `mapstructure:"use_ssl"`
	Bucket     string        `mapstructure:"bucket"`
	LinkExpiry time.Duration `mapstructure:"link_expiry"`
}

type SMTPConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	From       string `mapstructure:"from"`
	AdminEmail string `mapstructure:"admin_email"`
}

type StripeConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	Currency  string `mapstructure:"currency"`
}

type CheckoutConfig struct {
	StoreTimeout       time.Duration `mapstructure:"store_timeout"`
	RateLimitPerMinute int64         `mapstructure:"rate_limit_per_minute"`
	APILimitPerMinute  int64         `mapstructure:"api_limit_per_minute"`
	CartLimitPerMinute int64         `mapstructure:"cart_limit_per_minute"`
}

type NotifyConfig struct {
	Workers     int           `mapstructure:"workers"`
	QueueSize   int           `mapstructure:"queue_size"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

type InvoiceConfig struct {
	StoreName     string        `mapstructure:"store_name"`
	StoreAddress  string        `mapstructure:"store_address"`
	UPIPayee      string        `mapstructure:"upi_payee"`
	ChromePath    string        `mapstructure:"chrome_path"`
	RenderTimeout time.Duration `mapstructure:"render_timeout"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// variables d'environnement historiques → clés viper
var envBindings = map[string]string{
	"server.port":            "PORT",
	"server.allowed_origins": "ALLOWED_ORIGINS",
	"server.mode":            "GIN_MODE",

	"jwt.secret": "JWT_SECRET",
	"jwt.ttl":    "JWT_TTL",

	"scylla.hosts":             "SCYLLA_HOSTS",
	"scylla.username":          "SCYLLA_USERNAME",
	"scylla.password":          "SCYLLA_PASSWORD",
	"scylla.products_keyspace": "SCYLLA_KS_PRODUCTS_KEYSPACE",
	"scylla.orders_keyspace":   "SCYLLA_KS_ORDERS_KEYSPACE",
	"scylla.ssl_enabled":       "SCYLLA_SSL_ENABLED",
	"scylla.ca_cert_path":      "SCYLLA_SSL_CA_PATH",
	"scylla.timeout":           "SCYLLA_TIMEOUT",
	"scylla.num_conns":         "SCYLLA_NUM_CONNS",
	"scylla.bootstrap":         "SCYLLA_BOOTSTRAP",

	"redis.addr":     "REDIS_HOST",
	"redis.password": "REDIS_PASSWORD",
	"redis.db":       "REDIS_DB",

	"mongodb.uri":        "MONGO_URI",
	"mongodb.database":   "MONGO_DATABASE",
	"mongodb.collection": "MONGO_AUDIT_COLLECTION",

	"elastic.url":      "ELASTIC_URL",
	"elastic.user":     "ELASTIC_USER",
	"elastic.password": "ELASTIC_PASSWORD",
	"elastic.index":    "ELASTIC_PRODUCTS_INDEX",

	"minio.endpoint":    "MINIO_ENDPOINT",
	"minio.access_key":  "MINIO_ACCESS_KEY",
	"minio.secret_key":  "MINIO_SECRET_KEY",
	"minio.use_ssl":     "MINIO_USE_SSL",
	"minio.bucket":      "MINIO_BUCKET",
	"minio.link_expiry": "MINIO_LINK_EXPIRY",

	"smtp.host":        "SMTP_HOST",
	"smtp.port":        "SMTP_PORT",
	"smtp.username":    "SMTP_USERNAME",
	"smtp.password":    "SMTP_PASSWORD",
	"smtp.from":        "SMTP_FROM",
	"smtp.admin_email": "ADMIN_EMAIL",

	"stripe.secret_key": "STRIPE_SECRET_KEY",
	"stripe.currency":   "STRIPE_CURRENCY",

	"checkout.store_timeout":         "CHECKOUT_STORE_TIMEOUT",
	"checkout.rate_limit_per_minute": "CHECKOUT_RATE_LIMIT",
	"checkout.api_limit_per_minute":  "API_RATE_LIMIT",
	"checkout.cart_limit_per_minute": "CART_RATE_LIMIT",

	"notify.workers":      "NOTIFY_WORKERS",
	"notify.queue_size":   "NOTIFY_QUEUE_SIZE",
	"notify.send_timeout": "NOTIFY_SEND_TIMEOUT",

	"invoice.store_name":     "STORE_NAME",
	"invoice.store_address":  "STORE_ADDRESS",
	"invoice.upi_payee":      "UPI_PAYEE",
	"invoice.chrome_path":    "CHROME_PATH",
	"invoice.render_timeout": "INVOICE_RENDER_TIMEOUT",

	"log.level":    "LOG_LEVEL",
	"log.encoding": "LOG_ENCODING",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.mode", "release")

	v.SetDefault("jwt.ttl", 24*time.Hour)

	v.SetDefault("scylla.timeout", 5*time.Second)
	v.SetDefault("scylla.num_conns", 20)

	v.SetDefault("mongodb.database", "pokestore")
	v.SetDefault("mongodb.collection", "audit_logs")

	v.SetDefault("elastic.index", "products")

	v.SetDefault("minio.bucket", "invoices")
	v.SetDefault("minio.link_expiry", 7*24*time.Hour)

	v.SetDefault("smtp.port", 587)

	v.SetDefault("stripe.currency", "inr")

	v.SetDefault("checkout.store_timeout", 5*time.Second)
	v.SetDefault("checkout.rate_limit_per_minute", 5)
	v.SetDefault("checkout.api_limit_per_minute", 100)
	v.SetDefault("checkout.cart_limit_per_minute", 20)

	v.SetDefault("notify.workers", 2)
	v.SetDefault("notify.queue_size", 100)
	v.SetDefault("notify.send_timeout", 30*time.Second)

	v.SetDefault("invoice.store_name", "PokéStore")
	v.SetDefault("invoice.render_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
}

// Load lit .env s'il existe, puis CONFIG_FILE (YAML) s'il est défini ; l'environnement a le dernier mot.
func Load() (*Config, error) {
	envLoaded := godotenv.Load(".env") == nil

	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.EnvFileLoaded = envLoaded
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Scylla.Hosts = compact(c.Scylla.Hosts)
	c.Server.AllowedOrigins = compact(c.Server.AllowedOrigins)
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET manquant")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_HOST manquant")
	}
	return nil
}

func (c *Config) ScyllaEnabled() bool {
	return len(c.Scylla.Hosts) > 0 && c.Scylla.ProductsKeyspace != "" && c.Scylla.OrdersKeyspace != ""
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTP.Host != "" && c.SMTP.From != ""
}
