package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	BrokerURL   string `env:"BROKER_URL,required"`
	MQTTQoS     byte   `env:"MQTT_QOS" envDefault:"1"`

	// ConfirmIdentity inserts the external authorization round-trip in
	// front of every payment order and query.
	ConfirmIdentity    bool   `env:"CONFIRM_IDENTITY" envDefault:"false"`
	AuthURL            string `env:"AUTH_URL" envDefault:"http://authorizer:8081/identity"`
	TransactionAuthURL string `env:"TRANSACTION_AUTH_URL" envDefault:"http://authorizer:8081/transaction"`
	LinkAccountURL     string `env:"LINK_ACCOUNT_URL" envDefault:"http://wallet:8082/link-account"`
	AuthTimeoutS       int    `env:"AUTH_TIMEOUT_S" envDefault:"10"`

	Port      int    `env:"PORT" envDefault:"8080"`
	JWTSecret string `env:"JWT_SECRET,required"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv    string `env:"APP_ENV" envDefault:"production"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
