package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the chaincode process
type Config struct {
	// Logging configuration
	LogLevel string `mapstructure:"log_level"`

	// Chaincode-as-a-service configuration. When Address is empty the
	// process runs in the classic peer-launched mode instead.
	Chaincode ChaincodeConfig `mapstructure:"chaincode"`
}

// ChaincodeConfig holds the external chaincode server settings assigned by
// the peer's external builder
type ChaincodeConfig struct {
	ID         string `mapstructure:"id"`
	Address    string `mapstructure:"address"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
	CertFile   string `mapstructure:"cert_file"`
	KeyFile    string `mapstructure:"key_file"`
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("chaincode.id", "")
	v.SetDefault("chaincode.address", "")
	v.SetDefault("chaincode.tls_enabled", false)
	v.SetDefault("chaincode.cert_file", "")
	v.SetDefault("chaincode.key_file", "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Peer external builders export these exact variable names
	_ = v.BindEnv("chaincode.id", "CHAINCODE_ID")
	_ = v.BindEnv("chaincode.address", "CHAINCODE_SERVER_ADDRESS")
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
