package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Storage       StorageConfig       `yaml:"storage"`
	Sync          SyncConfig          `yaml:"sync"`
	Server        ServerConfig        `yaml:"server"`
	Logging       Logging             `yaml:"logging"`
	Classifier    ClassifierConfig    `yaml:"classifier"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Networks      []NetworkConfig     `yaml:"networks"`
}

// NetworkConfig describes one chain deployment tracked by its own sync
// cursor. Immutable for the process lifetime.
type NetworkConfig struct {
	Key                string `yaml:"key"`
	Name               string `yaml:"name"`
	ChainID            uint64 `yaml:"chainId"`
	RPCURL             string `yaml:"rpcUrl"`
	ExplorerURL        string `yaml:"explorerUrl"`
	RegistryContract   string `yaml:"registryContract"`
	ReputationContract string `yaml:"reputationContract"`
	StartBlock         uint64 `yaml:"startBlock"`
	BlocksPerBatch     uint64 `yaml:"blocksPerBatch"`
	Enabled            bool   `yaml:"enabled"`
}

type SyncConfig struct {
	Interval         time.Duration `yaml:"interval"         envconfig:"SYNC_INTERVAL"`
	MaxBatchesPerRun int           `yaml:"maxBatchesPerRun" envconfig:"SYNC_MAX_BATCHES_PER_RUN"`
	MaxRetries       int           `yaml:"maxRetries"       envconfig:"SYNC_MAX_RETRIES"`
	RetryDelay       time.Duration `yaml:"retryDelay"       envconfig:"SYNC_RETRY_DELAY"`
	InterBatchDelay  time.Duration `yaml:"interBatchDelay"  envconfig:"SYNC_INTER_BATCH_DELAY"`
	RPCTimeout       time.Duration `yaml:"rpcTimeout"       envconfig:"SYNC_RPC_TIMEOUT"`
	MetadataTimeout  time.Duration `yaml:"metadataTimeout"  envconfig:"SYNC_METADATA_TIMEOUT"`
	IPFSGateway      string        `yaml:"ipfsGateway"      envconfig:"SYNC_IPFS_GATEWAY"`

	HealthCheckInterval   time.Duration `yaml:"healthCheckInterval"   envconfig:"SYNC_HEALTH_CHECK_INTERVAL"`
	HealthMaxFailures     int           `yaml:"healthMaxFailures"     envconfig:"SYNC_HEALTH_MAX_FAILURES"`
	HeightStagnationLimit time.Duration `yaml:"heightStagnationLimit" envconfig:"SYNC_HEIGHT_STAGNATION_LIMIT"`
	HealthAlertCooldown   time.Duration `yaml:"healthAlertCooldown"   envconfig:"SYNC_HEALTH_ALERT_COOLDOWN"`
	DefaultBlocksPerBatch uint64        `yaml:"defaultBlocksPerBatch" envconfig:"SYNC_DEFAULT_BLOCKS_PER_BATCH"`
}

type StorageConfig struct {
	Directory string `yaml:"dir" envconfig:"STORAGE_DIR"`
}

type Logging struct {
	Level               string `yaml:"level"               envconfig:"LOG_LEVEL"`
	LogFileName         string `yaml:"log_file_name"`
	LogDirectory        string `yaml:"log_directory"`
	MaxLogFileSize      int    `yaml:"max_log_file_size"`
	MaxBackups          int    `yaml:"max_backups"`
	MaxAge              int    `yaml:"max_age"`
	LogDiscordWebookURL string `yaml:"log_discord_webook_url" envconfig:"LOG_DISCORD_WEBHOOK_URL"`
}

type ServerConfig struct {
	ListenAddress string `yaml:"listenAddress" envconfig:"SERVER_LISTEN_ADDRESS"`
	ListenPort    int    `yaml:"listenPort"    envconfig:"SERVER_LISTEN_PORT"`
	EnableDebug   bool   `yaml:"enableDebug"   envconfig:"SERVER_ENABLE_DEBUG"`
	MaxLimit      int    `yaml:"maxLimit"      envconfig:"SERVER_MAX_LIMIT"`
}

type ClassifierConfig struct {
	Endpoint string `yaml:"endpoint" envconfig:"CLASSIFIER_ENDPOINT"`
	APIKey   string `yaml:"apiKey"   envconfig:"CLASSIFIER_API_KEY"`
	Model    string `yaml:"model"    envconfig:"CLASSIFIER_MODEL"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers" envconfig:"KAFKA_BROKERS"`
	Topic   string   `yaml:"topic"   envconfig:"KAFKA_TOPIC"`
}

type NotificationsConfig struct {
	DiscordWebhookURL string `yaml:"discordWebhookUrl" envconfig:"NOTIFICATIONS_DISCORD_WEBHOOK_URL"`
}

var globalConfig = &Config{}

func (c *Config) setDefaults() {
	if c.Storage.Directory == "" {
		c.Storage.Directory = "./data"
	}

	if c.Sync.Interval == 0 {
		c.Sync.Interval = 2 * time.Minute
	}
	if c.Sync.MaxBatchesPerRun == 0 {
		c.Sync.MaxBatchesPerRun = 50
	}
	if c.Sync.MaxRetries == 0 {
		c.Sync.MaxRetries = 2
	}
	if c.Sync.RetryDelay == 0 {
		c.Sync.RetryDelay = 3 * time.Second
	}
	if c.Sync.InterBatchDelay == 0 {
		c.Sync.InterBatchDelay = 1 * time.Second
	}
	if c.Sync.RPCTimeout == 0 {
		c.Sync.RPCTimeout = 30 * time.Second
	}
	if c.Sync.MetadataTimeout == 0 {
		c.Sync.MetadataTimeout = 10 * time.Second
	}
	if c.Sync.IPFSGateway == "" {
		c.Sync.IPFSGateway = "https://ipfs.io/ipfs/"
	}
	if c.Sync.DefaultBlocksPerBatch == 0 {
		c.Sync.DefaultBlocksPerBatch = 1000
	}
	if c.Sync.HealthCheckInterval == 0 {
		c.Sync.HealthCheckInterval = 1 * time.Minute
	}
	if c.Sync.HealthMaxFailures == 0 {
		c.Sync.HealthMaxFailures = 3
	}
	if c.Sync.HeightStagnationLimit == 0 {
		c.Sync.HeightStagnationLimit = 20 * time.Minute
	}
	if c.Sync.HealthAlertCooldown == 0 {
		c.Sync.HealthAlertCooldown = 30 * time.Minute
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.LogFileName == "" {
		c.Logging.LogFileName = "indexer.log"
	}
	if c.Logging.LogDirectory == "" {
		c.Logging.LogDirectory = "assets/logs"
	}
	if c.Logging.MaxLogFileSize == 0 {
		c.Logging.MaxLogFileSize = 100 // 100 MB
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAge == 0 {
		c.Logging.MaxAge = 30 // 30 days
	}

	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = "localhost"
	}
	if c.Server.ListenPort == 0 {
		c.Server.ListenPort = 8080
	}
	if c.Server.MaxLimit == 0 {
		c.Server.MaxLimit = 100
	}

	if c.Classifier.Model == "" {
		c.Classifier.Model = "claude-3-haiku-20240307"
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "agent_events"
	}

	for i := range c.Networks {
		if c.Networks[i].BlocksPerBatch == 0 {
			c.Networks[i].BlocksPerBatch = c.Sync.DefaultBlocksPerBatch
		}
	}
}

func Load(configFile string) (*Config, error) {
	// Set defaults first
	globalConfig.setDefaults()

	// Load config file as YAML if provided
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %s", err)
		}
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %s", err)
		}
	}

	// Apply defaults again after loading config file to fill in any missing values
	globalConfig.setDefaults()

	// Load config values from environment variables
	// We use "dummy" as the app name here to (mostly) prevent picking up env
	// vars that we hadn't explicitly specified in annotations above
	err := envconfig.Process("dummy", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %s", err)
	}

	return globalConfig, nil
}

// GetConfig returns the global config instance
func GetConfig() *Config {
	return globalConfig
}

// EnabledNetworks returns the networks that should be scheduled for sync.
func (c *Config) EnabledNetworks() []NetworkConfig {
	var out []NetworkConfig
	for _, n := range c.Networks {
		if n.Enabled {
			out = append(out, n)
		}
	}
	return out
}

// Network returns the config for a network key, or nil if unknown.
func (c *Config) Network(key string) *NetworkConfig {
	for i := range c.Networks {
		if c.Networks[i].Key == key {
			return &c.Networks[i]
		}
	}
	return nil
}

// Validate checks a network entry for the fields sync cannot run without.
func (n *NetworkConfig) Validate() error {
	if n.Key == "" {
		return fmt.Errorf("network key is required")
	}
	if n.ChainID == 0 {
		return fmt.Errorf("network %s: chainId is required", n.Key)
	}
	if n.RPCURL == "" {
		return fmt.Errorf("network %s: rpcUrl is required", n.Key)
	}
	if n.RegistryContract == "" {
		return fmt.Errorf("network %s: registryContract is required", n.Key)
	}
	return nil
}
