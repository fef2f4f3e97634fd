package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	require := require.New(t)

	cfg := &Config{}
	cfg.setDefaults()

	require.Equal("./data", cfg.Storage.Directory)
	require.Equal(2*time.Minute, cfg.Sync.Interval)
	require.Equal(50, cfg.Sync.MaxBatchesPerRun)
	require.Equal(2, cfg.Sync.MaxRetries)
	require.Equal(3*time.Second, cfg.Sync.RetryDelay)
	require.Equal(1*time.Second, cfg.Sync.InterBatchDelay)
	require.Equal(30*time.Second, cfg.Sync.RPCTimeout)
	require.Equal(10*time.Second, cfg.Sync.MetadataTimeout)
	require.Equal("https://ipfs.io/ipfs/", cfg.Sync.IPFSGateway)
	require.Equal(uint64(1000), cfg.Sync.DefaultBlocksPerBatch)
	require.Equal(1*time.Minute, cfg.Sync.HealthCheckInterval)
	require.Equal(3, cfg.Sync.HealthMaxFailures)
	require.Equal(20*time.Minute, cfg.Sync.HeightStagnationLimit)
	require.Equal(30*time.Minute, cfg.Sync.HealthAlertCooldown)
	require.Equal("info", cfg.Logging.Level)
	require.Equal("localhost", cfg.Server.ListenAddress)
	require.Equal(8080, cfg.Server.ListenPort)
	require.Equal(100, cfg.Server.MaxLimit)
	require.Equal("claude-3-haiku-20240307", cfg.Classifier.Model)
	require.Equal("agent_events", cfg.Kafka.Topic)
}

func TestSetDefaultsKeepsExplicitValues(t *testing.T) {
	require := require.New(t)

	cfg := &Config{}
	cfg.Sync.Interval = 5 * time.Minute
	cfg.Server.MaxLimit = 25
	cfg.setDefaults()

	require.Equal(5*time.Minute, cfg.Sync.Interval)
	require.Equal(25, cfg.Server.MaxLimit)
}

func TestSetDefaultsFillsNetworkBatchSize(t *testing.T) {
	require := require.New(t)

	cfg := &Config{
		Networks: []NetworkConfig{
			{Key: "sepolia"},
			{Key: "base", BlocksPerBatch: 500},
		},
	}
	cfg.setDefaults()

	require.Equal(uint64(1000), cfg.Networks[0].BlocksPerBatch)
	require.Equal(uint64(500), cfg.Networks[1].BlocksPerBatch)
}

func TestLoadYAMLFile(t *testing.T) {
	require := require.New(t)

	content := `
storage:
  dir: /tmp/indexer-test
sync:
  interval: 30s
networks:
  - key: sepolia
    name: Sepolia
    chainId: 11155111
    rpcUrl: https://rpc.sepolia.example
    registryContract: "0x1111111111111111111111111111111111111111"
    startBlock: 5000000
    enabled: true
  - key: base
    name: Base
    chainId: 8453
    rpcUrl: https://rpc.base.example
    registryContract: "0x2222222222222222222222222222222222222222"
    enabled: false
`
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(err)

	require.Equal("/tmp/indexer-test", cfg.Storage.Directory)
	require.Equal(30*time.Second, cfg.Sync.Interval)
	require.Len(cfg.Networks, 2)
	// Defaults still fill what the file omits.
	require.Equal(uint64(1000), cfg.Networks[0].BlocksPerBatch)
	require.Equal(50, cfg.Sync.MaxBatchesPerRun)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestEnabledNetworks(t *testing.T) {
	require := require.New(t)

	cfg := &Config{
		Networks: []NetworkConfig{
			{Key: "sepolia", Enabled: true},
			{Key: "base", Enabled: false},
			{Key: "polygon", Enabled: true},
		},
	}

	enabled := cfg.EnabledNetworks()
	require.Len(enabled, 2)
	require.Equal("sepolia", enabled[0].Key)
	require.Equal("polygon", enabled[1].Key)
}

func TestNetworkLookup(t *testing.T) {
	require := require.New(t)

	cfg := &Config{
		Networks: []NetworkConfig{
			{Key: "sepolia", ChainID: 11155111},
		},
	}

	n := cfg.Network("sepolia")
	require.NotNil(n)
	require.Equal(uint64(11155111), n.ChainID)

	require.Nil(cfg.Network("mainnet"))
}

func TestNetworkValidate(t *testing.T) {
	valid := NetworkConfig{
		Key:              "sepolia",
		ChainID:          11155111,
		RPCURL:           "https://rpc.sepolia.example",
		RegistryContract: "0x1111111111111111111111111111111111111111",
	}

	tests := []struct {
		name    string
		mutate  func(*NetworkConfig)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*NetworkConfig) {},
		},
		{
			name:    "missing key",
			mutate:  func(n *NetworkConfig) { n.Key = "" },
			wantErr: "network key is required",
		},
		{
			name:    "missing chain id",
			mutate:  func(n *NetworkConfig) { n.ChainID = 0 },
			wantErr: "chainId is required",
		},
		{
			name:    "missing rpc url",
			mutate:  func(n *NetworkConfig) { n.RPCURL = "" },
			wantErr: "rpcUrl is required",
		},
		{
			name:    "missing registry contract",
			mutate:  func(n *NetworkConfig) { n.RegistryContract = "" },
			wantErr: "registryContract is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := valid
			tt.mutate(&n)
			err := n.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
