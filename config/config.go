package config

import "time"

type Configuration struct {
	// Server config
	Server struct {
		Port      int    `yaml:"port"`
		UseSSL    bool   `yaml:"ssl"`
		RedisPort int    `yaml:"redis_port" envconfig:"REDIS_PORT"`
		RedisHost string `yaml:"redis_host" envconfig:"REDIS_HOST"`
	} `yaml:"server"`
	// EVM signer, the owner of every approval and swap
	EVM struct {
		PublicAddress string `yaml:"address" envconfig:"ADDRESS"`
		// important private stuff, prefer EVM_PRIVATE_KEY env
		PrivateKey string `yaml:"private_key" envconfig:"PRIVATE_KEY"`
	} `yaml:"EVM"`
	Swap struct {
		ApprovalMemoTTL   int `yaml:"approval_memo_ttl"`  // seconds a pending approval suppresses re-approval
		LockTTL           int `yaml:"lock_ttl"`           // seconds the approval lock is held at most, also bounds the calls made under it
		ExecutionInterval int `yaml:"execution_interval"` // seconds between execution worker iterations
		TrackInterval     int `yaml:"track_interval"`     // seconds between receipt tracking iterations
	} `yaml:"swap"`
	Chains map[string]ChainConfig `yaml:"chains" ignored:"true"`
}

// ChainConfig describes a ledger the bridge can send from or to.
// Contracts maps token symbols and contract names ("Router", "FactoryPool") to addresses.
type ChainConfig struct {
	ChainID          uint16            `yaml:"chain_id"` // bridge protocol chain id, passed to Router.swap
	Ledger           string            `yaml:"ledger"`   // "evm" or "ic"
	EVMChainID       int64             `yaml:"evm_chain_id"`
	RPCList          []string          `yaml:"rpc"`
	GasLimit         uint64            `yaml:"gas_limit"`
	MinConfirmations int               `yaml:"min_confirmations"`
	Contracts        map[string]string `yaml:"contracts"`
}

var Config Configuration

// maximum number of EVM RPC endpoints tried for a read
const EVM_RETRIES = 3

const (
	CONTRACT_ROUTER  = "Router"
	CONTRACT_FACTORY = "FactoryPool"
)

var RedisStatusSets = map[string]string{
	"pending":   "swapops:pending",   // swap requested through the API, waiting for the execution worker
	"executing": "swapops:executing", // execution worker picked the swap up
	"submitted": "swapops:submitted", // router accepted the swap tx into the mempool
	"failed":    "swapops:failed",    // resolution, approval or swap error, nothing to retry
	"confirmed": "swapops:confirmed", // swap tx mined with success status
	"reverted":  "swapops:reverted",  // swap tx mined but reverted
}

func (c *Configuration) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RedisHost == "" {
		c.Server.RedisHost = "127.0.0.1"
	}
	if c.Server.RedisPort == 0 {
		c.Server.RedisPort = 6379
	}
	if c.Swap.ApprovalMemoTTL == 0 {
		c.Swap.ApprovalMemoTTL = 600
	}
	if c.Swap.LockTTL == 0 {
		c.Swap.LockTTL = 60
	}
	if c.Swap.ExecutionInterval == 0 {
		c.Swap.ExecutionInterval = 3
	}
	if c.Swap.TrackInterval == 0 {
		c.Swap.TrackInterval = 10
	}
	for name, chain := range c.Chains {
		if chain.MinConfirmations == 0 {
			chain.MinConfirmations = 3
		}
		c.Chains[name] = chain
	}
}

func (c *Configuration) ApprovalMemoTTL() time.Duration {
	return time.Duration(c.Swap.ApprovalMemoTTL) * time.Second
}

func (c *Configuration) LockTTL() time.Duration {
	return time.Duration(c.Swap.LockTTL) * time.Second
}
