package config

import (
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config はアプリケーション設定 (環境変数から読み込む)
type Config struct {
	Port           string
	Debug          bool
	LogPath        string
	AllowedOrigins []string

	Chain     ChainConfig
	Wallet    WalletConfig
	Contracts ContractConfig
	Ipfs      IpfsConfig

	RedirectDelay time.Duration
	HomeRoute     string
	SessionTTL    time.Duration
}

// ChainConfig は接続するネットワーク
type ChainConfig struct {
	NodeURL         string            // NETWORKS が空の場合の単一RPC
	Networks        map[uint64]string // chainId -> RPC URL
	ActiveChainID   uint64            // 0 の場合は RequiredChainID (ノードが1つならそのチェーン)
	RequiredChainID uint64            // マーケットプレイスがデプロイされたチェーン
	TxTimeout       time.Duration
}

type WalletConfig struct {
	PrivateKey string
}

// ContractConfig はコントラクトアドレス (空なら該当ページの機能は無効)
type ContractConfig struct {
	Collection  string
	Marketplace string
}

type IpfsConfig struct {
	ApiURL          string
	Hosts           []string
	MetadataRetries int
	MetadataTimeout time.Duration
}

var ipfsHosts = []string{
	"https://ipfs.io",
	"https://gateway.pinata.cloud",
	"https://cloudflare-ipfs.com",
}

// Init は .env を読み込む。ファイルが無い場合はエラーにしない
// (ロガー作成前に呼ばれるので、エラーは呼び出し側でログに出す)
func Init() error {
	return loadEnv(".env")
}

func loadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "unable to load %s", path)
	}
	return nil
}

func Get() *Config {
	return &Config{
		Port:           getString("PORT", "8080"),
		Debug:          getBool("DEBUG", false),
		LogPath:        getString("LOG_PATH", ""),
		AllowedOrigins: getSlice("ALLOWED_ORIGINS", []string{"*"}, ","),
		Chain: ChainConfig{
			NodeURL:         getString("NODE_URL", ""),
			Networks:        getNetworks("NETWORKS"),
			ActiveChainID:   getUint64("ACTIVE_CHAIN_ID", 0),
			RequiredChainID: getUint64("REQUIRED_CHAIN_ID", 80001),
			TxTimeout:       getDuration("TX_TIMEOUT", 3*time.Minute),
		},
		Wallet: WalletConfig{
			PrivateKey: getString("WALLET_PRIVATE_KEY", ""),
		},
		Contracts: ContractConfig{
			Collection:  getString("COLLECTION_CONTRACT_ADDRESS", ""),
			Marketplace: getString("MARKETPLACE_CONTRACT_ADDRESS", ""),
		},
		Ipfs: IpfsConfig{
			ApiURL:          getString("IPFS_API_URL", "localhost:5001"),
			Hosts:           getSlice("IPFS_HOSTS", ipfsHosts, ","),
			MetadataRetries: getInt("METADATA_RETRIES", 3),
			MetadataTimeout: getDuration("METADATA_TIMEOUT", 10*time.Second),
		},
		RedirectDelay: getDuration("REDIRECT_DELAY", 1500*time.Millisecond),
		HomeRoute:     getString("HOME_ROUTE", "/"),
		SessionTTL:    getDuration("SESSION_TTL", 30*time.Minute),
	}
}

func getString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getInt(key string, defaultValue int) int {
	valStr := getString(key, "")
	val, _, err := big.ParseFloat(valStr, 10, 0, big.ToNearestEven)
	if err != nil {
		return defaultValue
	}

	intVal, _ := val.Int64()
	return int(intVal)
}

func getUint64(key string, defaultValue uint64) uint64 {
	valStr := getString(key, "")
	val, err := strconv.ParseUint(valStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return val
}

func getBool(key string, defaultValue bool) bool {
	valStr := getString(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	valStr := getString(key, "")
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}

	return defaultValue
}

func getSlice(key string, defaultVal []string, sep string) []string {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultVal
	}

	return strings.Split(valStr, sep)
}

// getNetworks は "80001=https://...,137=https://..." 形式を読む
func getNetworks(key string) map[uint64]string {
	networks := make(map[uint64]string)
	for _, entry := range getSlice(key, nil, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), "=", 2)
		if len(parts) != 2 {
			continue
		}
		chainID, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil || parts[1] == "" {
			continue
		}
		networks[chainID] = parts[1]
	}

	return networks
}
