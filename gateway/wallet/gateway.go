package wallet

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"nft-marketplace-onchain/model"
)

var (
	ErrNotConnected     = errors.New("wallet is not connected")
	ErrUnsupportedChain = errors.New("chain is not configured")
	ErrTxReverted       = errors.New("transaction failed on chain (reverted)")
)

// Backend はチェーンとの通信 (ethclient.Client が満たす)
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, isPending bool, err error)
}

// Provider はウォレットとネットワークの状態を提供する
type Provider interface {
	// Address は接続中のアドレスを返す (未接続なら false)
	Address() (common.Address, bool)

	// ChainID は現在アクティブなチェーン
	ChainID() uint64

	// RequiredChainID はマーケットプレイスが存在するチェーン
	RequiredChainID() uint64

	// SwitchChain はアクティブなチェーンを切り替える
	SwitchChain(ctx context.Context, chainID uint64) error

	// Backend はアクティブなチェーンのクライアント
	Backend() Backend

	// Transact は署名して送信し、receipt を待つ
	Transact(ctx context.Context, to common.Address, data []byte) (*types.Receipt, error)
}

// State は Provider の状態をモデルに変換する
func State(p Provider) model.WalletState {
	state := model.WalletState{
		ChainID:         p.ChainID(),
		ChainName:       NetworkName(p.ChainID()),
		RequiredChainID: p.RequiredChainID(),
		Mismatch:        p.ChainID() != p.RequiredChainID(),
	}
	if addr, ok := p.Address(); ok {
		state.Address = addr.Hex()
		state.Connected = true
	}

	return state
}

// EthWallet は秘密鍵で署名するウォレット実装
type EthWallet struct {
	mu       sync.RWMutex
	key      *ecdsa.PrivateKey
	address  common.Address
	backends map[uint64]Backend
	active   uint64
	required uint64

	txTimeout    time.Duration
	pollInterval time.Duration
}

// NewEthWallet は新しいウォレットを作成する。privateKeyHex が空なら未接続のまま動く。
func NewEthWallet(privateKeyHex string, backends map[uint64]Backend, active, required uint64, txTimeout time.Duration) (*EthWallet, error) {
	if len(backends) == 0 {
		return nil, errors.New("no chain backend configured")
	}
	if active == 0 {
		var err error
		if active, err = defaultChain(backends, required); err != nil {
			return nil, err
		}
	}
	if _, ok := backends[active]; !ok {
		return nil, errors.Wrapf(ErrUnsupportedChain, "ACTIVE_CHAIN_ID %d has no node (configured: %v)", active, chainIDs(backends))
	}
	if _, ok := backends[required]; !ok {
		zap.S().Warnf("Required chain %d has no RPC configured; listings cannot be created", required)
	}

	w := &EthWallet{
		backends:     backends,
		active:       active,
		required:     required,
		txTimeout:    txTimeout,
		pollInterval: 2 * time.Second,
	}

	if privateKeyHex != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
		if err != nil {
			return nil, errors.Wrap(err, "invalid wallet private key")
		}
		w.key = key
		w.address = crypto.PubkeyToAddress(key.PublicKey)
		zap.S().Infof("Wallet connected: %s", w.address.Hex())
	} else {
		zap.L().Warn("WALLET_PRIVATE_KEY not set. Mint and listing actions will be blocked.")
	}

	return w, nil
}

// defaultChain は ACTIVE_CHAIN_ID 未指定時の接続先を決める。
// required のノードが無くても、ノードが1つだけならそのチェーンを使う。
func defaultChain(backends map[uint64]Backend, required uint64) (uint64, error) {
	if _, ok := backends[required]; ok {
		return required, nil
	}
	ids := chainIDs(backends)
	if len(ids) == 1 {
		zap.S().Warnf("Node is on chain %d, not REQUIRED_CHAIN_ID %d; starting on chain %d", ids[0], required, ids[0])
		return ids[0], nil
	}
	return 0, errors.Wrapf(ErrUnsupportedChain, "REQUIRED_CHAIN_ID %d has no node and ACTIVE_CHAIN_ID is unset (configured: %v)", required, ids)
}

func chainIDs(backends map[uint64]Backend) []uint64 {
	ids := make([]uint64, 0, len(backends))
	for id := range backends {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// DialNetworks は各RPCに接続し、実際の chainId をキーにして返す。
// キーが 0 の URL は chainId を問い合わせて決める。
func DialNetworks(ctx context.Context, urls map[uint64]string) (map[uint64]Backend, error) {
	backends := make(map[uint64]Backend)
	for configured, url := range urls {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to dial %s", url)
		}
		chainID, err := client.ChainID(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read chain id from %s", url)
		}
		if configured != 0 && configured != chainID.Uint64() {
			zap.S().Warnf("RPC %s reports chain %d but was configured as %d", url, chainID.Uint64(), configured)
		}
		backends[chainID.Uint64()] = client
		zap.S().Infof("Connected to %s (chain %d)", NetworkName(chainID.Uint64()), chainID.Uint64())
	}

	return backends, nil
}

func (w *EthWallet) Address() (common.Address, bool) {
	return w.address, w.key != nil
}

func (w *EthWallet) ChainID() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.active
}

func (w *EthWallet) RequiredChainID() uint64 {
	return w.required
}

// SwitchChain はアクティブなチェーンを切り替える
func (w *EthWallet) SwitchChain(ctx context.Context, chainID uint64) error {
	backend, ok := w.backends[chainID]
	if !ok {
		return errors.Wrapf(ErrUnsupportedChain, "chain %d", chainID)
	}

	// 切り替え前に疎通確認
	if _, err := backend.HeaderByNumber(ctx, nil); err != nil {
		return errors.Wrapf(err, "chain %d is unreachable", chainID)
	}

	w.mu.Lock()
	prev := w.active
	w.active = chainID
	w.mu.Unlock()

	zap.S().Infof("Switched network: %s -> %s", NetworkName(prev), NetworkName(chainID))
	return nil
}

func (w *EthWallet) Backend() Backend {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.backends[w.active]
}

// Transact はトランザクションを作成・署名・送信し、マイニングを待つ
func (w *EthWallet) Transact(ctx context.Context, to common.Address, data []byte) (*types.Receipt, error) {
	if w.key == nil {
		return nil, ErrNotConnected
	}

	w.mu.RLock()
	chainID := new(big.Int).SetUint64(w.active)
	backend := w.backends[w.active]
	w.mu.RUnlock()

	nonce, err := backend.PendingNonceAt(ctx, w.address)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get nonce")
	}

	gas, err := backend.EstimateGas(ctx, ethereum.CallMsg{From: w.address, To: &to, Data: data})
	if err != nil {
		return nil, errors.Wrap(err, "failed to estimate gas")
	}
	gas = gas * 12 / 10

	head, err := backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get latest block")
	}

	var tx *types.Transaction
	if head.BaseFee != nil {
		tip, err := backend.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to suggest gas tip")
		}
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        &to,
			Value:     big.NewInt(0),
			Data:      data,
		})
	} else {
		gasPrice, err := backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to suggest gas price")
		}
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gas,
			To:       &to,
			Value:    big.NewInt(0),
			Data:     data,
		})
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), w.key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	if err := backend.SendTransaction(ctx, signed); err != nil {
		return nil, errors.Wrap(err, "failed to send transaction")
	}
	zap.S().Infof("Transaction sent: %s (to %s, chain %d)", signed.Hash().Hex(), to.Hex(), chainID.Uint64())

	receipt, err := w.waitMined(ctx, backend, signed.Hash())
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, errors.Wrapf(ErrTxReverted, "tx %s", signed.Hash().Hex())
	}

	zap.S().Infof("Transaction mined: %s (block %d, gas %d)", signed.Hash().Hex(), receipt.BlockNumber.Uint64(), receipt.GasUsed)
	return receipt, nil
}

// waitMined は receipt が取得できるまでポーリングする
func (w *EthWallet) waitMined(ctx context.Context, backend Backend, hash common.Hash) (*types.Receipt, error) {
	if w.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.txTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := backend.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			zap.S().Debugf("Receipt for %s not available yet: %v", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "waiting for tx %s", hash.Hex())
		case <-ticker.C:
		}
	}
}
