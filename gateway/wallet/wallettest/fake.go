// Package wallettest はテスト用の Backend / Provider 実装
package wallettest

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"nft-marketplace-onchain/gateway/wallet"
)

// Backend はメモリ上で応答する wallet.Backend
type Backend struct {
	mu sync.Mutex

	ID      uint64
	BaseFee *big.Int
	// Call は CallContract の応答を決める
	Call func(msg ethereum.CallMsg) ([]byte, error)
	// Receipt は送信済みトランザクションの receipt を作る
	Receipt func(tx *types.Transaction) *types.Receipt

	Sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt
}

func (b *Backend) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).SetUint64(b.ID), nil
}

func (b *Backend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if b.Call == nil {
		return nil, ethereum.NotFound
	}
	return b.Call(msg)
}

func (b *Backend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.Sent)), nil
}

func (b *Backend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1e9), nil
}

func (b *Backend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1e9), nil
}

func (b *Backend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(100), BaseFee: b.BaseFee}, nil
}

func (b *Backend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return 100000, nil
}

func (b *Backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Sent = append(b.Sent, tx)
	receipt := &types.Receipt{Status: types.ReceiptStatusSuccessful}
	if b.Receipt != nil {
		receipt = b.Receipt(tx)
	}
	receipt.TxHash = tx.Hash()
	if receipt.BlockNumber == nil {
		receipt.BlockNumber = big.NewInt(101)
	}
	if b.receipts == nil {
		b.receipts = make(map[common.Hash]*types.Receipt)
	}
	b.receipts[tx.Hash()] = receipt
	return nil
}

func (b *Backend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r, ok := b.receipts[txHash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (b *Backend) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, tx := range b.Sent {
		if tx.Hash() == hash {
			return tx, false, nil
		}
	}
	return nil, false, ethereum.NotFound
}

// Provider は wallet.Provider のテスト実装
type Provider struct {
	mu sync.Mutex

	Addr      common.Address
	Connected bool
	Active    uint64
	Required  uint64
	Chain     *Backend

	// Transacted は Transact に渡された呼び出し
	Transacted []Call
	// OnTransact が nil でなければ Transact の結果を差し替える
	OnTransact func(to common.Address, data []byte) (*types.Receipt, error)
	Switches   []uint64
}

// Call は Transact 1回分の記録
type Call struct {
	To   common.Address
	Data []byte
}

var _ wallet.Provider = (*Provider)(nil)

func (p *Provider) Address() (common.Address, bool) {
	return p.Addr, p.Connected
}

func (p *Provider) ChainID() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Active
}

func (p *Provider) RequiredChainID() uint64 {
	return p.Required
}

func (p *Provider) SwitchChain(ctx context.Context, chainID uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Switches = append(p.Switches, chainID)
	p.Active = chainID
	return nil
}

func (p *Provider) Backend() wallet.Backend {
	if p.Chain == nil {
		return nil
	}
	return p.Chain
}

func (p *Provider) Transact(ctx context.Context, to common.Address, data []byte) (*types.Receipt, error) {
	p.mu.Lock()
	p.Transacted = append(p.Transacted, Call{To: to, Data: data})
	onTransact := p.OnTransact
	p.mu.Unlock()

	if onTransact != nil {
		return onTransact(to, data)
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(101)}, nil
}

// Calls は Transact の記録のコピーを返す
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.Transacted...)
}
