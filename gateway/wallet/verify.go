package wallet

import (
	"context"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"nft-marketplace-onchain/model"
)

// ErrInvalidTxHash は 32 バイトの 0x 付き16進数でないハッシュ
var ErrInvalidTxHash = errors.New("invalid transaction hash")

const (
	txPending = "pending"
	txSuccess = "success"
	txFailed  = "failed"
)

// VerifyTransaction はトランザクションの状態を調べる。
// 宛先が contracts のいずれかなら IsContractCall を立てる。
// RPC のエラーは原因を保ったまま返すので ethereum.NotFound を errors.Is で判定できる。
func VerifyTransaction(ctx context.Context, backend Backend, txHash string, contracts ...common.Address) (*model.TxVerification, error) {
	hash, err := parseTxHash(txHash)
	if err != nil {
		return nil, err
	}

	tx, pending, err := backend.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, errors.Wrapf(err, "transaction %s", hash.Hex())
	}
	result := &model.TxVerification{
		TxHash:         hash.Hex(),
		IsContractCall: sentTo(tx, contracts),
	}
	if pending {
		result.Status = txPending
		return result, nil
	}

	receipt, err := backend.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, errors.Wrapf(err, "receipt of %s", hash.Hex())
	}
	result.GasUsed = receipt.GasUsed
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
	}
	switch receipt.Status {
	case types.ReceiptStatusSuccessful:
		result.Status, result.Success = txSuccess, true
	default:
		result.Status = txFailed
	}
	return result, nil
}

func parseTxHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, errors.Wrapf(ErrInvalidTxHash, "%q: %v", s, err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, errors.Wrapf(ErrInvalidTxHash, "%q is %d bytes", s, len(b))
	}
	return common.BytesToHash(b), nil
}

func sentTo(tx *types.Transaction, contracts []common.Address) bool {
	to := tx.To()
	return to != nil && slices.Contains(contracts, *to)
}
