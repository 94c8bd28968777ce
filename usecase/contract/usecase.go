package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"nft-marketplace-onchain/gateway/collection"
	"nft-marketplace-onchain/gateway/marketplace"
	"nft-marketplace-onchain/gateway/wallet"
	"nft-marketplace-onchain/model"
)

var ErrContractUnavailable = errors.New("collection contract is not configured")

// ContractInfo は設定済みコントラクトと接続中ネットワークの情報
type ContractInfo struct {
	Collection  string            `json:"collection_contract,omitempty"`
	Marketplace string            `json:"marketplace_contract,omitempty"`
	Wallet      model.WalletState `json:"wallet"`
}

// ContractUsecase はコントラクトの参照系ロジック
type ContractUsecase interface {
	// Info はコントラクト情報を返す
	Info() ContractInfo

	// GetItem はコレクションからNFTを取得
	GetItem(ctx context.Context, tokenID *big.Int) (*model.OwnedNFT, error)

	// VerifyTransaction はトランザクションを検証
	VerifyTransaction(ctx context.Context, txHash string) (*model.TxVerification, error)
}

type contractUsecase struct {
	wallet      wallet.Provider
	collection  collection.CollectionGateway
	marketplace marketplace.MarketplaceGateway
}

func NewContractUsecase(w wallet.Provider, collectionGw collection.CollectionGateway, marketplaceGw marketplace.MarketplaceGateway) *contractUsecase {
	return &contractUsecase{
		wallet:      w,
		collection:  collectionGw,
		marketplace: marketplaceGw,
	}
}

func (uc *contractUsecase) Info() ContractInfo {
	info := ContractInfo{Wallet: wallet.State(uc.wallet)}
	if uc.collection != nil {
		info.Collection = uc.collection.GetContractAddress()
	}
	if uc.marketplace != nil {
		info.Marketplace = uc.marketplace.GetContractAddress()
	}
	return info
}

func (uc *contractUsecase) GetItem(ctx context.Context, tokenID *big.Int) (*model.OwnedNFT, error) {
	if uc.collection == nil {
		return nil, ErrContractUnavailable
	}
	return uc.collection.GetNFT(ctx, tokenID)
}

// VerifyTransaction は設定済みコントラクトへの呼び出しかどうかも判定する
func (uc *contractUsecase) VerifyTransaction(ctx context.Context, txHash string) (*model.TxVerification, error) {
	backend := uc.wallet.Backend()
	if backend == nil {
		return nil, wallet.ErrUnsupportedChain
	}

	var contracts []common.Address
	if uc.collection != nil {
		contracts = append(contracts, common.HexToAddress(uc.collection.GetContractAddress()))
	}
	if uc.marketplace != nil {
		contracts = append(contracts, common.HexToAddress(uc.marketplace.GetContractAddress()))
	}

	return wallet.VerifyTransaction(ctx, backend, txHash, contracts...)
}
