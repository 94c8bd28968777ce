package usecase

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"nft-marketplace-onchain/gateway/collection"
	"nft-marketplace-onchain/gateway/wallet"
	"nft-marketplace-onchain/model"
	"nft-marketplace-onchain/notify"
)

const (
	msgConnectWallet = "Please connect your wallet"
	msgSelectImage   = "Please select an image"
	msgMinting       = "Creating new item..."
	msgMinted        = "New item has been created!"
	msgMintFailed    = "New item has not been created"
)

var (
	ErrContractUnavailable = errors.New("collection contract is not configured")
	ErrWalletNotConnected  = errors.New("wallet is not connected")
	ErrImageRequired       = errors.New("image file is required")
)

// MintUsecase は Mint ページのビジネスロジック
type MintUsecase interface {
	// Mint は接続中のアドレス宛てに新しいNFTを発行する
	Mint(ctx context.Context, ui notify.Surface, draft model.DraftMetadata) (*model.MintResult, error)
}

type mintUsecase struct {
	collection    collection.CollectionGateway
	wallet        wallet.Provider
	redirectDelay time.Duration
	homeRoute     string
}

// NewMintUsecase は collection が nil の場合 Mint を常に ErrContractUnavailable で返す
func NewMintUsecase(gw collection.CollectionGateway, w wallet.Provider, redirectDelay time.Duration, homeRoute string) *mintUsecase {
	return &mintUsecase{
		collection:    gw,
		wallet:        w,
		redirectDelay: redirectDelay,
		homeRoute:     homeRoute,
	}
}

func (uc *mintUsecase) Mint(ctx context.Context, ui notify.Surface, draft model.DraftMetadata) (*model.MintResult, error) {
	if uc.collection == nil {
		return nil, ErrContractUnavailable
	}

	address, ok := uc.wallet.Address()
	if !ok {
		ui.Alert(msgConnectWallet)
		return nil, ErrWalletNotConnected
	}
	if draft.Image == nil || len(draft.Image.Data) == 0 {
		ui.Alert(msgSelectImage)
		return nil, ErrImageRequired
	}

	ui.Loading(msgMinting)

	// 送信したトランザクションはリクエストが切断されても待ち続ける
	result, err := uc.collection.MintTo(context.WithoutCancel(ctx), address, draft)
	ui.Dismiss()
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Mint failed")
		ui.Error(msgMintFailed)
		return nil, errors.Wrap(err, "mint")
	}

	zap.S().Infof("Minted token %v to %s (tx: %s)", result.TokenID, address.Hex(), result.TxHash)
	ui.Success(msgMinted)

	route := uc.homeRoute
	time.AfterFunc(uc.redirectDelay, func() {
		ui.Navigate(route)
	})

	return result, nil
}
