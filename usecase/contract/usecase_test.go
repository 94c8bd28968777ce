package usecase

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"nft-marketplace-onchain/gateway/wallet"
	"nft-marketplace-onchain/gateway/wallet/wallettest"
	"nft-marketplace-onchain/model"
)

type fakeCollection struct{}

func (fakeCollection) MintTo(ctx context.Context, to common.Address, draft model.DraftMetadata) (*model.MintResult, error) {
	return nil, errors.New("not used")
}

func (fakeCollection) GetOwnedNFTs(ctx context.Context, owner common.Address) ([]model.OwnedNFT, error) {
	return nil, nil
}

func (fakeCollection) GetNFT(ctx context.Context, tokenID *big.Int) (*model.OwnedNFT, error) {
	return &model.OwnedNFT{ID: tokenID.String(), Name: "Sunset"}, nil
}

func (fakeCollection) GetContractAddress() string {
	return "0x00000000000000000000000000000000000000C0"
}

func TestInfo(t *testing.T) {
	provider := &wallettest.Provider{Connected: true, Addr: common.HexToAddress("0xa1"), Active: 1, Required: 80001}
	uc := NewContractUsecase(provider, fakeCollection{}, nil)

	info := uc.Info()
	if info.Collection != "0x00000000000000000000000000000000000000C0" || info.Marketplace != "" {
		t.Errorf("Unexpected contracts %+v", info)
	}
	if !info.Wallet.Connected || !info.Wallet.Mismatch {
		t.Errorf("Expected a connected wallet on the wrong network, got %+v", info.Wallet)
	}
}

func TestGetItem(t *testing.T) {
	provider := &wallettest.Provider{}

	if _, err := NewContractUsecase(provider, nil, nil).GetItem(context.Background(), big.NewInt(1)); !errors.Is(err, ErrContractUnavailable) {
		t.Errorf("Expected ErrContractUnavailable, got %v", err)
	}

	nft, err := NewContractUsecase(provider, fakeCollection{}, nil).GetItem(context.Background(), big.NewInt(3))
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if nft.ID != "3" {
		t.Errorf("Expected token 3, got %s", nft.ID)
	}
}

func TestVerifyTransaction_NoBackend(t *testing.T) {
	uc := NewContractUsecase(&wallettest.Provider{}, fakeCollection{}, nil)
	if _, err := uc.VerifyTransaction(context.Background(), "0x01"); !errors.Is(err, wallet.ErrUnsupportedChain) {
		t.Errorf("Expected ErrUnsupportedChain, got %v", err)
	}
}
