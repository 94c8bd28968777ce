package usecase

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"nft-marketplace-onchain/gateway/wallet/wallettest"
	"nft-marketplace-onchain/model"
	"nft-marketplace-onchain/notify/notifytest"
)

type fakeCollection struct {
	minted []common.Address
	err    error
	delay  time.Duration
}

func (f *fakeCollection) MintTo(ctx context.Context, to common.Address, draft model.DraftMetadata) (*model.MintResult, error) {
	f.minted = append(f.minted, to)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.MintResult{TxHash: "0xabc", TokenID: big.NewInt(7), Recipient: to.Hex()}, nil
}

func (f *fakeCollection) GetOwnedNFTs(ctx context.Context, owner common.Address) ([]model.OwnedNFT, error) {
	return nil, nil
}

func (f *fakeCollection) GetNFT(ctx context.Context, tokenID *big.Int) (*model.OwnedNFT, error) {
	return nil, nil
}

func (f *fakeCollection) GetContractAddress() string {
	return "0x00000000000000000000000000000000000000c0"
}

var owner = common.HexToAddress("0x00000000000000000000000000000000000000a1")

func draftWithImage() model.DraftMetadata {
	return model.DraftMetadata{
		Name:        "Sunset",
		Description: "orange",
		Image:       &model.ImageFile{Filename: "sunset.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	}
}

func TestMint_Preconditions(t *testing.T) {
	tests := []struct {
		name      string
		connected bool
		draft     model.DraftMetadata
		wantErr   error
		wantAlert string
	}{
		{"no wallet", false, draftWithImage(), ErrWalletNotConnected, msgConnectWallet},
		{"no image", true, model.DraftMetadata{Name: "Sunset"}, ErrImageRequired, msgSelectImage},
		{"empty image", true, model.DraftMetadata{Name: "Sunset", Image: &model.ImageFile{Filename: "a.png"}}, ErrImageRequired, msgSelectImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeCollection{}
			provider := &wallettest.Provider{Connected: tt.connected, Addr: owner}
			ui := notifytest.NewRecorder()
			uc := NewMintUsecase(gw, provider, time.Millisecond, "/")

			_, err := uc.Mint(context.Background(), ui, tt.draft)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if len(gw.minted) != 0 {
				t.Error("Expected mint not to be called")
			}
			alerts := ui.Of(model.NotifyAlert)
			if len(alerts) != 1 || alerts[0].Message != tt.wantAlert {
				t.Errorf("Expected alert %q, got %+v", tt.wantAlert, alerts)
			}
			if len(ui.Of(model.NotifyLoading)) != 0 {
				t.Error("Expected no loading toast")
			}
		})
	}
}

func TestMint_ContractUnavailable(t *testing.T) {
	provider := &wallettest.Provider{Connected: true, Addr: owner}
	uc := NewMintUsecase(nil, provider, time.Millisecond, "/")

	_, err := uc.Mint(context.Background(), notifytest.NewRecorder(), draftWithImage())
	if !errors.Is(err, ErrContractUnavailable) {
		t.Errorf("Expected ErrContractUnavailable, got %v", err)
	}
}

func TestMint_SuccessNavigatesHomeOnce(t *testing.T) {
	gw := &fakeCollection{}
	provider := &wallettest.Provider{Connected: true, Addr: owner}
	ui := notifytest.NewRecorder()
	uc := NewMintUsecase(gw, provider, 20*time.Millisecond, "/")

	result, err := uc.Mint(context.Background(), ui, draftWithImage())
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if result.TokenID.Int64() != 7 {
		t.Errorf("Expected token 7, got %v", result.TokenID)
	}
	if len(gw.minted) != 1 || gw.minted[0] != owner {
		t.Fatalf("Expected one mint to %s, got %v", owner.Hex(), gw.minted)
	}

	if ui.NavigationCount() != 0 {
		t.Error("Expected navigation to wait for the redirect delay")
	}
	route, ok := ui.WaitNavigation(time.Second)
	if !ok || route != "/" {
		t.Fatalf("Expected navigation to /, got %q (%v)", route, ok)
	}

	success := ui.Of(model.NotifySuccess)
	if len(success) != 1 || success[0].Message != msgMinted {
		t.Errorf("Expected one success toast, got %+v", success)
	}
	if len(ui.Of(model.NotifyError)) != 0 {
		t.Error("Expected no error toast")
	}
	if loading := ui.Of(model.NotifyLoading); len(loading) != 1 || loading[0].Message != msgMinting {
		t.Errorf("Expected loading toast, got %+v", loading)
	}

	time.Sleep(50 * time.Millisecond)
	if ui.NavigationCount() != 1 {
		t.Errorf("Expected exactly one navigation, got %d", ui.NavigationCount())
	}
}

func TestMint_FailureShowsErrorWithoutNavigation(t *testing.T) {
	gw := &fakeCollection{err: errors.New("execution reverted")}
	provider := &wallettest.Provider{Connected: true, Addr: owner}
	ui := notifytest.NewRecorder()
	uc := NewMintUsecase(gw, provider, time.Millisecond, "/")

	if _, err := uc.Mint(context.Background(), ui, draftWithImage()); err == nil {
		t.Fatal("Expected error")
	}

	errs := ui.Of(model.NotifyError)
	if len(errs) != 1 || errs[0].Message != msgMintFailed {
		t.Errorf("Expected one error toast, got %+v", errs)
	}
	if len(ui.Of(model.NotifySuccess)) != 0 {
		t.Error("Expected no success toast")
	}
	if _, ok := ui.WaitNavigation(30 * time.Millisecond); ok {
		t.Error("Expected no navigation after a failed mint")
	}
}

func TestMint_DetachedFromRequestContext(t *testing.T) {
	gw := &fakeCollection{delay: 60 * time.Millisecond}
	provider := &wallettest.Provider{Connected: true, Addr: owner}
	ui := notifytest.NewRecorder()
	uc := NewMintUsecase(gw, provider, time.Millisecond, "/")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	if _, err := uc.Mint(ctx, ui, draftWithImage()); err != nil {
		t.Fatalf("Expected the mint to complete after the request ended, got %v", err)
	}
	if len(ui.Of(model.NotifyError)) != 0 {
		t.Errorf("Expected no error toast, got %+v", ui.Of(model.NotifyError))
	}
	if len(ui.Of(model.NotifySuccess)) != 1 {
		t.Errorf("Expected one success toast, got %+v", ui.Of(model.NotifySuccess))
	}
}
