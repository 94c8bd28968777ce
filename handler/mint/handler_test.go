package handler

import (
	"bytes"
	"context"
	"math/big"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nft-marketplace-onchain/gateway/wallet/wallettest"
	"nft-marketplace-onchain/model"
	"nft-marketplace-onchain/notify"
	"nft-marketplace-onchain/usecase/mint"
)

type fakeMintUsecase struct {
	got model.DraftMetadata
	err error
}

func (f *fakeMintUsecase) Mint(ctx context.Context, ui notify.Surface, draft model.DraftMetadata) (*model.MintResult, error) {
	f.got = draft
	if f.err != nil {
		return nil, f.err
	}
	return &model.MintResult{TxHash: "0xabc", TokenID: big.NewInt(1)}, nil
}

func multipartRequest(t *testing.T, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", "sunset.png")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		part.Write(image)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/items", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandleMint(t *testing.T) {
	uc := &fakeMintUsecase{}
	h := NewMintHandler(uc, notify.NewHub(nil))

	rec := httptest.NewRecorder()
	h.HandleMint(rec, multipartRequest(t, map[string]string{"name": "Sunset", "description": "orange", "session": "s1"}, []byte("png")))

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if uc.got.Name != "Sunset" || uc.got.Description != "orange" {
		t.Errorf("Unexpected draft %+v", uc.got)
	}
	if uc.got.Image == nil || string(uc.got.Image.Data) != "png" || uc.got.Image.Filename != "sunset.png" {
		t.Errorf("Expected the uploaded image to reach the usecase, got %+v", uc.got.Image)
	}
}

func TestHandleMint_Errors(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
	}{
		{usecase.ErrImageRequired, http.StatusBadRequest},
		{usecase.ErrWalletNotConnected, http.StatusConflict},
		{usecase.ErrContractUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		h := NewMintHandler(&fakeMintUsecase{err: tt.err}, nil)
		rec := httptest.NewRecorder()
		h.HandleMint(rec, multipartRequest(t, map[string]string{"name": "Sunset"}, nil))

		if rec.Code != tt.wantCode {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.wantCode, rec.Code)
		}
	}
}

// slowCollection は MintTo に時間がかかるコレクション
type slowCollection struct{}

func (slowCollection) MintTo(ctx context.Context, to common.Address, draft model.DraftMetadata) (*model.MintResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(60 * time.Millisecond):
	}
	return &model.MintResult{TxHash: "0xabc", TokenID: big.NewInt(1), Recipient: to.Hex()}, nil
}

func (slowCollection) GetOwnedNFTs(ctx context.Context, owner common.Address) ([]model.OwnedNFT, error) {
	return nil, nil
}

func (slowCollection) GetNFT(ctx context.Context, tokenID *big.Int) (*model.OwnedNFT, error) {
	return nil, nil
}

func (slowCollection) GetContractAddress() string {
	return "0x00000000000000000000000000000000000000c0"
}

func TestHandleMint_ClientDisconnectDoesNotAbortMint(t *testing.T) {
	provider := &wallettest.Provider{Connected: true, Addr: common.HexToAddress("0xa1")}
	uc := usecase.NewMintUsecase(slowCollection{}, provider, time.Millisecond, "/")
	h := NewMintHandler(uc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)
	req := multipartRequest(t, map[string]string{"name": "Sunset"}, []byte("png")).WithContext(ctx)

	rec := httptest.NewRecorder()
	h.HandleMint(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected 201 after the client went away, got %d (%s)", rec.Code, rec.Body.String())
	}
}
