package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"nft-marketplace-onchain/gateway/wallet"
)

type WalletHandler struct {
	wallet wallet.Provider
}

func NewWalletHandler(w wallet.Provider) *WalletHandler {
	return &WalletHandler{wallet: w}
}

// HandleGetWallet は接続中ウォレットとネットワークの状態を返す
func (h *WalletHandler) HandleGetWallet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(wallet.State(h.wallet))
}

// SwitchNetworkRequest はネットワーク切り替えリクエスト
type SwitchNetworkRequest struct {
	ChainID uint64 `json:"chain_id"`
}

// HandleSwitchNetwork はアクティブなネットワークを切り替える。chain_id 省略時は必須ネットワーク
func (h *WalletHandler) HandleSwitchNetwork(w http.ResponseWriter, r *http.Request) {
	var req SwitchNetworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ChainID == 0 {
		req.ChainID = h.wallet.RequiredChainID()
	}

	if err := h.wallet.SwitchChain(r.Context(), req.ChainID); err != nil {
		if errors.Is(err, wallet.ErrUnsupportedChain) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		zap.L().With(zap.Error(err)).Error("Network switch failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(wallet.State(h.wallet))
}
