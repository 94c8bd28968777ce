package handler

import (
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"nft-marketplace-onchain/gateway/collection"
	"nft-marketplace-onchain/gateway/wallet"
	"nft-marketplace-onchain/usecase/contract"
)

type ContractHandler struct {
	contractUC usecase.ContractUsecase
}

func NewContractHandler(uc usecase.ContractUsecase) *ContractHandler {
	return &ContractHandler{contractUC: uc}
}

// HandleGetItem はコレクションからNFTを取得
func (h *ContractHandler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tokenIDStr := vars["tokenId"]

	tokenID, ok := new(big.Int).SetString(tokenIDStr, 10)
	if !ok || tokenID.Sign() < 0 {
		http.Error(w, "Invalid token ID", http.StatusBadRequest)
		return
	}

	nft, err := h.contractUC.GetItem(r.Context(), tokenID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrContractUnavailable):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		case errors.Is(err, collection.ErrTokenNotFound):
			http.Error(w, "Item not found", http.StatusNotFound)
		default:
			zap.L().With(zap.Error(err)).Error("Failed to get item")
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(nft)
}

// VerifyTxRequest はトランザクション検証リクエスト
type VerifyTxRequest struct {
	TxHash string `json:"tx_hash"`
}

// HandleVerifyTransaction はトランザクションを検証
func (h *ContractHandler) HandleVerifyTransaction(w http.ResponseWriter, r *http.Request) {
	var req VerifyTxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.TxHash == "" {
		http.Error(w, "tx_hash is required", http.StatusBadRequest)
		return
	}

	verification, err := h.contractUC.VerifyTransaction(r.Context(), req.TxHash)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrUnsupportedChain):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		case errors.Is(err, wallet.ErrInvalidTxHash):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ethereum.NotFound):
			http.Error(w, "Transaction not found", http.StatusNotFound)
		default:
			zap.L().With(zap.Error(err)).Error("Failed to verify transaction")
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(verification)
}

// HandleContractInfo はコントラクト情報を返す
func (h *ContractHandler) HandleContractInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.contractUC.Info())
}
