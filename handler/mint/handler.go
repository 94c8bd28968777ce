package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"nft-marketplace-onchain/model"
	"nft-marketplace-onchain/notify"
	"nft-marketplace-onchain/usecase/mint"
)

// maxImageSize は受け付ける画像の最大サイズ
const maxImageSize = 32 << 20

type MintHandler struct {
	mintUC usecase.MintUsecase
	hub    *notify.Hub
}

func NewMintHandler(uc usecase.MintUsecase, hub *notify.Hub) *MintHandler {
	return &MintHandler{mintUC: uc, hub: hub}
}

// HandleMint は multipart フォーム (name, description, image, session) からNFTを発行する
func (h *MintHandler) HandleMint(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	draft := model.DraftMetadata{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		ImageURL:    r.FormValue("image_url"),
	}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "Failed to read image", http.StatusBadRequest)
			return
		}
		draft.Image = &model.ImageFile{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}
	case errors.Is(err, http.ErrMissingFile):
	default:
		http.Error(w, "Invalid image", http.StatusBadRequest)
		return
	}

	var ui notify.Surface = notify.Console{}
	if session := r.FormValue("session"); session != "" && h.hub != nil {
		ui = h.hub.Session(session)
	}

	result, err := h.mintUC.Mint(r.Context(), ui, draft)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrContractUnavailable):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		case errors.Is(err, usecase.ErrWalletNotConnected):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, usecase.ErrImageRequired):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			zap.L().With(zap.Error(err)).Error("Mint request failed")
			http.Error(w, err.Error(), http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}
