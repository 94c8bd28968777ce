package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"nft-marketplace-onchain/notify"
	"nft-marketplace-onchain/usecase/listing"
)

type ListingHandler struct {
	listingUC usecase.ListingUsecase
	hub       *notify.Hub
	pages     *cache.Cache
}

// NewListingHandler は ttl の間アクセスの無いページを破棄する
func NewListingHandler(uc usecase.ListingUsecase, hub *notify.Hub, ttl time.Duration) *ListingHandler {
	return &ListingHandler{
		listingUC: uc,
		hub:       hub,
		pages:     cache.New(ttl, 2*ttl),
	}
}

type pageResponse struct {
	PageID string `json:"page_id"`
	usecase.PageView
}

// HandleOpenPage は新しいページを作成する。page_id は /ws?session= にも使う
func (h *ListingHandler) HandleOpenPage(w http.ResponseWriter, r *http.Request) {
	pageID := uuid.New().String()

	page, err := h.listingUC.OpenPage(r.Context(), h.hub.Session(pageID))
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to open listing page")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.pages.SetDefault(pageID, page)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(pageResponse{PageID: pageID, PageView: page.View()})
}

// HandleGetPage はページの表示内容を返す
func (h *ListingHandler) HandleGetPage(w http.ResponseWriter, r *http.Request) {
	pageID, page, ok := h.page(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pageResponse{PageID: pageID, PageView: page.View()})
}

// SelectRequest はNFT選択リクエスト
type SelectRequest struct {
	ID string `json:"id"`
}

// HandleSelect はNFTを選択する
func (h *ListingHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	pageID, page, ok := h.page(w, r)
	if !ok {
		return
	}

	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := page.Select(req.ID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pageResponse{PageID: pageID, PageView: page.View()})
}

// HandleSubmit は選択中のNFTを出品する。結果はWebSocketのトーストで通知される
func (h *ListingHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	_, page, ok := h.page(w, r)
	if !ok {
		return
	}

	var form usecase.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := page.Submit(r.Context(), form); err != nil {
		switch {
		case errors.Is(err, usecase.ErrContractUnavailable):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		case errors.Is(err, usecase.ErrNetworkMismatch):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, usecase.ErrNoSelection), errors.Is(err, usecase.ErrInvalidListingType):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "submitted"})
}

func (h *ListingHandler) page(w http.ResponseWriter, r *http.Request) (string, *usecase.Page, bool) {
	pageID := mux.Vars(r)["pageId"]
	v, found := h.pages.Get(pageID)
	if !found {
		http.Error(w, "Page not found", http.StatusNotFound)
		return "", nil, false
	}
	// アクセスのたびに有効期限を延ばす
	h.pages.SetDefault(pageID, v)
	return pageID, v.(*usecase.Page), true
}
