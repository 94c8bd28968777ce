package model

import (
	"math/big"
	"time"
)

// WalletState は接続中ウォレットとネットワークのスナップショット
type WalletState struct {
	Address         string `json:"address,omitempty"`
	Connected       bool   `json:"connected"`
	ChainID         uint64 `json:"chain_id"`
	ChainName       string `json:"chain_name,omitempty"`
	RequiredChainID uint64 `json:"required_chain_id"`
	Mismatch        bool   `json:"network_mismatch"`
}

// ===============================================
// Mint ページのモデル
// ===============================================

// ImageFile はフォームで選択された画像ファイル
type ImageFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// DraftMetadata は送信前のメタデータ (フォーム上にだけ存在する)
type DraftMetadata struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Image       *ImageFile `json:"image,omitempty"`     // 画像ファイル
	ImageURL    string     `json:"image_url,omitempty"` // 画像URL (ファイルが無い場合)
}

// MintResult は mintTo の結果 (receipt, id, data())
type MintResult struct {
	TxHash    string    `json:"tx_hash"`
	BlockNo   uint64    `json:"block_number"`
	GasUsed   uint64    `json:"gas_used"`
	TokenID   *big.Int  `json:"token_id"`
	Recipient string    `json:"recipient"`
	TokenURI  string    `json:"token_uri"`
	NFT       *OwnedNFT `json:"nft,omitempty"`
}

// ===============================================
// Listing ページのモデル
// ===============================================

// OwnedNFT はコレクションコントラクトから取得した保有NFT
type OwnedNFT struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	URI         string `json:"uri"`
}

// ListingType はフォームの出品種別
type ListingType string

const (
	ListingDirect  ListingType = "directListing"  // 固定価格
	ListingAuction ListingType = "auctionListing" // オークション
)

// Valid は既知の出品種別かどうか
func (t ListingType) Valid() bool {
	return t == ListingDirect || t == ListingAuction
}

// ListingDraft は createListing に渡す出品パラメータ
type ListingDraft struct {
	AssetContractAddress     string      `json:"asset_contract_address"`
	TokenID                  string      `json:"token_id"`
	CurrencyContractAddress  string      `json:"currency_contract_address"`
	ListingDurationInSeconds uint64      `json:"listing_duration_in_seconds"`
	Quantity                 uint64      `json:"quantity"`
	BuyoutPricePerToken      string      `json:"buyout_price_per_token"`
	ReservePricePerToken     *string     `json:"reserve_price_per_token,omitempty"` // auction のみ
	StartTimestamp           time.Time   `json:"start_timestamp"`
	Type                     ListingType `json:"listing_type"`
}

// ListingReceipt は出品トランザクションの結果
type ListingReceipt struct {
	TxHash    string      `json:"tx_hash"`
	BlockNo   uint64      `json:"block_number"`
	ListingID *big.Int    `json:"listing_id,omitempty"`
	Type      ListingType `json:"listing_type"`
}

// TxVerification はトランザクション検証結果
type TxVerification struct {
	TxHash         string `json:"tx_hash"`
	Status         string `json:"status"` // "pending", "success", "failed"
	BlockNumber    uint64 `json:"block_number,omitempty"`
	GasUsed        uint64 `json:"gas_used,omitempty"`
	Success        bool   `json:"success"`
	IsContractCall bool   `json:"is_contract_call"`
}

// ===============================================
// 通知・画面遷移
// ===============================================

// NotificationKind はトーストの種類
type NotificationKind string

const (
	NotifyLoading NotificationKind = "loading"
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyDismiss NotificationKind = "dismiss"
	NotifyAlert   NotificationKind = "alert" // ユーザーへの確認プロンプト
)

// Notification はユーザーに表示する一時的な通知
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message,omitempty"`
}

// Navigation はクライアント側の画面遷移
type Navigation struct {
	Route string `json:"route"`
}
