package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"nft-marketplace-onchain/gateway/collection"
	"nft-marketplace-onchain/gateway/marketplace"
	"nft-marketplace-onchain/gateway/wallet"
	"nft-marketplace-onchain/model"
	"nft-marketplace-onchain/notify"
)

const (
	// ListingDuration は出品期間 (7日)
	ListingDuration uint64 = 60 * 60 * 24 * 7

	msgListing = "Listing new item..."
)

var (
	ErrContractUnavailable = errors.New("marketplace contract is not configured")
	ErrNetworkMismatch     = errors.New("wallet is on the wrong network")
	ErrNoSelection         = errors.New("no NFT selected")
	ErrInvalidListingType  = errors.New("unknown listing type")
	ErrUnknownNFT          = errors.New("NFT is not owned by the connected wallet")
)

// 出品種別ごとのトースト文言
var messages = map[model.ListingType]struct{ success, failure string }{
	model.ListingDirect:  {"Item has been listed", "Item has not been listed"},
	model.ListingAuction: {"Item has been added", "Item has not been added"},
}

// ListingUsecase は Listing ページのビジネスロジック
type ListingUsecase interface {
	// OpenPage は接続中ウォレットの保有NFTを読み込んだページを返す
	OpenPage(ctx context.Context, ui notify.Surface) (*Page, error)
}

type listingUsecase struct {
	collection    collection.CollectionGateway
	marketplace   marketplace.MarketplaceGateway
	wallet        wallet.Provider
	redirectDelay time.Duration
	homeRoute     string
	now           func() time.Time
}

// NewListingUsecase は collection / marketplace が nil でも作成できる
func NewListingUsecase(
	collectionGw collection.CollectionGateway,
	marketplaceGw marketplace.MarketplaceGateway,
	w wallet.Provider,
	redirectDelay time.Duration,
	homeRoute string,
) *listingUsecase {
	return &listingUsecase{
		collection:    collectionGw,
		marketplace:   marketplaceGw,
		wallet:        w,
		redirectDelay: redirectDelay,
		homeRoute:     homeRoute,
		now:           time.Now,
	}
}

func (uc *listingUsecase) OpenPage(ctx context.Context, ui notify.Surface) (*Page, error) {
	page := &Page{uc: uc, ui: ui}
	if uc.collection == nil {
		return page, nil
	}
	page.asset = uc.collection.GetContractAddress()

	owner, ok := uc.wallet.Address()
	if !ok {
		return page, nil
	}

	nfts, err := uc.collection.GetOwnedNFTs(ctx, owner)
	if err != nil {
		// 読み込みに失敗した場合はカード無しで表示する
		zap.L().With(zap.Error(err)).Warn("Failed to load owned NFTs")
		return page, nil
	}
	page.nfts = nfts

	return page, nil
}

// Form は出品フォームの入力
type Form struct {
	ListingType model.ListingType `json:"listing_type"`
	Price       string            `json:"price"`
}

// PageView はページの表示内容
type PageView struct {
	Cards       []model.OwnedNFT `json:"cards"`
	Selected    string           `json:"selected,omitempty"`
	FormVisible bool             `json:"form_visible"`
}

// Page は Listing ページ1つ分の状態 (保有NFTと選択)
type Page struct {
	uc    *listingUsecase
	ui    notify.Surface
	asset string

	mu       sync.Mutex
	nfts     []model.OwnedNFT
	selected *model.OwnedNFT
}

// Select はNFTを1つ選択する。既に選択中のものは置き換える
func (p *Page) Select(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.nfts {
		if p.nfts[i].ID == id {
			nft := p.nfts[i]
			p.selected = &nft
			return nil
		}
	}
	return errors.Wrapf(ErrUnknownNFT, "id %s", id)
}

func (p *Page) View() PageView {
	p.mu.Lock()
	defer p.mu.Unlock()

	view := PageView{Cards: make([]model.OwnedNFT, len(p.nfts))}
	copy(view.Cards, p.nfts)
	if p.selected != nil {
		view.Selected = p.selected.ID
		view.FormVisible = true
	}
	return view
}

// Submit は選択中のNFTを出品する。出品トランザクションは Mutation として非同期に実行される
func (p *Page) Submit(ctx context.Context, form Form) (*Mutation, error) {
	uc := p.uc
	if uc.marketplace == nil {
		return nil, ErrContractUnavailable
	}

	if required := uc.wallet.RequiredChainID(); uc.wallet.ChainID() != required {
		if err := uc.wallet.SwitchChain(ctx, required); err != nil {
			zap.L().With(zap.Error(err)).Warn("Network switch failed")
		}
		return nil, ErrNetworkMismatch
	}

	p.mu.Lock()
	selected := p.selected
	p.mu.Unlock()
	if selected == nil {
		return nil, ErrNoSelection
	}

	if !form.ListingType.Valid() {
		p.ui.Alert("Please select a listing type")
		return nil, errors.Wrapf(ErrInvalidListingType, "%q", form.ListingType)
	}

	p.ui.Loading(msgListing)
	draft := BuildListingDraft(p.asset, *selected, form.ListingType, form.Price, uc.now())

	m := newMutation()
	go m.run(context.WithoutCancel(ctx), func(ctx context.Context) (*model.ListingReceipt, error) {
		if draft.Type == model.ListingAuction {
			return uc.marketplace.CreateAuctionListing(ctx, draft)
		}
		return uc.marketplace.CreateDirectListing(ctx, draft)
	}, func(receipt *model.ListingReceipt, err error) {
		p.settle(draft, receipt, err)
	})

	return m, nil
}

func (p *Page) settle(draft model.ListingDraft, receipt *model.ListingReceipt, err error) {
	msg := messages[draft.Type]
	p.ui.Dismiss()

	if err != nil {
		zap.S().With(zap.Error(err)).Errorf("Failed to create %s for token %s", draft.Type, draft.TokenID)
		p.ui.Error(msg.failure)
		return
	}

	p.ui.Success(msg.success)
	route := p.uc.homeRoute
	time.AfterFunc(p.uc.redirectDelay, func() {
		p.ui.Navigate(route)
	})
}

// BuildListingDraft はフォームの入力から出品パラメータを作る
func BuildListingDraft(asset string, nft model.OwnedNFT, listingType model.ListingType, price string, now time.Time) model.ListingDraft {
	draft := model.ListingDraft{
		AssetContractAddress:     asset,
		TokenID:                  nft.ID,
		CurrencyContractAddress:  marketplace.NativeTokenAddress,
		ListingDurationInSeconds: ListingDuration,
		Quantity:                 1,
		BuyoutPricePerToken:      price,
		StartTimestamp:           now,
		Type:                     listingType,
	}
	if listingType == model.ListingAuction {
		reserve := "0"
		draft.ReservePricePerToken = &reserve
	}
	return draft
}
