package main

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"nft-marketplace-onchain/config"
	"nft-marketplace-onchain/gateway/collection"
	"nft-marketplace-onchain/gateway/marketplace"
	"nft-marketplace-onchain/gateway/storage"
	"nft-marketplace-onchain/gateway/wallet"
	"nft-marketplace-onchain/notify"
	contractUsecase "nft-marketplace-onchain/usecase/contract"
	listingUsecase "nft-marketplace-onchain/usecase/listing"
	mintUsecase "nft-marketplace-onchain/usecase/mint"
)

// application は起動時に組み立てる依存関係
type application struct {
	cfg *config.Config
	hub *notify.Hub

	wallet      *wallet.EthWallet
	collection  collection.CollectionGateway
	marketplace marketplace.MarketplaceGateway

	mintUC     mintUsecase.MintUsecase
	listingUC  listingUsecase.ListingUsecase
	contractUC contractUsecase.ContractUsecase
}

func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	// --- 1. RPC接続 ---
	urls := make(map[uint64]string, len(cfg.Chain.Networks)+1)
	for id, url := range cfg.Chain.Networks {
		urls[id] = url
	}
	if cfg.Chain.NodeURL != "" {
		urls[0] = cfg.Chain.NodeURL
	}
	if len(urls) == 0 {
		return nil, errors.New("NODE_URL or NETWORKS must be set")
	}

	backends, err := wallet.DialNetworks(ctx, urls)
	if err != nil {
		return nil, err
	}

	// --- 2. ウォレット ---
	w, err := wallet.NewEthWallet(cfg.Wallet.PrivateKey, backends, cfg.Chain.ActiveChainID, cfg.Chain.RequiredChainID, cfg.Chain.TxTimeout)
	if err != nil {
		return nil, err
	}

	app := &application{
		cfg:    cfg,
		hub:    notify.NewHub(cfg.AllowedOrigins),
		wallet: w,
	}

	// --- 3. コントラクト (アドレス未設定なら無効) ---
	if cfg.Contracts.Collection != "" {
		uploader := storage.NewIpfsUploader(cfg.Ipfs.ApiURL)
		fetcher := storage.NewMetadataFetcher(cfg.Ipfs.Hosts, cfg.Ipfs.MetadataRetries, cfg.Ipfs.MetadataTimeout)

		gw, err := collection.NewNFTCollectionGateway(w, cfg.Contracts.Collection, uploader, fetcher)
		if err != nil {
			zap.L().With(zap.Error(err)).Warn("Failed to initialize collection gateway")
		} else {
			app.collection = gw
		}
	} else {
		zap.L().Warn("COLLECTION_CONTRACT_ADDRESS not set. Mint and listing pages will be disabled.")
	}

	if cfg.Contracts.Marketplace != "" {
		gw, err := marketplace.NewThirdwebMarketplaceGateway(w, cfg.Contracts.Marketplace)
		if err != nil {
			zap.L().With(zap.Error(err)).Warn("Failed to initialize marketplace gateway")
		} else {
			app.marketplace = gw
		}
	} else {
		zap.L().Warn("MARKETPLACE_CONTRACT_ADDRESS not set. Listing will be disabled.")
	}

	// --- 4. ユースケース ---
	// 未設定のゲートウェイは nil のまま渡す
	app.mintUC = mintUsecase.NewMintUsecase(app.collection, w, cfg.RedirectDelay, cfg.HomeRoute)
	app.listingUC = listingUsecase.NewListingUsecase(app.collection, app.marketplace, w, cfg.RedirectDelay, cfg.HomeRoute)
	app.contractUC = contractUsecase.NewContractUsecase(w, app.collection, app.marketplace)

	return app, nil
}
