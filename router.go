package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	contractHandler "nft-marketplace-onchain/handler/contract"
	listingHandler "nft-marketplace-onchain/handler/listing"
	mintHandler "nft-marketplace-onchain/handler/mint"
	walletHandler "nft-marketplace-onchain/handler/wallet"
)

func (app *application) router() http.Handler {
	contractHdlr := contractHandler.NewContractHandler(app.contractUC)
	walletHdlr := walletHandler.NewWalletHandler(app.wallet)
	mintHdlr := mintHandler.NewMintHandler(app.mintUC, app.hub)
	listingHdlr := listingHandler.NewListingHandler(app.listingUC, app.hub, app.cfg.SessionTTL)

	router := mux.NewRouter()

	// ヘルスチェック用エンドポイント
	router.HandleFunc("/", healthCheck).Methods("GET")
	router.HandleFunc("/health", healthCheck).Methods("GET")

	// Contract API
	router.HandleFunc("/api/v1/contract/info", contractHdlr.HandleContractInfo).Methods("GET")
	router.HandleFunc("/api/v1/contract/verify-tx", contractHdlr.HandleVerifyTransaction).Methods("POST")

	// Wallet API
	router.HandleFunc("/api/v1/wallet", walletHdlr.HandleGetWallet).Methods("GET")
	router.HandleFunc("/api/v1/wallet/network", walletHdlr.HandleSwitchNetwork).Methods("POST")

	// Mint API
	router.HandleFunc("/api/v1/items", mintHdlr.HandleMint).Methods("POST")
	router.HandleFunc("/api/v1/items/{tokenId}", contractHdlr.HandleGetItem).Methods("GET")

	// Listing API
	router.HandleFunc("/api/v1/listing/pages", listingHdlr.HandleOpenPage).Methods("POST")
	router.HandleFunc("/api/v1/listing/pages/{pageId}", listingHdlr.HandleGetPage).Methods("GET")
	router.HandleFunc("/api/v1/listing/pages/{pageId}/select", listingHdlr.HandleSelect).Methods("POST")
	router.HandleFunc("/api/v1/listing/pages/{pageId}/listings", listingHdlr.HandleSubmit).Methods("POST")

	// トースト・画面遷移の通知
	router.HandleFunc("/ws", app.hub.ServeWS).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   app.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(router)
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func logEndpoints(port string) {
	zap.S().Infof("NFT marketplace service starting on :%s", port)
	zap.L().Info("Available endpoints:")
	for _, e := range []string{
		"GET  /health",
		"GET  /api/v1/contract/info",
		"POST /api/v1/contract/verify-tx",
		"GET  /api/v1/wallet",
		"POST /api/v1/wallet/network",
		"POST /api/v1/items",
		"GET  /api/v1/items/{tokenId}",
		"POST /api/v1/listing/pages",
		"GET  /api/v1/listing/pages/{pageId}",
		"POST /api/v1/listing/pages/{pageId}/select",
		"POST /api/v1/listing/pages/{pageId}/listings",
		"GET  /ws?session={pageId}",
	} {
		zap.S().Infof("  - %s", e)
	}
}
