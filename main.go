package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"nft-marketplace-onchain/config"
	"nft-marketplace-onchain/logger"
)

func main() {
	// --- 初期設定 ---
	envErr := config.Init()
	cfg := config.Get()
	logger.NewLogger(cfg.Debug, cfg.LogPath)
	defer zap.L().Sync()

	if envErr != nil {
		zap.L().With(zap.Error(envErr)).Warn("Continuing with environment variables only")
	}

	app := &cli.App{
		Name:  "nft-marketplace",
		Usage: "mint NFTs into a collection and list them on a marketplace",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP/WebSocket server",
				Action: serve(cfg),
			},
			{
				Name:   "mint",
				Usage:  "mint a new NFT to the connected wallet",
				Action: mint(cfg),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true, Usage: "NFT name"},
					&cli.StringFlag{Name: "description", Value: "", Usage: "NFT description"},
					&cli.StringFlag{Name: "image", Required: true, Usage: "path to the image file"},
				},
			},
			{
				Name:   "owned",
				Usage:  "list the NFTs owned by the connected wallet",
				Action: owned(cfg),
			},
			{
				Name:   "list",
				Usage:  "list an owned NFT on the marketplace",
				Action: list(cfg),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "token", Required: true, Usage: "token id to list"},
					&cli.StringFlag{Name: "type", Value: "directListing", Usage: "directListing or auctionListing"},
					&cli.StringFlag{Name: "price", Required: true, Usage: "buyout price in the native token"},
				},
			},
			{
				Name:   "network",
				Usage:  "show the wallet network, optionally switching to another chain",
				Action: network(cfg),
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "switch", Usage: "chain id to switch to"},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Command failed")
	}
}
