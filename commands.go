package main

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"nft-marketplace-onchain/config"
	"nft-marketplace-onchain/gateway/wallet"
	"nft-marketplace-onchain/model"
	"nft-marketplace-onchain/notify"
	listingUsecase "nft-marketplace-onchain/usecase/listing"
)

func serve(cfg *config.Config) cli.ActionFunc {
	return func(c *cli.Context) error {
		app, err := newApplication(c.Context, cfg)
		if err != nil {
			return err
		}

		logEndpoints(cfg.Port)
		if err := http.ListenAndServe(":"+cfg.Port, app.router()); err != nil {
			return errors.Wrap(err, "could not start server")
		}
		return nil
	}
}

func mint(cfg *config.Config) cli.ActionFunc {
	return func(c *cli.Context) error {
		app, err := newApplication(c.Context, cfg)
		if err != nil {
			return err
		}

		path := c.String("image")
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", path)
		}

		result, err := app.mintUC.Mint(c.Context, notify.Console{}, model.DraftMetadata{
			Name:        c.String("name"),
			Description: c.String("description"),
			Image: &model.ImageFile{
				Filename:    filepath.Base(path),
				ContentType: http.DetectContentType(data),
				Data:        data,
			},
		})
		if err != nil {
			return err
		}

		zap.S().Infof("Token %v minted to %s (uri: %s, tx: %s)", result.TokenID, result.Recipient, result.TokenURI, result.TxHash)
		return nil
	}
}

func owned(cfg *config.Config) cli.ActionFunc {
	return func(c *cli.Context) error {
		app, err := newApplication(c.Context, cfg)
		if err != nil {
			return err
		}

		page, err := app.listingUC.OpenPage(c.Context, notify.Console{})
		if err != nil {
			return err
		}

		cards := page.View().Cards
		zap.S().Infof("%d NFTs owned", len(cards))
		for _, nft := range cards {
			zap.S().Infof("  #%s %s (%s)", nft.ID, nft.Name, nft.Image)
		}
		return nil
	}
}

func list(cfg *config.Config) cli.ActionFunc {
	return func(c *cli.Context) error {
		app, err := newApplication(c.Context, cfg)
		if err != nil {
			return err
		}

		page, err := app.listingUC.OpenPage(c.Context, notify.Console{})
		if err != nil {
			return err
		}
		if err := page.Select(c.String("token")); err != nil {
			return err
		}

		form := listingUsecase.Form{
			ListingType: model.ListingType(c.String("type")),
			Price:       c.String("price"),
		}

		m, err := page.Submit(c.Context, form)
		if errors.Is(err, listingUsecase.ErrNetworkMismatch) {
			// Submit がネットワークを切り替えるので1回だけ再送する
			zap.S().Infof("Switched to %s, resubmitting", wallet.NetworkName(app.wallet.ChainID()))
			m, err = page.Submit(c.Context, form)
		}
		if err != nil {
			return err
		}

		receipt, err := m.Wait(c.Context)
		if err != nil {
			return err
		}

		zap.S().Infof("Listing %v created (tx: %s)", receipt.ListingID, receipt.TxHash)
		return nil
	}
}

func network(cfg *config.Config) cli.ActionFunc {
	return func(c *cli.Context) error {
		app, err := newApplication(c.Context, cfg)
		if err != nil {
			return err
		}

		if chainID := c.Uint64("switch"); chainID != 0 {
			if err := app.wallet.SwitchChain(c.Context, chainID); err != nil {
				return err
			}
		}

		printNetwork(app.wallet)
		return nil
	}
}

func printNetwork(p wallet.Provider) {
	state := wallet.State(p)
	symbol := "?"
	if n, ok := wallet.LookupNetwork(state.ChainID); ok {
		symbol = n.NativeSymbol
	}

	if state.Connected {
		zap.S().Infof("Wallet:   %s", state.Address)
	} else {
		zap.L().Info("Wallet:   not connected")
	}
	zap.S().Infof("Active:   %s (%d, %s)", state.ChainName, state.ChainID, symbol)
	zap.S().Infof("Required: %s (%d)", wallet.NetworkName(state.RequiredChainID), state.RequiredChainID)
	if state.Mismatch {
		zap.L().Warn("Wallet is not on the required network")
	}
}
