package marketplace

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"nft-marketplace-onchain/gateway/wallet"
	"nft-marketplace-onchain/model"
)

// NativeTokenAddress はネイティブトークンで支払うことを示すアドレス
const NativeTokenAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

// コントラクト上の listingType
const (
	listingTypeDirect  uint8 = 0
	listingTypeAuction uint8 = 1
)

// MarketplaceGateway は Marketplace コントラクトとの連携を担当
type MarketplaceGateway interface {
	// CreateDirectListing は固定価格で出品する
	CreateDirectListing(ctx context.Context, draft model.ListingDraft) (*model.ListingReceipt, error)

	// CreateAuctionListing はオークションとして出品する
	CreateAuctionListing(ctx context.Context, draft model.ListingDraft) (*model.ListingReceipt, error)

	// GetContractAddress はコントラクトアドレスを返す
	GetContractAddress() string
}

// listingParameters は createListing の引数 (IMarketplace.ListingParameters)
type listingParameters struct {
	AssetContract        common.Address
	TokenId              *big.Int
	StartTime            *big.Int
	SecondsUntilEndTime  *big.Int
	QuantityToList       *big.Int
	CurrencyToAccept     common.Address
	ReservePricePerToken *big.Int
	BuyoutPricePerToken  *big.Int
	ListingType          uint8
}

// ThirdwebMarketplaceGateway は Marketplace コントラクトの実装
type ThirdwebMarketplaceGateway struct {
	wallet          wallet.Provider
	contractAddress common.Address
	contractABI     abi.ABI
	approvalABI     abi.ABI
}

// NewThirdwebMarketplaceGateway は新しいマーケットプレイスゲートウェイを作成
func NewThirdwebMarketplaceGateway(w wallet.Provider, contractAddr string) (*ThirdwebMarketplaceGateway, error) {
	parsedABI, err := abi.JSON(strings.NewReader(MarketplaceABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse marketplace ABI")
	}
	approvalABI, err := abi.JSON(strings.NewReader(ERC721ApprovalABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse approval ABI")
	}
	if !common.IsHexAddress(contractAddr) {
		return nil, errors.Errorf("invalid marketplace contract address %q", contractAddr)
	}

	contractAddress := common.HexToAddress(contractAddr)
	if contractAddress == (common.Address{}) {
		zap.L().Warn("Marketplace contract address appears to be zero address")
	}
	zap.S().Infof("Marketplace Contract: %s", contractAddress.Hex())

	return &ThirdwebMarketplaceGateway{
		wallet:          w,
		contractAddress: contractAddress,
		contractABI:     parsedABI,
		approvalABI:     approvalABI,
	}, nil
}

func (g *ThirdwebMarketplaceGateway) GetContractAddress() string {
	return g.contractAddress.Hex()
}

func (g *ThirdwebMarketplaceGateway) CreateDirectListing(ctx context.Context, draft model.ListingDraft) (*model.ListingReceipt, error) {
	return g.createListing(ctx, draft, listingTypeDirect)
}

func (g *ThirdwebMarketplaceGateway) CreateAuctionListing(ctx context.Context, draft model.ListingDraft) (*model.ListingReceipt, error) {
	return g.createListing(ctx, draft, listingTypeAuction)
}

func (g *ThirdwebMarketplaceGateway) createListing(ctx context.Context, draft model.ListingDraft, listingType uint8) (*model.ListingReceipt, error) {
	params, err := g.encodeParams(draft, listingType)
	if err != nil {
		return nil, err
	}

	if err := g.ensureApproval(ctx, params.AssetContract); err != nil {
		return nil, err
	}

	data, err := g.contractABI.Pack("createListing", params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode createListing")
	}

	receipt, err := g.wallet.Transact(ctx, g.contractAddress, data)
	if err != nil {
		return nil, errors.Wrap(err, "createListing transaction failed")
	}

	result := &model.ListingReceipt{
		TxHash:    receipt.TxHash.Hex(),
		BlockNo:   receipt.BlockNumber.Uint64(),
		ListingID: g.listingIDFromReceipt(receipt),
		Type:      draft.Type,
	}

	zap.S().Infof("Created %s for token %s (listing %v, tx: %s)", draft.Type, draft.TokenID, result.ListingID, result.TxHash)
	return result, nil
}

// encodeParams は ListingDraft をコントラクトの引数に変換する
func (g *ThirdwebMarketplaceGateway) encodeParams(draft model.ListingDraft, listingType uint8) (*listingParameters, error) {
	if !common.IsHexAddress(draft.AssetContractAddress) {
		return nil, errors.Errorf("invalid asset contract %q", draft.AssetContractAddress)
	}
	tokenID, ok := new(big.Int).SetString(draft.TokenID, 10)
	if !ok {
		return nil, errors.Errorf("invalid token id %q", draft.TokenID)
	}

	currency := draft.CurrencyContractAddress
	if currency == "" {
		currency = NativeTokenAddress
	}

	buyout, err := ToWei(draft.BuyoutPricePerToken, NativeTokenDecimals)
	if err != nil {
		return nil, err
	}

	// 固定価格の出品はリザーブ価格を持たないので、コントラクトには buyout と同額を渡す
	reserve := buyout
	if draft.ReservePricePerToken != nil {
		reserve, err = ToWei(*draft.ReservePricePerToken, NativeTokenDecimals)
		if err != nil {
			return nil, err
		}
	}

	return &listingParameters{
		AssetContract:        common.HexToAddress(draft.AssetContractAddress),
		TokenId:              tokenID,
		StartTime:            big.NewInt(draft.StartTimestamp.Unix()),
		SecondsUntilEndTime:  new(big.Int).SetUint64(draft.ListingDurationInSeconds),
		QuantityToList:       new(big.Int).SetUint64(draft.Quantity),
		CurrencyToAccept:     common.HexToAddress(currency),
		ReservePricePerToken: reserve,
		BuyoutPricePerToken:  buyout,
		ListingType:          listingType,
	}, nil
}

// ensureApproval はマーケットプレイスがNFTを移転できるよう承認する
func (g *ThirdwebMarketplaceGateway) ensureApproval(ctx context.Context, assetContract common.Address) error {
	owner, ok := g.wallet.Address()
	if !ok {
		return wallet.ErrNotConnected
	}

	data, err := g.approvalABI.Pack("isApprovedForAll", owner, g.contractAddress)
	if err != nil {
		return err
	}
	backend := g.wallet.Backend()
	if backend == nil {
		return wallet.ErrUnsupportedChain
	}
	result, err := backend.CallContract(ctx, ethereum.CallMsg{To: &assetContract, Data: data}, nil)
	if err != nil {
		return errors.Wrap(err, "isApprovedForAll")
	}
	out, err := g.approvalABI.Unpack("isApprovedForAll", result)
	if err != nil {
		return errors.Wrap(err, "isApprovedForAll")
	}
	if out[0].(bool) {
		return nil
	}

	zap.S().Infof("Approving marketplace %s for %s", g.contractAddress.Hex(), assetContract.Hex())
	data, err = g.approvalABI.Pack("setApprovalForAll", g.contractAddress, true)
	if err != nil {
		return err
	}
	if _, err := g.wallet.Transact(ctx, assetContract, data); err != nil {
		return errors.Wrap(err, "setApprovalForAll transaction failed")
	}

	return nil
}

// listingIDFromReceipt は ListingAdded イベントから出品IDを取り出す
func (g *ThirdwebMarketplaceGateway) listingIDFromReceipt(receipt *types.Receipt) *big.Int {
	listingAddedSig := g.contractABI.Events["ListingAdded"].ID
	for _, vLog := range receipt.Logs {
		if vLog.Address != g.contractAddress || len(vLog.Topics) < 2 {
			continue
		}
		if vLog.Topics[0] == listingAddedSig {
			return new(big.Int).SetBytes(vLog.Topics[1].Bytes())
		}
	}

	zap.S().Warnf("ListingAdded event not found in tx %s", receipt.TxHash.Hex())
	return nil
}
