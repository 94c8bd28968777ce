package collection

import (
	"bytes"
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"nft-marketplace-onchain/gateway/storage"
	"nft-marketplace-onchain/gateway/wallet"
	"nft-marketplace-onchain/model"
)

// ERC-721 Enumerable の interfaceId
var erc721EnumerableID = [4]byte{0x78, 0x0e, 0x9d, 0x63}

var (
	ErrTokenIDNotFound = errors.New("minted token id not found in receipt")
	ErrTokenNotFound   = errors.New("token does not exist")
)

// CollectionGateway は NFT Collection コントラクトとの連携を担当
type CollectionGateway interface {
	// MintTo はメタデータをアップロードして to にNFTをミントする
	MintTo(ctx context.Context, to common.Address, draft model.DraftMetadata) (*model.MintResult, error)

	// GetOwnedNFTs は owner が保有するNFTを取得
	GetOwnedNFTs(ctx context.Context, owner common.Address) ([]model.OwnedNFT, error)

	// GetNFT はトークンIDからNFTを取得
	GetNFT(ctx context.Context, tokenID *big.Int) (*model.OwnedNFT, error)

	// GetContractAddress はコントラクトアドレスを返す
	GetContractAddress() string
}

// NFTCollectionGateway は ERC-721 コレクションの実装
type NFTCollectionGateway struct {
	wallet          wallet.Provider
	contractAddress common.Address
	contractABI     abi.ABI
	uploader        storage.Uploader
	metadata        storage.MetadataFetcher
}

// NewNFTCollectionGateway は新しいコレクションゲートウェイを作成
func NewNFTCollectionGateway(w wallet.Provider, contractAddr string, uploader storage.Uploader, metadata storage.MetadataFetcher) (*NFTCollectionGateway, error) {
	parsedABI, err := abi.JSON(strings.NewReader(NFTCollectionABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse collection ABI")
	}
	if !common.IsHexAddress(contractAddr) {
		return nil, errors.Errorf("invalid collection contract address %q", contractAddr)
	}

	contractAddress := common.HexToAddress(contractAddr)
	if contractAddress == (common.Address{}) {
		zap.L().Warn("Collection contract address appears to be zero address")
	}
	zap.S().Infof("Collection Contract: %s", contractAddress.Hex())

	return &NFTCollectionGateway{
		wallet:          w,
		contractAddress: contractAddress,
		contractABI:     parsedABI,
		uploader:        uploader,
		metadata:        metadata,
	}, nil
}

func (g *NFTCollectionGateway) GetContractAddress() string {
	return g.contractAddress.Hex()
}

// MintTo は画像とメタデータをアップロードし、mintTo を呼び出す
func (g *NFTCollectionGateway) MintTo(ctx context.Context, to common.Address, draft model.DraftMetadata) (*model.MintResult, error) {
	imageURI := draft.ImageURL
	if draft.Image != nil {
		uri, err := g.uploader.Upload(ctx, bytes.NewReader(draft.Image.Data))
		if err != nil {
			return nil, errors.Wrap(err, "failed to upload image")
		}
		imageURI = uri
	}
	if imageURI == "" {
		return nil, errors.New("metadata has no image")
	}

	metadata := storage.TokenMetadata{
		Name:        draft.Name,
		Description: draft.Description,
		Image:       imageURI,
	}
	tokenURI, err := g.uploader.UploadJSON(ctx, metadata)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upload metadata")
	}

	data, err := g.contractABI.Pack("mintTo", to, tokenURI)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode mintTo")
	}

	receipt, err := g.wallet.Transact(ctx, g.contractAddress, data)
	if err != nil {
		return nil, errors.Wrap(err, "mintTo transaction failed")
	}

	tokenID, err := g.tokenIDFromReceipt(receipt)
	if err != nil {
		return nil, err
	}

	result := &model.MintResult{
		TxHash:    receipt.TxHash.Hex(),
		BlockNo:   receipt.BlockNumber.Uint64(),
		GasUsed:   receipt.GasUsed,
		TokenID:   tokenID,
		Recipient: to.Hex(),
		TokenURI:  tokenURI,
	}

	// data(): ミントされたNFTを読み直す。失敗してもミント自体は成功扱い
	nft, err := g.GetNFT(ctx, tokenID)
	if err != nil {
		zap.S().Warnf("Minted token %s but could not load it: %v", tokenID, err)
		nft = &model.OwnedNFT{
			ID:          tokenID.String(),
			Name:        metadata.Name,
			Description: metadata.Description,
			Image:       metadata.Image,
			URI:         tokenURI,
		}
	}
	result.NFT = nft

	zap.S().Infof("Minted token %s to %s (tx: %s)", tokenID, to.Hex(), result.TxHash)
	return result, nil
}

// tokenIDFromReceipt は TokensMinted (なければ Transfer) イベントからトークンIDを取り出す
func (g *NFTCollectionGateway) tokenIDFromReceipt(receipt *types.Receipt) (*big.Int, error) {
	mintedSig := g.contractABI.Events["TokensMinted"].ID
	transferSig := g.contractABI.Events["Transfer"].ID

	var fromTransfer *big.Int
	for _, vLog := range receipt.Logs {
		if vLog.Address != g.contractAddress || len(vLog.Topics) == 0 {
			continue
		}
		switch vLog.Topics[0] {
		case mintedSig:
			// indexed: mintedTo, tokenIdMinted
			if len(vLog.Topics) >= 3 {
				return new(big.Int).SetBytes(vLog.Topics[2].Bytes()), nil
			}
		case transferSig:
			// indexed: from, to, tokenId (from がゼロアドレスならミント)
			if len(vLog.Topics) >= 4 && vLog.Topics[1] == (common.Hash{}) && fromTransfer == nil {
				fromTransfer = new(big.Int).SetBytes(vLog.Topics[3].Bytes())
			}
		}
	}

	if fromTransfer != nil {
		return fromTransfer, nil
	}
	return nil, errors.Wrapf(ErrTokenIDNotFound, "tx %s", receipt.TxHash.Hex())
}

// GetOwnedNFTs は owner の保有NFTを取得する
func (g *NFTCollectionGateway) GetOwnedNFTs(ctx context.Context, owner common.Address) ([]model.OwnedNFT, error) {
	var tokenIDs []*big.Int
	var err error

	if g.isEnumerable(ctx) {
		tokenIDs, err = g.ownedByIndex(ctx, owner)
	} else {
		tokenIDs, err = g.ownedByScan(ctx, owner)
	}
	if err != nil {
		return nil, err
	}

	nfts := make([]model.OwnedNFT, 0, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		nft, err := g.GetNFT(ctx, tokenID)
		if err != nil {
			return nil, err
		}
		nfts = append(nfts, *nft)
	}

	zap.S().Debugf("Found %d NFTs owned by %s", len(nfts), owner.Hex())
	return nfts, nil
}

// GetNFT は tokenURI を読み、メタデータを解決する
func (g *NFTCollectionGateway) GetNFT(ctx context.Context, tokenID *big.Int) (*model.OwnedNFT, error) {
	out, err := g.call(ctx, "tokenURI", tokenID)
	if err != nil {
		// 存在しないトークンは tokenURI が revert する
		if isReverted(err) {
			return nil, errors.Wrapf(ErrTokenNotFound, "token %s: %v", tokenID, err)
		}
		return nil, errors.Wrapf(err, "tokenURI(%s)", tokenID)
	}
	uri := out[0].(string)

	nft := &model.OwnedNFT{ID: tokenID.String(), URI: uri}

	md, err := g.metadata.Fetch(ctx, uri)
	if err != nil {
		// メタデータが取れなくてもカードは表示する
		zap.S().Warnf("Metadata for token %s unavailable: %v", tokenID, err)
		return nft, nil
	}
	nft.Name = md.Name
	nft.Description = md.Description
	nft.Image = md.Image

	return nft, nil
}

func (g *NFTCollectionGateway) isEnumerable(ctx context.Context) bool {
	out, err := g.call(ctx, "supportsInterface", erc721EnumerableID)
	if err != nil {
		zap.S().Debugf("supportsInterface failed, assuming non-enumerable: %v", err)
		return false
	}
	return out[0].(bool)
}

func (g *NFTCollectionGateway) ownedByIndex(ctx context.Context, owner common.Address) ([]*big.Int, error) {
	out, err := g.call(ctx, "balanceOf", owner)
	if err != nil {
		return nil, errors.Wrap(err, "balanceOf")
	}
	balance := out[0].(*big.Int).Uint64()

	tokenIDs := make([]*big.Int, 0, balance)
	for i := uint64(0); i < balance; i++ {
		out, err := g.call(ctx, "tokenOfOwnerByIndex", owner, new(big.Int).SetUint64(i))
		if err != nil {
			return nil, errors.Wrapf(err, "tokenOfOwnerByIndex(%d)", i)
		}
		tokenIDs = append(tokenIDs, out[0].(*big.Int))
	}

	return tokenIDs, nil
}

// ownedByScan は Enumerable でないコレクション向けに全トークンの所有者を確認する
func (g *NFTCollectionGateway) ownedByScan(ctx context.Context, owner common.Address) ([]*big.Int, error) {
	out, err := g.call(ctx, "nextTokenIdToMint")
	if err != nil {
		return nil, errors.Wrap(err, "nextTokenIdToMint")
	}
	next := out[0].(*big.Int).Uint64()

	var tokenIDs []*big.Int
	for id := uint64(0); id < next; id++ {
		tokenID := new(big.Int).SetUint64(id)
		out, err := g.call(ctx, "ownerOf", tokenID)
		if err != nil {
			// burn 済みのトークンは ownerOf が revert する
			continue
		}
		if out[0].(common.Address) == owner {
			tokenIDs = append(tokenIDs, tokenID)
		}
	}

	return tokenIDs, nil
}

func isReverted(err error) bool {
	return errors.Is(err, vm.ErrExecutionReverted) || strings.Contains(err.Error(), "execution reverted")
}

func (g *NFTCollectionGateway) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := g.contractABI.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	msg := ethereum.CallMsg{
		To:   &g.contractAddress,
		Data: data,
	}

	backend := g.wallet.Backend()
	if backend == nil {
		return nil, wallet.ErrUnsupportedChain
	}
	result, err := backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, err
	}

	return g.contractABI.Unpack(method, result)
}
