package collection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"nft-marketplace-onchain/gateway/storage"
	"nft-marketplace-onchain/gateway/wallet/wallettest"
	"nft-marketplace-onchain/model"
)

var (
	collectionAddr = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	ownerAddr      = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	otherAddr      = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

type fakeUploader struct {
	uploads []string
	err     error
}

func (u *fakeUploader) Upload(ctx context.Context, data io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	b, _ := io.ReadAll(data)
	u.uploads = append(u.uploads, string(b))
	return fmt.Sprintf("ipfs://cid-%d", len(u.uploads)), nil
}

func (u *fakeUploader) UploadJSON(ctx context.Context, v interface{}) (string, error) {
	return u.Upload(ctx, bytes.NewReader([]byte(fmt.Sprintf("%+v", v))))
}

type fakeFetcher struct {
	metadata map[string]*storage.TokenMetadata
}

func (f *fakeFetcher) Fetch(ctx context.Context, uri string) (*storage.TokenMetadata, error) {
	if md, ok := f.metadata[uri]; ok {
		return md, nil
	}
	return nil, errors.New("not found")
}

// chain は読み取り呼び出しに応答する簡易コントラクト
type chain struct {
	abi        abi.ABI
	enumerable bool
	owners     map[uint64]common.Address
	missing    map[uint64]bool
}

func (c *chain) respond(msg ethereum.CallMsg) ([]byte, error) {
	method, err := c.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}

	switch method.Name {
	case "supportsInterface":
		return method.Outputs.Pack(c.enumerable)
	case "balanceOf":
		return method.Outputs.Pack(big.NewInt(int64(len(c.ownedBy(args[0].(common.Address))))))
	case "tokenOfOwnerByIndex":
		owned := c.ownedBy(args[0].(common.Address))
		return method.Outputs.Pack(new(big.Int).SetUint64(owned[args[1].(*big.Int).Uint64()]))
	case "nextTokenIdToMint":
		return method.Outputs.Pack(big.NewInt(int64(len(c.owners))))
	case "ownerOf":
		owner, ok := c.owners[args[0].(*big.Int).Uint64()]
		if !ok {
			return nil, errors.New("execution reverted")
		}
		return method.Outputs.Pack(owner)
	case "tokenURI":
		if c.missing[args[0].(*big.Int).Uint64()] {
			return nil, errors.New("execution reverted: ERC721Metadata: URI query for nonexistent token")
		}
		return method.Outputs.Pack(fmt.Sprintf("ipfs://meta/%d", args[0].(*big.Int).Uint64()))
	}
	return nil, fmt.Errorf("unexpected call %s", method.Name)
}

func (c *chain) ownedBy(owner common.Address) []uint64 {
	var ids []uint64
	for id := uint64(0); id < uint64(len(c.owners)); id++ {
		if c.owners[id] == owner {
			ids = append(ids, id)
		}
	}
	return ids
}

func newGateway(t *testing.T, c *chain, provider *wallettest.Provider, uploader *fakeUploader) *NFTCollectionGateway {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(NFTCollectionABI))
	if err != nil {
		t.Fatalf("abi.JSON: %v", err)
	}
	c.abi = parsed
	provider.Chain = &wallettest.Backend{ID: 80001, Call: c.respond}

	fetcher := &fakeFetcher{metadata: map[string]*storage.TokenMetadata{
		"ipfs://meta/0": {Name: "Zero", Description: "first", Image: "ipfs://img/0"},
		"ipfs://meta/2": {Name: "Two", Description: "third", Image: "ipfs://img/2"},
		"ipfs://meta/7": {Name: "Seven", Description: "minted", Image: "ipfs://img/7"},
	}}

	g, err := NewNFTCollectionGateway(provider, collectionAddr.Hex(), uploader, fetcher)
	if err != nil {
		t.Fatalf("NewNFTCollectionGateway: %v", err)
	}
	return g
}

func TestGetOwnedNFTs(t *testing.T) {
	for _, enumerable := range []bool{true, false} {
		t.Run(fmt.Sprintf("enumerable=%v", enumerable), func(t *testing.T) {
			c := &chain{
				enumerable: enumerable,
				owners:     map[uint64]common.Address{0: ownerAddr, 1: otherAddr, 2: ownerAddr},
			}
			g := newGateway(t, c, &wallettest.Provider{}, &fakeUploader{})

			nfts, err := g.GetOwnedNFTs(context.Background(), ownerAddr)
			if err != nil {
				t.Fatalf("GetOwnedNFTs: %v", err)
			}
			if len(nfts) != 2 {
				t.Fatalf("Expected 2 NFTs, got %d", len(nfts))
			}
			if nfts[0].ID != "0" || nfts[0].Name != "Zero" || nfts[0].Image != "ipfs://img/0" {
				t.Errorf("Unexpected first NFT %+v", nfts[0])
			}
			if nfts[1].ID != "2" || nfts[1].Name != "Two" {
				t.Errorf("Unexpected second NFT %+v", nfts[1])
			}
		})
	}
}

func TestGetOwnedNFTs_None(t *testing.T) {
	c := &chain{enumerable: true, owners: map[uint64]common.Address{0: otherAddr}}
	g := newGateway(t, c, &wallettest.Provider{}, &fakeUploader{})

	nfts, err := g.GetOwnedNFTs(context.Background(), ownerAddr)
	if err != nil {
		t.Fatalf("GetOwnedNFTs: %v", err)
	}
	if len(nfts) != 0 {
		t.Errorf("Expected no NFTs, got %d", len(nfts))
	}
}

func TestGetNFT_MissingMetadataStillReturnsCard(t *testing.T) {
	c := &chain{owners: map[uint64]common.Address{0: ownerAddr, 1: ownerAddr}}
	g := newGateway(t, c, &wallettest.Provider{}, &fakeUploader{})

	nft, err := g.GetNFT(context.Background(), big.NewInt(1))
	if err != nil {
		t.Fatalf("GetNFT: %v", err)
	}
	if nft.ID != "1" || nft.URI != "ipfs://meta/1" || nft.Name != "" {
		t.Errorf("Unexpected NFT %+v", nft)
	}
}

func TestGetNFT_NonexistentToken(t *testing.T) {
	c := &chain{owners: map[uint64]common.Address{0: ownerAddr}, missing: map[uint64]bool{99: true}}
	g := newGateway(t, c, &wallettest.Provider{}, &fakeUploader{})

	_, err := g.GetNFT(context.Background(), big.NewInt(99))
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Expected ErrTokenNotFound for a reverted tokenURI, got %v", err)
	}
}

func TestMintTo(t *testing.T) {
	c := &chain{owners: map[uint64]common.Address{}}
	provider := &wallettest.Provider{Connected: true, Addr: ownerAddr}
	uploader := &fakeUploader{}
	g := newGateway(t, c, provider, uploader)

	mintedSig := g.contractABI.Events["TokensMinted"].ID
	provider.OnTransact = func(to common.Address, data []byte) (*types.Receipt, error) {
		return &types.Receipt{
			Status:      types.ReceiptStatusSuccessful,
			TxHash:      common.HexToHash("0xabc"),
			BlockNumber: big.NewInt(42),
			Logs: []*types.Log{{
				Address: collectionAddr,
				Topics: []common.Hash{
					mintedSig,
					common.BytesToHash(ownerAddr.Bytes()),
					common.BigToHash(big.NewInt(7)),
				},
			}},
		}, nil
	}

	draft := model.DraftMetadata{
		Name:        "Seven",
		Description: "minted",
		Image:       &model.ImageFile{Filename: "seven.png", Data: []byte("png-bytes")},
	}
	result, err := g.MintTo(context.Background(), ownerAddr, draft)
	if err != nil {
		t.Fatalf("MintTo: %v", err)
	}

	if len(uploader.uploads) != 2 || uploader.uploads[0] != "png-bytes" {
		t.Errorf("Expected image then metadata uploads, got %v", uploader.uploads)
	}
	if !strings.Contains(uploader.uploads[1], "ipfs://cid-1") {
		t.Errorf("Expected metadata to reference the uploaded image, got %s", uploader.uploads[1])
	}

	calls := provider.Calls()
	if len(calls) != 1 || calls[0].To != collectionAddr {
		t.Fatalf("Expected one mintTo transaction to the collection, got %+v", calls)
	}
	args, err := g.contractABI.Methods["mintTo"].Inputs.Unpack(calls[0].Data[4:])
	if err != nil {
		t.Fatalf("Unpack mintTo: %v", err)
	}
	if args[0].(common.Address) != ownerAddr || args[1].(string) != "ipfs://cid-2" {
		t.Errorf("Unexpected mintTo args %v", args)
	}

	if result.TokenID.Int64() != 7 || result.BlockNo != 42 || result.TokenURI != "ipfs://cid-2" {
		t.Errorf("Unexpected result %+v", result)
	}
	if result.NFT == nil || result.NFT.Name != "Seven" {
		t.Errorf("Expected minted NFT data to be loaded, got %+v", result.NFT)
	}
}

func TestMintTo_UploadFailureSendsNoTransaction(t *testing.T) {
	provider := &wallettest.Provider{Connected: true, Addr: ownerAddr}
	g := newGateway(t, &chain{}, provider, &fakeUploader{err: errors.New("ipfs down")})

	_, err := g.MintTo(context.Background(), ownerAddr, model.DraftMetadata{
		Name:  "x",
		Image: &model.ImageFile{Data: []byte("x")},
	})
	if err == nil {
		t.Fatal("Expected upload error")
	}
	if len(provider.Calls()) != 0 {
		t.Error("Expected no transaction after a failed upload")
	}
}

func TestTokenIDFromReceipt_TransferFallback(t *testing.T) {
	g := newGateway(t, &chain{}, &wallettest.Provider{}, &fakeUploader{})
	transferSig := g.contractABI.Events["Transfer"].ID

	receipt := &types.Receipt{Logs: []*types.Log{
		{
			Address: common.HexToAddress("0x1"),
			Topics:  []common.Hash{transferSig, {}, common.BytesToHash(ownerAddr.Bytes()), common.BigToHash(big.NewInt(99))},
		},
		{
			Address: collectionAddr,
			Topics:  []common.Hash{transferSig, {}, common.BytesToHash(ownerAddr.Bytes()), common.BigToHash(big.NewInt(3))},
		},
	}}

	tokenID, err := g.tokenIDFromReceipt(receipt)
	if err != nil {
		t.Fatalf("tokenIDFromReceipt: %v", err)
	}
	if tokenID.Int64() != 3 {
		t.Errorf("Expected token 3 from the collection's Transfer, got %s", tokenID)
	}

	if _, err := g.tokenIDFromReceipt(&types.Receipt{}); !errors.Is(err, ErrTokenIDNotFound) {
		t.Errorf("Expected ErrTokenIDNotFound, got %v", err)
	}
}
