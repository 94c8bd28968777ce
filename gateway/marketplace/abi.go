package marketplace

// MarketplaceABI は Marketplace コントラクトの出品に使う関数とイベント
const MarketplaceABI = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "listingId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "assetContract", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "lister", "type": "address"},
      {
        "components": [
          {"internalType": "uint256", "name": "listingId", "type": "uint256"},
          {"internalType": "address", "name": "tokenOwner", "type": "address"},
          {"internalType": "address", "name": "assetContract", "type": "address"},
          {"internalType": "uint256", "name": "tokenId", "type": "uint256"},
          {"internalType": "uint256", "name": "startTime", "type": "uint256"},
          {"internalType": "uint256", "name": "endTime", "type": "uint256"},
          {"internalType": "uint256", "name": "quantity", "type": "uint256"},
          {"internalType": "address", "name": "currency", "type": "address"},
          {"internalType": "uint256", "name": "reservePricePerToken", "type": "uint256"},
          {"internalType": "uint256", "name": "buyoutPricePerToken", "type": "uint256"},
          {"internalType": "uint8", "name": "tokenType", "type": "uint8"},
          {"internalType": "uint8", "name": "listingType", "type": "uint8"}
        ],
        "indexed": false,
        "internalType": "struct IMarketplace.Listing",
        "name": "listing",
        "type": "tuple"
      }
    ],
    "name": "ListingAdded",
    "type": "event"
  },
  {
    "inputs": [
      {
        "components": [
          {"internalType": "address", "name": "assetContract", "type": "address"},
          {"internalType": "uint256", "name": "tokenId", "type": "uint256"},
          {"internalType": "uint256", "name": "startTime", "type": "uint256"},
          {"internalType": "uint256", "name": "secondsUntilEndTime", "type": "uint256"},
          {"internalType": "uint256", "name": "quantityToList", "type": "uint256"},
          {"internalType": "address", "name": "currencyToAccept", "type": "address"},
          {"internalType": "uint256", "name": "reservePricePerToken", "type": "uint256"},
          {"internalType": "uint256", "name": "buyoutPricePerToken", "type": "uint256"},
          {"internalType": "uint8", "name": "listingType", "type": "uint8"}
        ],
        "internalType": "struct IMarketplace.ListingParameters",
        "name": "_params",
        "type": "tuple"
      }
    ],
    "name": "createListing",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

// ERC721ApprovalABI は出品前のオペレーター承認に使う
const ERC721ApprovalABI = `[
  {
    "inputs": [
      {"internalType": "address", "name": "owner", "type": "address"},
      {"internalType": "address", "name": "operator", "type": "address"}
    ],
    "name": "isApprovedForAll",
    "outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "operator", "type": "address"},
      {"internalType": "bool", "name": "approved", "type": "bool"}
    ],
    "name": "setApprovalForAll",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`
