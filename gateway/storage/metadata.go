package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// TokenMetadata はトークンURIが指すJSON
type TokenMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// MetadataFetcher はトークンURIからメタデータを取得する
type MetadataFetcher interface {
	Fetch(ctx context.Context, uri string) (*TokenMetadata, error)
}

type metadataFetcher struct {
	client *retryablehttp.Client
	hosts  []string
	cache  *cache.Cache
}

// NewMetadataFetcher は IPFS ゲートウェイを順に試すフェッチャーを作成
func NewMetadataFetcher(hosts []string, retries int, timeout time.Duration) MetadataFetcher {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = retries
	client.HTTPClient.Timeout = timeout

	return &metadataFetcher{
		client: client,
		hosts:  hosts,
		cache:  cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (f *metadataFetcher) Fetch(ctx context.Context, uri string) (*TokenMetadata, error) {
	if md, found := f.cache.Get(uri); found {
		return md.(*TokenMetadata), nil
	}

	urls := GatewayURLs(uri, f.hosts)
	if len(urls) == 0 {
		return nil, errors.Errorf("unsupported metadata uri %q", uri)
	}

	var lastErr error
	for _, url := range urls {
		md, err := f.get(ctx, url)
		if err != nil {
			zap.S().Debugf("Metadata fetch from %s failed: %v", url, err)
			lastErr = err
			continue
		}
		f.cache.SetDefault(uri, md)
		return md, nil
	}

	return nil, errors.Wrapf(lastErr, "failed to fetch metadata %s", uri)
}

func (f *metadataFetcher) get(ctx context.Context, url string) (*TokenMetadata, error) {
	req, err := retryablehttp.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(resp.Status)
	}

	var md TokenMetadata
	if err := json.NewDecoder(resp.Body).Decode(&md); err != nil {
		return nil, errors.Wrap(err, "invalid metadata json")
	}

	return &md, nil
}
