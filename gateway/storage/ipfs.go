package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	ipfsnode "github.com/ipfs/go-ipfs-api"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Uploader はファイルを分散ストレージに保存し、URIを返す
type Uploader interface {
	Upload(ctx context.Context, data io.Reader) (string, error)
	UploadJSON(ctx context.Context, v interface{}) (string, error)
}

// IpfsUploader は IPFS HTTP API へのアップロード実装
type IpfsUploader struct {
	shell *ipfsnode.Shell
}

func NewIpfsUploader(apiURL string) *IpfsUploader {
	return &IpfsUploader{shell: ipfsnode.NewShell(apiURL)}
}

// Upload はデータを pin 付きで追加し、ipfs:// URI を返す
func (u *IpfsUploader) Upload(ctx context.Context, data io.Reader) (string, error) {
	type result struct {
		cid string
		err error
	}
	done := make(chan result, 1)

	go func() {
		cid, err := u.shell.Add(data, ipfsnode.Pin(true))
		done <- result{cid, err}
	}()

	select {
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), "ipfs upload cancelled")
	case res := <-done:
		if res.err != nil {
			return "", errors.Wrap(res.err, "ipfs upload failed")
		}
		zap.S().Debugf("Uploaded to IPFS: %s", res.cid)
		return "ipfs://" + res.cid, nil
	}
}

// UploadJSON は v をJSONとしてアップロードする
func (u *IpfsUploader) UploadJSON(ctx context.Context, v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode metadata")
	}

	return u.Upload(ctx, bytes.NewReader(data))
}
