package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const testCid = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

func TestIsIpfs(t *testing.T) {
	tests := []struct {
		uri  string
		want bool
	}{
		{"ipfs://" + testCid + "/0", true},
		{"https://gateway.pinata.cloud/ipfs/" + testCid, true},
		{"https://example.com/metadata/1.json", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsIpfs(tt.uri); got != tt.want {
			t.Errorf("IsIpfs(%q) = %v, want %v", tt.uri, got, tt.want)
		}
	}
}

func TestGatewayURLs(t *testing.T) {
	hosts := []string{"https://ipfs.io/", "https://cloudflare-ipfs.com"}

	urls := GatewayURLs("ipfs://"+testCid+"/0", hosts)
	expected := []string{
		"https://ipfs.io/ipfs/" + testCid + "/0",
		"https://cloudflare-ipfs.com/ipfs/" + testCid + "/0",
	}
	if len(urls) != len(expected) {
		t.Fatalf("Expected %d urls, got %v", len(expected), urls)
	}
	for i := range expected {
		if urls[i] != expected[i] {
			t.Errorf("urls[%d] = %s, want %s", i, urls[i], expected[i])
		}
	}

	plain := GatewayURLs("https://example.com/1.json", hosts)
	if len(plain) != 1 || plain[0] != "https://example.com/1.json" {
		t.Errorf("Expected plain URL to be used as is, got %v", plain)
	}

	if got := GatewayURLs("not a uri", hosts); got != nil {
		t.Errorf("Expected nil for unsupported uri, got %v", got)
	}
}

func TestMetadataFetcher_FallsBackAndCaches(t *testing.T) {
	var hits int32
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer broken.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/ipfs/"+testCid+"/0" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"name":"Sword","description":"Sharp","image":"ipfs://img"}`)
	}))
	defer healthy.Close()

	f := NewMetadataFetcher([]string{broken.URL, healthy.URL}, 0, time.Second)

	for i := 0; i < 2; i++ {
		md, err := f.Fetch(context.Background(), "ipfs://"+testCid+"/0")
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if md.Name != "Sword" || md.Description != "Sharp" || md.Image != "ipfs://img" {
			t.Errorf("Unexpected metadata %+v", md)
		}
	}

	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("Expected second fetch to be served from cache, got %d hits", hits)
	}
}
