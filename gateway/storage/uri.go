package storage

import (
	"net/url"
	"regexp"
	"strings"
)

var cidPattern = regexp.MustCompile("((Qm[1-9A-HJ-NP-Za-km-z]{44}|bafy[a-z2-7]{50,}).*$)")

func IsUrl(uri string) bool {
	u, err := url.Parse(uri)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// IsIpfs は ipfs:// もしくは CID を含むURIかどうか
func IsIpfs(uri string) bool {
	if strings.HasPrefix(uri, "ipfs://") {
		return true
	}

	return cidPattern.MatchString(uri)
}

// IpfsPath は URI から "<cid>/<path>" 部分を取り出す
func IpfsPath(uri string) (string, bool) {
	if strings.HasPrefix(uri, "ipfs://") {
		return strings.TrimPrefix(strings.TrimPrefix(uri, "ipfs://"), "ipfs/"), true
	}

	parts := cidPattern.FindStringSubmatch(uri)
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}

// GatewayURLs は取得に使うURLを優先順に返す
func GatewayURLs(uri string, hosts []string) []string {
	path, ok := IpfsPath(uri)
	if !ok {
		if IsUrl(uri) {
			return []string{uri}
		}
		return nil
	}

	urls := make([]string, 0, len(hosts))
	for _, host := range hosts {
		urls = append(urls, strings.TrimRight(host, "/")+"/ipfs/"+path)
	}
	return urls
}
