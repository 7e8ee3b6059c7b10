// internal/explorer/explorer.go
package explorer

import (
	"fmt"
	"net/url"
)

// Kind тип объекта в Solana Explorer.
type Kind string

const (
	Address Kind = "address"
	Tx      Kind = "tx"

	baseURL = "https://explorer.solana.com"

	// DefaultLocalRPC адрес solana-test-validator.
	DefaultLocalRPC = "http://localhost:8899"
)

// Link строит ссылку на explorer. Для mainnet-beta параметр cluster не добавляется,
// localnet, "custom" и неизвестные значения ведут на rpcURL через cluster=custom.
func Link(kind Kind, value, cluster, rpcURL string) string {
	link := fmt.Sprintf("%s/%s/%s", baseURL, kind, value)

	q := url.Values{}
	switch cluster {
	case "", "mainnet-beta":
		return link
	case "devnet", "testnet":
		q.Set("cluster", cluster)
	case "localnet":
		if rpcURL == "" {
			rpcURL = DefaultLocalRPC
		}
		q.Set("cluster", "custom")
		q.Set("customUrl", rpcURL)
	default:
		q.Set("cluster", "custom")
		q.Set("customUrl", rpcURL)
	}
	return link + "?" + q.Encode()
}
