package explorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLink(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		cluster string
		rpcURL  string
		want    string
	}{
		{name: "devnet tx", kind: Tx, cluster: "devnet", want: "https://explorer.solana.com/tx/abc?cluster=devnet"},
		{name: "mainnet address", kind: Address, cluster: "mainnet-beta", want: "https://explorer.solana.com/address/abc"},
		{name: "empty cluster", kind: Address, cluster: "", want: "https://explorer.solana.com/address/abc"},
		{name: "localnet rpc", kind: Tx, cluster: "localnet", rpcURL: "http://127.0.0.1:18899", want: "https://explorer.solana.com/tx/abc?cluster=custom&customUrl=http%3A%2F%2F127.0.0.1%3A18899"},
		{name: "localnet default", kind: Tx, cluster: "localnet", want: "https://explorer.solana.com/tx/abc?cluster=custom&customUrl=http%3A%2F%2Flocalhost%3A8899"},
		{name: "custom rpc", kind: Tx, cluster: "custom", rpcURL: "https://rpc.example.com", want: "https://explorer.solana.com/tx/abc?cluster=custom&customUrl=https%3A%2F%2Frpc.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Link(tt.kind, "abc", tt.cluster, tt.rpcURL))
		})
	}
}
