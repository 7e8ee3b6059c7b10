package naming

import (
	"context"
	"crypto/sha256"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rovshanmuradov/solana-devkit/internal/blockchain"
	"github.com/rovshanmuradov/solana-devkit/internal/blockchain/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func registryData(owner solana.PublicKey) []byte {
	data := make([]byte, registryHeaderLen+16)
	copy(data[0:32], SOLTLDAuthority.Bytes())
	copy(data[32:64], owner.Bytes())
	return data
}

func TestHashName(t *testing.T) {
	expected := sha256.Sum256([]byte("SPL Name Servicebonfida"))
	assert.Equal(t, expected[:], HashName("bonfida"))
}

func TestDomainKeyStripsSuffix(t *testing.T) {
	withSuffix, err := DomainKey("toly.sol")
	require.NoError(t, err)
	bare, err := DomainKey("toly")
	require.NoError(t, err)
	assert.Equal(t, bare, withSuffix)

	other, err := DomainKey("bonfida.sol")
	require.NoError(t, err)
	assert.NotEqual(t, withSuffix, other)
}

func TestResolveDomain(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	key, err := DomainKey("toly.sol")
	require.NoError(t, err)

	client := new(mocks.Client)
	client.On("GetAccountInfo", mock.Anything, key).Return(&rpc.GetAccountInfoResult{
		Value: &rpc.Account{
			Owner: NameServiceProgramID,
			Data:  rpc.DataBytesOrJSONFromBytes(registryData(owner)),
		},
	}, nil)

	r := NewResolver(client, zap.NewNop())
	got, err := r.Resolve(context.Background(), " toly.sol ")
	require.NoError(t, err)
	assert.Equal(t, owner, got)
}

func TestResolveErrors(t *testing.T) {
	client := new(mocks.Client)
	r := NewResolver(client, zap.NewNop())

	_, err := r.Resolve(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, "provide a .sol domain or a public key", err.Error())

	_, err = r.Resolve(context.Background(), "not-a-key")
	assert.ErrorContains(t, err, "failed to resolve the input not-a-key")

	missing, err := DomainKey("missing.sol")
	require.NoError(t, err)
	client.On("GetAccountInfo", mock.Anything, missing).Return(nil, blockchain.ErrAccountNotFound)
	_, err = r.Resolve(context.Background(), "missing.sol")
	assert.ErrorIs(t, err, blockchain.ErrAccountNotFound)

	short, err := DomainKey("short.sol")
	require.NoError(t, err)
	client.On("GetAccountInfo", mock.Anything, short).Return(&rpc.GetAccountInfoResult{
		Value: &rpc.Account{Data: rpc.DataBytesOrJSONFromBytes(make([]byte, 10))},
	}, nil)
	_, err = r.Resolve(context.Background(), "short.sol")
	assert.ErrorIs(t, err, ErrRegistryTooShort)
}

func TestResolvePublicKeyPassThrough(t *testing.T) {
	pk := solana.NewWallet().PublicKey()
	r := NewResolver(new(mocks.Client), zap.NewNop())

	got, err := r.Resolve(context.Background(), pk.String())
	require.NoError(t, err)
	assert.Equal(t, pk, got)
}
