package nft

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	json "github.com/goccy/go-json"
	"github.com/rovshanmuradov/solana-devkit/internal/blockchain"
	"github.com/rovshanmuradov/solana-devkit/internal/blockchain/mocks"
	"github.com/rovshanmuradov/solana-devkit/internal/transaction"
	"github.com/rovshanmuradov/solana-devkit/internal/uploader"
	"github.com/rovshanmuradov/solana-devkit/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T, client *mocks.Client) *Service {
	t.Helper()
	up, err := uploader.NewFileUploader(t.TempDir())
	require.NoError(t, err)
	sender := transaction.NewSender(client, zap.NewNop(), transaction.Config{
		InitialInterval: time.Millisecond,
		Cluster:         "devnet",
	}, nil)
	return NewService(sender, up, zap.NewNop())
}

func newWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	w, err := wallet.Generate()
	require.NoError(t, err)
	return w
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "success.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o644))
	return path
}

func readURI(t *testing.T, uri string) []byte {
	t.Helper()
	u, err := url.Parse(uri)
	require.NoError(t, err)
	data, err := os.ReadFile(u.Path)
	require.NoError(t, err)
	return data
}

func metadataAccount(t *testing.T, m *Metadata) *rpc.GetAccountInfoResult {
	t.Helper()
	raw, err := encodeMetadata(m)
	require.NoError(t, err)
	return &rpc.GetAccountInfoResult{Value: &rpc.Account{
		Owner: TokenMetadataProgramID,
		Data:  rpc.DataBytesOrJSONFromBytes(raw),
	}}
}

func countMetadataInstructions(tx *solana.Transaction) int {
	n := 0
	for _, ix := range tx.Message.Instructions {
		if tx.Message.AccountKeys[ix.ProgramIDIndex].Equals(TokenMetadataProgramID) {
			n++
		}
	}
	return n
}

func TestNFTDataValidate(t *testing.T) {
	tests := []struct {
		name    string
		data    NFTData
		wantErr string
	}{
		{name: "ok", data: NFTData{Name: "A", Symbol: "B"}},
		{name: "empty name", data: NFTData{}, wantErr: "name is required"},
		{name: "long name", data: NFTData{Name: "0123456789012345678901234567890123"}, wantErr: "name exceeds"},
		{name: "long symbol", data: NFTData{Name: "A", Symbol: "SYMBOL-TOO-LONG"}, wantErr: "symbol exceeds"},
		{name: "fee", data: NFTData{Name: "A", SellerFeeBasisPoints: 10001}, wantErr: "seller fee"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestUploadMetadata(t *testing.T) {
	s := newService(t, new(mocks.Client))
	data := DefaultDemoConfig(writeImage(t)).Collection

	uri, err := s.UploadMetadata(context.Background(), data)
	require.NoError(t, err)

	var doc offChainMetadata
	require.NoError(t, json.Unmarshal(readURI(t, uri), &doc))
	assert.Equal(t, "TestCollectionNFT", doc.Name)
	assert.Equal(t, "TEST", doc.Symbol)
	require.Len(t, doc.Properties.Files, 1)
	assert.Equal(t, doc.Image, doc.Properties.Files[0].URI)
	assert.Equal(t, "image/png", doc.Properties.Files[0].Type)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, readURI(t, doc.Image))
}

func TestUploadMetadataMissingImage(t *testing.T) {
	s := newService(t, new(mocks.Client))
	_, err := s.UploadMetadata(context.Background(), NFTData{Name: "A", ImageFile: "/does/not/exist.png"})
	assert.ErrorContains(t, err, "read image")
}

func TestCreateCollection(t *testing.T) {
	client := new(mocks.Client)
	owner := newWallet(t)
	sig := solana.Signature{1}

	client.On("GetMinimumBalanceForRentExemption", mock.Anything, uint64(82)).Return(uint64(1_461_600), nil)
	client.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{1}, nil)
	client.On("SendTransaction", mock.Anything, mock.MatchedBy(func(tx *solana.Transaction) bool {
		return len(tx.Message.Instructions) == 6 &&
			countMetadataInstructions(tx) == 2 &&
			len(tx.Signatures) == 2
	})).Return(sig, nil)
	client.On("WaitForTransactionConfirmation", mock.Anything, sig, rpc.CommitmentConfirmed).Return(nil)

	res, err := newService(t, client).CreateCollection(context.Background(), owner, "https://storage.test/c.json", NFTData{Name: "Coll", Symbol: "C"})
	require.NoError(t, err)
	assert.Equal(t, sig, res.Signature)

	meta, err := MetadataAddress(res.Mint)
	require.NoError(t, err)
	assert.Equal(t, meta, res.Metadata)
	client.AssertExpectations(t)
}

func TestCreateNFTVerifiesCollection(t *testing.T) {
	client := new(mocks.Client)
	owner := newWallet(t)
	collection := solana.NewWallet().PublicKey()
	createSig, verifySig := solana.Signature{2}, solana.Signature{3}

	client.On("GetMinimumBalanceForRentExemption", mock.Anything, uint64(82)).Return(uint64(1_461_600), nil)
	client.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{1}, nil)
	client.On("SendTransaction", mock.Anything, mock.MatchedBy(func(tx *solana.Transaction) bool {
		return len(tx.Message.Instructions) == 6
	})).Return(createSig, nil).Once()
	client.On("SendTransaction", mock.Anything, mock.MatchedBy(func(tx *solana.Transaction) bool {
		if len(tx.Message.Instructions) != 1 {
			return false
		}
		ix := tx.Message.Instructions[0]
		return tx.Message.AccountKeys[ix.ProgramIDIndex].Equals(TokenMetadataProgramID) &&
			len(ix.Data) == 1 && ix.Data[0] == InstructionVerifySizedCollectionItem
	})).Return(verifySig, nil).Once()
	client.On("WaitForTransactionConfirmation", mock.Anything, mock.Anything, rpc.CommitmentConfirmed).Return(nil)

	res, err := newService(t, client).CreateNFT(context.Background(), owner, "https://storage.test/n.json", NFTData{Name: "N"}, collection)
	require.NoError(t, err)
	assert.Equal(t, createSig, res.Signature)
	client.AssertNumberOfCalls(t, "SendTransaction", 2)
}

func TestFindByMint(t *testing.T) {
	client := new(mocks.Client)
	want := sampleMetadata()
	address, err := MetadataAddress(want.Mint)
	require.NoError(t, err)
	client.On("GetAccountInfo", mock.Anything, address).Return(metadataAccount(t, want), nil)

	missing := solana.NewWallet().PublicKey()
	missingAddress, err := MetadataAddress(missing)
	require.NoError(t, err)
	client.On("GetAccountInfo", mock.Anything, missingAddress).Return(nil, blockchain.ErrAccountNotFound)

	s := newService(t, client)
	got, err := s.FindByMint(context.Background(), want.Mint)
	require.NoError(t, err)
	assert.Equal(t, want.URI, got.URI)

	_, err = s.FindByMint(context.Background(), missing)
	assert.ErrorIs(t, err, ErrMetadataNotFound)
}

func TestUpdateURI(t *testing.T) {
	owner := newWallet(t)
	current := sampleMetadata()
	current.UpdateAuthority = owner.PublicKey
	address, err := MetadataAddress(current.Mint)
	require.NoError(t, err)

	t.Run("replaces uri only", func(t *testing.T) {
		client := new(mocks.Client)
		sig := solana.Signature{4}
		client.On("GetAccountInfo", mock.Anything, address).Return(metadataAccount(t, current), nil)
		client.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{1}, nil)

		expected := current.Data()
		expected.URI = "https://storage.test/new.json"
		wantIx, err := NewUpdateMetadataAccountV2Instruction(UpdateMetadataAccountV2Args{Data: &expected}, address, owner.PublicKey)
		require.NoError(t, err)
		wantData, err := wantIx.Data()
		require.NoError(t, err)

		client.On("SendTransaction", mock.Anything, mock.MatchedBy(func(tx *solana.Transaction) bool {
			return len(tx.Message.Instructions) == 1 &&
				assert.ObjectsAreEqual([]byte(tx.Message.Instructions[0].Data), wantData)
		})).Return(sig, nil)
		client.On("WaitForTransactionConfirmation", mock.Anything, sig, rpc.CommitmentConfirmed).Return(nil)

		got, err := newService(t, client).UpdateURI(context.Background(), owner, current.Mint, expected.URI)
		require.NoError(t, err)
		assert.Equal(t, sig, got)
	})

	t.Run("wrong authority", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetAccountInfo", mock.Anything, address).Return(metadataAccount(t, current), nil)

		_, err := newService(t, client).UpdateURI(context.Background(), newWallet(t), current.Mint, "https://x")
		assert.ErrorContains(t, err, "not the update authority")
		client.AssertNotCalled(t, "SendTransaction", mock.Anything, mock.Anything)
	})

	t.Run("immutable", func(t *testing.T) {
		frozen := *current
		frozen.IsMutable = false
		client := new(mocks.Client)
		client.On("GetAccountInfo", mock.Anything, address).Return(metadataAccount(t, &frozen), nil)

		_, err := newService(t, client).UpdateURI(context.Background(), owner, current.Mint, "https://x")
		assert.ErrorIs(t, err, ErrImmutable)
	})
}
