package ping

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rovshanmuradov/solana-devkit/internal/blockchain/mocks"
	"github.com/rovshanmuradov/solana-devkit/internal/transaction"
	"github.com/rovshanmuradov/solana-devkit/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSender(client *mocks.Client) *transaction.Sender {
	return transaction.NewSender(client, zap.NewNop(), transaction.Config{
		InitialInterval: time.Millisecond,
		Cluster:         "devnet",
	}, nil)
}

func TestNewServiceDefaults(t *testing.T) {
	s, err := NewService(newSender(new(mocks.Client)), zap.NewNop(), "", "")
	require.NoError(t, err)

	ix := s.Instruction()
	assert.Equal(t, solana.MustPublicKeyFromBase58(DefaultProgramID), ix.ProgramID())

	accounts := ix.Accounts()
	require.Len(t, accounts, 1)
	assert.Equal(t, solana.MustPublicKeyFromBase58(DefaultDataAccount), accounts[0].PublicKey)
	assert.True(t, accounts[0].IsWritable)
	assert.False(t, accounts[0].IsSigner)

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestNewServiceInvalidKeys(t *testing.T) {
	_, err := NewService(newSender(new(mocks.Client)), zap.NewNop(), "not-a-key", "")
	assert.ErrorContains(t, err, "invalid ping program id")

	_, err = NewService(newSender(new(mocks.Client)), zap.NewNop(), "", "???")
	assert.ErrorContains(t, err, "invalid ping data account")
}

func TestPing(t *testing.T) {
	client := new(mocks.Client)
	payer, err := wallet.Generate()
	require.NoError(t, err)
	sig := solana.Signature{8}

	client.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{1}, nil)
	client.On("SendTransaction", mock.Anything, mock.MatchedBy(func(tx *solana.Transaction) bool {
		return len(tx.Message.Instructions) == 1 &&
			tx.Message.AccountKeys[0].Equals(payer.PublicKey)
	})).Return(sig, nil)
	client.On("WaitForTransactionConfirmation", mock.Anything, sig, rpc.CommitmentConfirmed).Return(nil)

	s, err := NewService(newSender(client), zap.NewNop(), "", "")
	require.NoError(t, err)

	got, err := s.Ping(context.Background(), payer)
	require.NoError(t, err)
	assert.Equal(t, sig, got)
	client.AssertExpectations(t)
}
