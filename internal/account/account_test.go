package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rovshanmuradov/solana-devkit/internal/blockchain"
	"github.com/rovshanmuradov/solana-devkit/internal/blockchain/mocks"
	"github.com/rovshanmuradov/solana-devkit/internal/events"
	"github.com/rovshanmuradov/solana-devkit/internal/transaction"
	"github.com/rovshanmuradov/solana-devkit/internal/wallet"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(client *mocks.Client) *Service {
	sender := transaction.NewSender(client, zap.NewNop(), transaction.Config{
		InitialInterval: time.Millisecond,
		Cluster:         "devnet",
	}, nil)
	return NewService(sender, zap.NewNop(), decimal.Zero)
}

func TestInfo(t *testing.T) {
	client := new(mocks.Client)
	existing := solana.NewWallet().PublicKey()
	missing := solana.NewWallet().PublicKey()

	client.On("GetAccountInfo", mock.Anything, existing).Return(&rpc.GetAccountInfoResult{
		Value: &rpc.Account{
			Lamports: 42,
			Owner:    solana.SystemProgramID,
			Data:     rpc.DataBytesOrJSONFromBytes([]byte{1, 2, 3}),
		},
	}, nil)
	client.On("GetAccountInfo", mock.Anything, missing).Return(nil, blockchain.ErrAccountNotFound)

	s := newService(client)

	info, err := s.Info(context.Background(), existing)
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, uint64(42), info.Lamports)
	assert.Equal(t, 3, info.DataLen)
	assert.Equal(t, "Account exists and is initialized", info.Status())

	info, err = s.Info(context.Background(), missing)
	require.NoError(t, err)
	assert.False(t, info.Exists)
	assert.Equal(t, "Account does not exist", info.Status())
}

func TestBalancesPreserveOrder(t *testing.T) {
	client := new(mocks.Client)
	keys := make([]solana.PublicKey, 5)
	for i := range keys {
		keys[i] = solana.NewWallet().PublicKey()
		client.On("GetBalance", mock.Anything, keys[i], rpc.CommitmentConfirmed).Return(uint64(i+1)*500_000_000, nil)
	}

	balances, err := newService(client).Balances(context.Background(), keys...)
	require.NoError(t, err)
	require.Len(t, balances, 5)
	for i, b := range balances {
		assert.Equal(t, keys[i], b.Address)
		assert.Equal(t, uint64(i+1)*500_000_000, b.Lamports)
	}
	assert.Equal(t, "2.5", balances[4].SOL.String())
}

func TestBalancesError(t *testing.T) {
	client := new(mocks.Client)
	ok, bad := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	client.On("GetBalance", mock.Anything, ok, rpc.CommitmentConfirmed).Return(uint64(1), nil).Maybe()
	client.On("GetBalance", mock.Anything, bad, rpc.CommitmentConfirmed).Return(uint64(0), errors.New("rpc down"))

	_, err := newService(client).Balances(context.Background(), ok, bad)
	assert.ErrorContains(t, err, "rpc down")
}

func TestAirdropValidation(t *testing.T) {
	s := newService(new(mocks.Client))
	to := solana.NewWallet().PublicKey()

	for _, v := range []string{"0", "-1", "2.000000001", "5"} {
		_, err := s.Airdrop(context.Background(), to, decimal.RequireFromString(v))
		require.Error(t, err, v)
		assert.Equal(t, "airdrop amount must be between 0 and 2 SOL", err.Error())
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
}

func TestAirdrop(t *testing.T) {
	client := new(mocks.Client)
	to := solana.NewWallet().PublicKey()
	sig := solana.Signature{1}
	client.On("RequestAirdrop", mock.Anything, to, uint64(1_500_000_000), rpc.CommitmentConfirmed).Return(sig, nil)
	client.On("WaitForTransactionConfirmation", mock.Anything, sig, rpc.CommitmentConfirmed).Return(nil)

	got, err := newService(client).Airdrop(context.Background(), to, decimal.RequireFromString("1.5"))
	require.NoError(t, err)
	assert.Equal(t, sig, got)
	client.AssertExpectations(t)
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) PublishSync(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func TestAirdropRequestFailureIsPublished(t *testing.T) {
	client := new(mocks.Client)
	to := solana.NewWallet().PublicKey()
	client.On("RequestAirdrop", mock.Anything, to, uint64(1_000_000_000), rpc.CommitmentConfirmed).
		Return(solana.Signature{}, errors.New("429 Too Many Requests: airdrop limit reached"))

	pub := &recordingPublisher{}
	sender := transaction.NewSender(client, zap.NewNop(), transaction.Config{
		InitialInterval: time.Millisecond,
		Cluster:         "devnet",
	}, pub)
	s := NewService(sender, zap.NewNop(), decimal.Zero)

	_, err := s.Airdrop(context.Background(), to, decimal.NewFromInt(1))
	assert.ErrorContains(t, err, "request airdrop")

	require.Len(t, pub.events, 2)
	assert.Equal(t, events.OperationStarted, pub.events[0].Type())
	failed, ok := pub.events[1].(events.OperationFailedEvent)
	require.True(t, ok)
	assert.Equal(t, "airdrop", failed.Kind)
	assert.Equal(t, to.String(), failed.Wallet)
	assert.Equal(t, "1", failed.Amount)
	client.AssertNotCalled(t, "WaitForTransactionConfirmation", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransferSOL(t *testing.T) {
	from, err := wallet.Generate()
	require.NoError(t, err)
	to := solana.NewWallet().PublicKey()

	t.Run("invalid amount", func(t *testing.T) {
		_, err := newService(new(mocks.Client)).TransferSOL(context.Background(), from, to, decimal.Zero)
		require.Error(t, err)
		assert.Equal(t, "amount must be greater than 0", err.Error())
	})

	t.Run("insufficient balance", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetBalance", mock.Anything, from.PublicKey, rpc.CommitmentConfirmed).Return(uint64(100), nil)

		_, err := newService(client).TransferSOL(context.Background(), from, to, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		client.AssertNotCalled(t, "SendTransaction", mock.Anything, mock.Anything)
	})

	t.Run("sends system transfer", func(t *testing.T) {
		client := new(mocks.Client)
		sig := solana.Signature{2}
		client.On("GetBalance", mock.Anything, from.PublicKey, rpc.CommitmentConfirmed).Return(uint64(2_000_000_000), nil)
		client.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{3}, nil)
		client.On("SendTransaction", mock.Anything, mock.MatchedBy(func(tx *solana.Transaction) bool {
			return len(tx.Message.Instructions) == 1 && tx.Message.AccountKeys[0].Equals(from.PublicKey)
		})).Return(sig, nil)
		client.On("WaitForTransactionConfirmation", mock.Anything, sig, rpc.CommitmentConfirmed).Return(nil)

		got, err := newService(client).TransferSOL(context.Background(), from, to, decimal.RequireFromString("0.5"))
		require.NoError(t, err)
		assert.Equal(t, sig, got)
	})
}

func TestSimulateTransferSOL(t *testing.T) {
	from, err := wallet.Generate()
	require.NoError(t, err)
	to := solana.NewWallet().PublicKey()

	client := new(mocks.Client)
	client.On("GetBalance", mock.Anything, from.PublicKey, rpc.CommitmentConfirmed).Return(uint64(2_000_000_000), nil)
	client.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{3}, nil)
	client.On("SimulateTransaction", mock.Anything, mock.Anything).
		Return(&blockchain.SimulationResult{UnitsConsumed: 150}, nil)

	res, err := newService(client).SimulateTransferSOL(context.Background(), from, to, decimal.RequireFromString("0.5"))
	require.NoError(t, err)
	assert.Equal(t, uint64(150), res.UnitsConsumed)
	client.AssertNotCalled(t, "SendTransaction", mock.Anything, mock.Anything)

	_, err = newService(client).SimulateTransferSOL(context.Background(), from, to, decimal.NewFromInt(5))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}
