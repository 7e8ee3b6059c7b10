package solbc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rovshanmuradov/solana-devkit/internal/blockchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

// newRPCServer поднимает фейковый JSON-RPC узел; handler возвращает поле result.
func newRPCServer(t *testing.T, handler func(method string) interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  handler(req.Method),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func rpcContext() map[string]interface{} {
	return map[string]interface{}{"slot": 1}
}

func TestGetBalance(t *testing.T) {
	srv := newRPCServer(t, func(method string) interface{} {
		assert.Equal(t, "getBalance", method)
		return map[string]interface{}{"context": rpcContext(), "value": 1500}
	})
	c := NewClient(srv.URL, zap.NewNop())

	balance, err := c.GetBalance(context.Background(), solana.SystemProgramID, rpc.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), balance)
}

func TestGetAccountInfoNotFound(t *testing.T) {
	srv := newRPCServer(t, func(method string) interface{} {
		return map[string]interface{}{"context": rpcContext(), "value": nil}
	})
	c := NewClient(srv.URL, zap.NewNop())

	_, err := c.GetAccountInfo(context.Background(), solana.NewWallet().PublicKey())
	require.Error(t, err)
	assert.ErrorIs(t, err, blockchain.ErrAccountNotFound)
	assert.True(t, blockchain.IsAccountNotFoundError(err))
}

func TestWaitForTransactionConfirmation(t *testing.T) {
	tests := []struct {
		name    string
		status  interface{}
		timeout time.Duration
		wantErr error
	}{
		{
			name:   "confirmed",
			status: map[string]interface{}{"slot": 10, "confirmations": 1, "err": nil, "confirmationStatus": "confirmed"},
		},
		{
			name: "failed on chain",
			status: map[string]interface{}{
				"slot": 10, "confirmations": 1,
				"err":                map[string]interface{}{"InstructionError": []interface{}{0, "InvalidAccountData"}},
				"confirmationStatus": "confirmed",
			},
			wantErr: blockchain.ErrTransactionFailed,
		},
		{
			name:    "never seen",
			status:  nil,
			timeout: 50 * time.Millisecond,
			wantErr: blockchain.ErrConfirmationTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newRPCServer(t, func(method string) interface{} {
				return map[string]interface{}{"context": rpcContext(), "value": []interface{}{tt.status}}
			})
			opts := []Option{WithPollInterval(5 * time.Millisecond)}
			if tt.timeout > 0 {
				opts = append(opts, WithConfirmTimeout(tt.timeout))
			}
			c := NewClient(srv.URL, zap.NewNop(), opts...)

			err := c.WaitForTransactionConfirmation(context.Background(), solana.Signature{1}, rpc.CommitmentConfirmed)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestWaitForTransactionConfirmationCommitmentLevel(t *testing.T) {
	var calls atomic.Int32
	srv := newRPCServer(t, func(method string) interface{} {
		status := "confirmed"
		if calls.Add(1) >= 3 {
			status = "finalized"
		}
		return map[string]interface{}{
			"context": rpcContext(),
			"value":   []interface{}{map[string]interface{}{"slot": 1, "err": nil, "confirmationStatus": status}},
		}
	})
	c := NewClient(srv.URL, zap.NewNop(), WithPollInterval(5*time.Millisecond))

	err := c.WaitForTransactionConfirmation(context.Background(), solana.Signature{2}, rpc.CommitmentFinalized)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestReachedCommitment(t *testing.T) {
	assert.True(t, reachedCommitment(rpc.ConfirmationStatusProcessed, rpc.CommitmentProcessed))
	assert.False(t, reachedCommitment(rpc.ConfirmationStatusProcessed, rpc.CommitmentConfirmed))
	assert.True(t, reachedCommitment(rpc.ConfirmationStatusFinalized, rpc.CommitmentConfirmed))
	assert.False(t, reachedCommitment(rpc.ConfirmationStatusConfirmed, rpc.CommitmentFinalized))
}

func TestRequestAirdrop(t *testing.T) {
	sig := solana.Signature{9, 9, 9}
	srv := newRPCServer(t, func(method string) interface{} {
		assert.Equal(t, "requestAirdrop", method)
		return sig.String()
	})
	c := NewClient(srv.URL, zap.NewNop())

	got, err := c.RequestAirdrop(context.Background(), solana.NewWallet().PublicKey(), 1, rpc.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, sig, got)
}

func newRPCErrorServer(t *testing.T, rpcErr map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   rpcErr,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testTransaction(t *testing.T) *solana.Transaction {
	t.Helper()
	payer := solana.NewWallet()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{
				solana.Meta(payer.PublicKey()).WRITE().SIGNER(),
			}, []byte("hi")),
		},
		solana.Hash{1},
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		return &payer.PrivateKey
	})
	require.NoError(t, err)
	return tx
}

func TestSendTransactionSimulationError(t *testing.T) {
	srv := newRPCErrorServer(t, map[string]interface{}{
		"code":    -32002,
		"message": "Transaction simulation failed: Error processing Instruction 0: custom program error: 0x1",
		"data": map[string]interface{}{
			"err": map[string]interface{}{"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 1}}},
			"logs": []interface{}{
				"Program TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA invoke [1]",
				"Program log: Error: insufficient funds",
				"Program TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA failed: custom program error: 0x1",
			},
		},
	})
	c := NewClient(srv.URL, zap.NewNop())

	_, err := c.SendTransaction(context.Background(), testTransaction(t))
	require.Error(t, err)

	var simErr *SimulationError
	require.ErrorAs(t, err, &simErr)
	assert.Len(t, simErr.Logs, 3)
	require.NotNil(t, simErr.Program)
	assert.Equal(t, "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", simErr.Program.ProgramID)
	assert.Equal(t, uint32(1), simErr.Program.Code)
	assert.NotNil(t, simErr.InstructionError)
	assert.Contains(t, err.Error(), "error 0x1")
}

func TestSendTransactionPlainRPCError(t *testing.T) {
	srv := newRPCErrorServer(t, map[string]interface{}{"code": -32005, "message": "Node is behind"})
	c := NewClient(srv.URL, zap.NewNop())

	_, err := c.SendTransaction(context.Background(), testTransaction(t))
	require.Error(t, err)
	var simErr *SimulationError
	assert.False(t, errors.As(err, &simErr))
	assert.Contains(t, err.Error(), "Node is behind")
}

func TestParseAnchorErrorLog(t *testing.T) {
	got := parseAnchorErrorLog("Program log: AnchorError occurred. Error Code: InstructionFallbackNotFound. Error Number: 101. Error Message: Fallback functions are not supported.")
	assert.Equal(t, AnchorError{
		Code: 101,
		Name: "InstructionFallbackNotFound",
		Msg:  "Fallback functions are not supported",
	}, got)
}

func TestParseProgramErrorLog(t *testing.T) {
	tests := []struct {
		line string
		want ProgramError
		ok   bool
	}{
		{
			line: "Program metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s failed: custom program error: 0x26",
			want: ProgramError{ProgramID: "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s", Code: 0x26},
			ok:   true,
		},
		{line: "Program log: Instruction: MintTo"},
		{line: "Program X failed: custom program error: zz"},
	}
	for _, tt := range tests {
		got, ok := parseProgramErrorLog(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestRPCObserver(t *testing.T) {
	srv := newRPCServer(t, func(method string) interface{} {
		return map[string]interface{}{"context": rpcContext(), "value": 7}
	})

	var methods []string
	c := NewClient(srv.URL, zap.NewNop(), WithRPCObserver(func(method string, d time.Duration, err error) {
		assert.NoError(t, err)
		methods = append(methods, method)
	}))

	_, err := c.GetBalance(context.Background(), solana.SystemProgramID, rpc.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, []string{"getBalance"}, methods)
}
