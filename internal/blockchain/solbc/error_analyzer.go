package solbc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

const simulationFailedMarker = "Transaction simulation failed"

// AnchorError ошибка программы на Anchor, разобранная из лога.
type AnchorError struct {
	Code int
	Name string
	Msg  string
}

// ProgramError "custom program error: 0x.." из логов программы.
type ProgramError struct {
	ProgramID string
	Code      uint32
}

// SimulationError preflight-симуляция отклонила транзакцию.
// Транзакция в сеть не попала.
type SimulationError struct {
	Message          string
	Logs             []string
	InstructionError interface{}
	Program          *ProgramError
	Anchor           *AnchorError

	rpcErr *jsonrpc.RPCError
}

func (e *SimulationError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	switch {
	case e.Anchor != nil:
		fmt.Fprintf(&sb, " (%s: %s)", e.Anchor.Name, e.Anchor.Msg)
	case e.Program != nil:
		fmt.Fprintf(&sb, " (program %s error 0x%x)", e.Program.ProgramID, e.Program.Code)
	}
	return sb.String()
}

func (e *SimulationError) Unwrap() error {
	if e.rpcErr == nil {
		return nil
	}
	return e.rpcErr
}

// BlockhashNotFound симуляция отклонена из-за устаревшего blockhash, а не программой.
// Только такую транзакцию имеет смысл пересобрать и отправить снова.
func (e *SimulationError) BlockhashNotFound() bool {
	reason, ok := e.InstructionError.(string)
	return ok && reason == "BlockhashNotFound"
}

// analyzeRPCError превращает отказ симуляции в *SimulationError; прочие ошибки возвращаются как есть.
func analyzeRPCError(err error) error {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) || !strings.Contains(rpcErr.Message, simulationFailedMarker) {
		return err
	}

	simErr := &SimulationError{Message: rpcErr.Message, rpcErr: rpcErr}
	data, ok := rpcErr.Data.(map[string]interface{})
	if !ok {
		return simErr
	}
	if logs, ok := data["logs"].([]interface{}); ok {
		for _, entry := range logs {
			line, ok := entry.(string)
			if !ok {
				continue
			}
			simErr.Logs = append(simErr.Logs, line)
			if strings.Contains(line, "AnchorError occurred") {
				a := parseAnchorErrorLog(line)
				simErr.Anchor = &a
			}
			if p, ok := parseProgramErrorLog(line); ok {
				simErr.Program = &p
			}
		}
	}
	simErr.InstructionError = data["err"]
	return simErr
}

// parseAnchorErrorLog разбирает строку вида
// "Program log: AnchorError occurred. Error Code: X. Error Number: 101. Error Message: Y."
func parseAnchorErrorLog(line string) AnchorError {
	var out AnchorError
	if _, rest, ok := strings.Cut(line, "Error Code:"); ok {
		name, _, _ := strings.Cut(rest, ".")
		out.Name = strings.TrimSpace(name)
	}
	if _, rest, ok := strings.Cut(line, "Error Number:"); ok {
		num, _, _ := strings.Cut(rest, ".")
		out.Code, _ = strconv.Atoi(strings.TrimSpace(num))
	}
	if _, rest, ok := strings.Cut(line, "Error Message:"); ok {
		out.Msg = strings.TrimSuffix(strings.TrimSpace(rest), ".")
	}
	return out
}

// parseProgramErrorLog разбирает "Program <id> failed: custom program error: 0x1".
func parseProgramErrorLog(line string) (ProgramError, bool) {
	head, code, ok := strings.Cut(line, " failed: custom program error: ")
	if !ok {
		return ProgramError{}, false
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(code), "0x"), 16, 32)
	if err != nil {
		return ProgramError{}, false
	}
	return ProgramError{
		ProgramID: strings.TrimSpace(strings.TrimPrefix(head, "Program ")),
		Code:      uint32(v),
	}, true
}
