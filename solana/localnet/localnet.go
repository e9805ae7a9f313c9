// Package localnet is an in-memory single-node Solana JSON-RPC endpoint.
//
// It executes transactions immediately against registered Go
// implementations of on-chain programs, so clients can be exercised end
// to end without a validator. Every accepted transaction is reported as
// finalized. There is no consensus, fee market or rent collection.
package localnet

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/mr-tron/base58"

	"github.com/nitro-legacy/inventory-tooling/solana"
)

// LamportsPerSignature is the flat fee charged to the fee payer.
const LamportsPerSignature = 5000

// Program is an on-chain program implemented in Go.
type Program interface {
	Process(store solana.AccountStore, ix solana.Instruction) ([]byte, error)
}

type txRecord struct {
	slot uint64
	err  json.RawMessage
	logs []string
}

// Localnet implements http.Handler.
type Localnet struct {
	mu         sync.Mutex
	accounts   map[solana.PublicKey]*solana.Account
	programs   map[solana.PublicKey]Program
	statuses   map[solana.Signature]*txRecord
	blockhashs map[solana.Hash]uint64
	slot       uint64
	blockhash  solana.Hash
	log        *slog.Logger
}

func New(log *slog.Logger) *Localnet {
	if log == nil {
		log = slog.Default()
	}
	l := &Localnet{
		accounts:   make(map[solana.PublicKey]*solana.Account),
		programs:   make(map[solana.PublicKey]Program),
		statuses:   make(map[solana.Signature]*txRecord),
		blockhashs: make(map[solana.Hash]uint64),
		log:        log,
	}
	l.advance()
	return l
}

// RegisterProgram deploys a program at id.
func (l *Localnet) RegisterProgram(id solana.PublicKey, p Program) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.programs[id] = p
	l.accounts[id] = &solana.Account{Lamports: 1, Owner: bpfLoader, Executable: true}
}

// Fund credits lamports to an account, creating it if needed.
func (l *Localnet) Fund(pk solana.PublicKey, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fund(pk, lamports)
}

func (l *Localnet) fund(pk solana.PublicKey, lamports uint64) {
	acc, ok := l.accounts[pk]
	if !ok {
		acc = &solana.Account{Owner: solana.SystemProgramID}
		l.accounts[pk] = acc
	}
	acc.Lamports += lamports
}

// Account returns a copy of the stored account.
func (l *Localnet) Account(pk solana.PublicKey) (*solana.Account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[pk]
	if !ok {
		return nil, false
	}
	return acc.Clone(), true
}

// bpfLoader is BPFLoaderUpgradeab1e11111111111111111111111, the owner of
// registered programs.
var bpfLoader = solana.PublicKey{
	0x02, 0xa8, 0xf6, 0x91, 0x4e, 0x88, 0xa1, 0xb0, 0xe2, 0x10, 0x15, 0x3e, 0xf7, 0x63, 0xae, 0x2b,
	0x00, 0xc2, 0xb9, 0x3d, 0x16, 0xc1, 0x24, 0xd2, 0xc0, 0x53, 0x7a, 0x10, 0x04, 0x80, 0x00, 0x00,
}

// advance produces a new slot and blockhash. Caller holds mu.
func (l *Localnet) advance() {
	l.slot++
	seed := binary.LittleEndian.AppendUint64([]byte("localnet"), l.slot)
	l.blockhash = sha256.Sum256(append(seed, l.blockhash[:]...))
	l.blockhashs[l.blockhash] = l.slot
}

// overlay stages writes so a failed transaction leaves no trace.
type overlay struct {
	base    map[solana.PublicKey]*solana.Account
	changes map[solana.PublicKey]*solana.Account
}

func (o *overlay) GetAccount(pk solana.PublicKey) (*solana.Account, bool) {
	if acc, ok := o.changes[pk]; ok {
		return acc.Clone(), true
	}
	if acc, ok := o.base[pk]; ok {
		return acc.Clone(), true
	}
	return nil, false
}

func (o *overlay) SetAccount(pk solana.PublicKey, acc *solana.Account) {
	o.changes[pk] = acc.Clone()
}

// instructionError is the subset of program errors that map to Custom(n).
type instructionError interface {
	CustomCode() (uint32, bool)
}

var errBlockhashNotFound = errors.New("BlockhashNotFound")

// execute runs tx atomically. Caller holds mu.
func (l *Localnet) execute(tx *solana.Transaction) (*txRecord, error) {
	if _, ok := l.blockhashs[tx.Message.RecentBlockhash]; !ok {
		return nil, errBlockhashNotFound
	}
	rec := &txRecord{slot: l.slot}

	feePayer := tx.Message.AccountKeys[0]
	payer, ok := l.accounts[feePayer]
	if !ok || payer.Lamports == 0 {
		rec.err = json.RawMessage(`"AccountNotFound"`)
		return rec, nil
	}
	fee := uint64(LamportsPerSignature * len(tx.Signatures))
	if payer.Lamports < fee {
		rec.err = json.RawMessage(`"InsufficientFundsForFee"`)
		return rec, nil
	}

	store := &overlay{base: l.accounts, changes: make(map[solana.PublicKey]*solana.Account)}
	payerCopy, _ := store.GetAccount(feePayer)
	payerCopy.Lamports -= fee
	store.SetAccount(feePayer, payerCopy)

	for i := range tx.Message.Instructions {
		ix, err := tx.Message.Instruction(i)
		if err != nil {
			return nil, err
		}
		rec.logs = append(rec.logs, fmt.Sprintf("Program %s invoke [1]", ix.ProgramID))
		program, ok := l.programs[ix.ProgramID]
		if !ok {
			rec.logs = append(rec.logs, fmt.Sprintf("Program %s failed: unsupported program id", ix.ProgramID))
			rec.err = solana.InstructionErrorJSON(i, nil, "UnsupportedProgramId")
			return rec, nil
		}

		ret, err := program.Process(store, ix)
		if err != nil {
			rec.logs = append(rec.logs, fmt.Sprintf("Program log: Error: %v", err))
			var ie instructionError
			if errors.As(err, &ie) {
				if code, ok := ie.CustomCode(); ok {
					rec.logs = append(rec.logs, fmt.Sprintf("Program %s failed: custom program error: 0x%x", ix.ProgramID, code))
					rec.err = solana.InstructionErrorJSON(i, &code, "")
					return rec, nil
				}
			}
			rec.err = solana.InstructionErrorJSON(i, nil, "GenericError")
			return rec, nil
		}
		if len(ret) > 0 {
			rec.logs = append(rec.logs, fmt.Sprintf("Program return: %s %s", ix.ProgramID, base64.StdEncoding.EncodeToString(ret)))
		}
		rec.logs = append(rec.logs, fmt.Sprintf("Program %s success", ix.ProgramID))
	}

	for pk, acc := range store.changes {
		l.accounts[pk] = acc
	}
	return rec, nil
}

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	return e.Message
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func (l *Localnet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, rpcResponse{JSONRPC: "2.0", ID: json.RawMessage("null"), Error: &rpcError{Code: -32700, Message: "Parse error"}})
		return
	}

	result, err := l.dispatch(&req)
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	if err != nil {
		var re *rpcError
		if !errors.As(err, &re) {
			re = &rpcError{Code: -32602, Message: err.Error()}
		}
		resp.Error = re
	} else {
		resp.Result = result
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (l *Localnet) dispatch(req *rpcRequest) (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.log.Debug("RPC request", "method", req.Method)
	switch req.Method {
	case "getHealth":
		return "ok", nil
	case "getSlot":
		return l.slot, nil
	case "getLatestBlockhash":
		return l.withContext(map[string]any{
			"blockhash":            l.blockhash.String(),
			"lastValidBlockHeight": l.slot + 150,
		}), nil
	case "getMinimumBalanceForRentExemption":
		var size int
		if err := param(req.Params, 0, &size); err != nil {
			return nil, err
		}
		return solana.RentExemptMinimum(size), nil
	case "getBalance":
		var pk solana.PublicKey
		if err := param(req.Params, 0, &pk); err != nil {
			return nil, err
		}
		var lamports uint64
		if acc, ok := l.accounts[pk]; ok {
			lamports = acc.Lamports
		}
		return l.withContext(lamports), nil
	case "requestAirdrop":
		return l.requestAirdrop(req.Params)
	case "getAccountInfo":
		return l.getAccountInfo(req.Params)
	case "sendTransaction":
		return l.sendTransaction(req.Params)
	case "getSignatureStatuses":
		return l.getSignatureStatuses(req.Params)
	}
	return nil, &rpcError{Code: -32601, Message: "Method not found"}
}

func param(params []json.RawMessage, i int, v any) error {
	if i >= len(params) {
		return &rpcError{Code: -32602, Message: fmt.Sprintf("missing parameter %d", i)}
	}
	if err := json.Unmarshal(params[i], v); err != nil {
		return &rpcError{Code: -32602, Message: fmt.Sprintf("invalid parameter %d: %v", i, err)}
	}
	return nil
}

func (l *Localnet) withContext(value any) map[string]any {
	return map[string]any{
		"context": map[string]uint64{"slot": l.slot},
		"value":   value,
	}
}

func (l *Localnet) requestAirdrop(params []json.RawMessage) (any, error) {
	var pk solana.PublicKey
	var lamports uint64
	if err := param(params, 0, &pk); err != nil {
		return nil, err
	}
	if err := param(params, 1, &lamports); err != nil {
		return nil, err
	}
	l.fund(pk, lamports)

	var sig solana.Signature
	h := sha256.Sum256(binary.LittleEndian.AppendUint64(append([]byte("airdrop"), pk[:]...), l.slot))
	copy(sig[:], h[:])
	copy(sig[32:], l.blockhash[:])
	l.statuses[sig] = &txRecord{slot: l.slot}
	l.advance()
	return sig, nil
}

func (l *Localnet) getAccountInfo(params []json.RawMessage) (any, error) {
	var pk solana.PublicKey
	if err := param(params, 0, &pk); err != nil {
		return nil, err
	}
	acc, ok := l.accounts[pk]
	if !ok {
		return l.withContext(nil), nil
	}
	return l.withContext(map[string]any{
		"lamports":   acc.Lamports,
		"owner":      acc.Owner,
		"data":       []string{base64.StdEncoding.EncodeToString(acc.Data), "base64"},
		"executable": acc.Executable,
		"rentEpoch":  acc.RentEpoch,
		"space":      len(acc.Data),
	}), nil
}

type sendConfig struct {
	Encoding      string `json:"encoding"`
	SkipPreflight bool   `json:"skipPreflight"`
}

func (l *Localnet) sendTransaction(params []json.RawMessage) (any, error) {
	var encoded string
	if err := param(params, 0, &encoded); err != nil {
		return nil, err
	}
	cfg := sendConfig{Encoding: "base58"}
	if len(params) > 1 {
		if err := param(params, 1, &cfg); err != nil {
			return nil, err
		}
	}

	var raw []byte
	var err error
	switch cfg.Encoding {
	case "base64":
		raw, err = base64.StdEncoding.DecodeString(encoded)
	case "base58", "":
		raw, err = base58.Decode(encoded)
	default:
		return nil, &rpcError{Code: -32602, Message: "unsupported encoding: " + cfg.Encoding}
	}
	if err != nil {
		return nil, &rpcError{Code: -32602, Message: fmt.Sprintf("invalid transaction encoding: %v", err)}
	}

	tx, err := solana.ParseTransaction(raw)
	if err != nil {
		return nil, &rpcError{Code: -32602, Message: fmt.Sprintf("failed to deserialize transaction: %v", err)}
	}
	if len(tx.Signatures) == 0 {
		return nil, &rpcError{Code: -32602, Message: "transaction has no signatures"}
	}
	if err := tx.VerifySignatures(); err != nil {
		return nil, &rpcError{Code: -32003, Message: "Transaction signature verification failure"}
	}
	sig := tx.ID()
	if _, seen := l.statuses[sig]; seen {
		return nil, simulationFailure(json.RawMessage(`"AlreadyProcessed"`), nil)
	}

	rec, err := l.execute(tx)
	if errors.Is(err, errBlockhashNotFound) {
		return nil, simulationFailure(json.RawMessage(`"BlockhashNotFound"`), nil)
	}
	if err != nil {
		return nil, &rpcError{Code: -32602, Message: err.Error()}
	}

	if rec.err != nil && !cfg.SkipPreflight {
		return nil, simulationFailure(rec.err, rec.logs)
	}
	l.statuses[sig] = rec
	l.advance()
	l.log.Debug("Transaction processed", "signature", sig.String(), "slot", rec.slot, "failed", rec.err != nil)
	return sig, nil
}

func simulationFailure(txErr json.RawMessage, logs []string) *rpcError {
	msg := "Transaction simulation failed"
	if parsed, err := solana.ParseTransactionError(txErr); err == nil {
		msg += ": " + parsed.Error()
	}
	if logs == nil {
		logs = []string{}
	}
	return &rpcError{
		Code:    -32002,
		Message: msg,
		Data: map[string]any{
			"err":  txErr,
			"logs": logs,
		},
	}
}

func (l *Localnet) getSignatureStatuses(params []json.RawMessage) (any, error) {
	var sigs []solana.Signature
	if err := param(params, 0, &sigs); err != nil {
		return nil, err
	}
	out := make([]any, len(sigs))
	for i, sig := range sigs {
		rec, ok := l.statuses[sig]
		if !ok {
			continue
		}
		out[i] = map[string]any{
			"slot":               rec.slot,
			"confirmations":      nil,
			"err":                rec.err,
			"confirmationStatus": solana.CommitmentFinalized,
		}
	}
	return l.withContext(out), nil
}
