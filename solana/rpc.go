package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// DefaultPollInterval is how often ConfirmTransaction polls signature statuses.
const DefaultPollInterval = 500 * time.Millisecond

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrNotConfirmed    = errors.New("transaction not confirmed")
)

// Account is the decoded form of getAccountInfo.
type Account struct {
	Lamports   uint64
	Owner      PublicKey
	Data       []byte
	Executable bool
	RentEpoch  uint64
}

type BlockhashResult struct {
	Blockhash            Hash
	LastValidBlockHeight uint64
}

type SignatureStatus struct {
	Slot               uint64          `json:"slot"`
	Confirmations      *uint64         `json:"confirmations"`
	Err                json.RawMessage `json:"err"`
	ConfirmationStatus Commitment      `json:"confirmationStatus"`
}

// Reached reports whether the status satisfies the commitment level.
func (s *SignatureStatus) Reached(c Commitment) bool {
	switch c {
	case CommitmentFinalized:
		return s.ConfirmationStatus == CommitmentFinalized
	case CommitmentConfirmed:
		return s.ConfirmationStatus == CommitmentConfirmed || s.ConfirmationStatus == CommitmentFinalized
	default:
		return s.ConfirmationStatus != ""
	}
}

func (s *SignatureStatus) Failed() bool {
	return len(s.Err) > 0 && string(s.Err) != "null"
}

// Client is a Solana JSON-RPC client.
type Client struct {
	rpc           *gethrpc.Client
	commitment    Commitment
	pollInterval  time.Duration
	skipPreflight bool
	log           *slog.Logger
}

type ClientOption func(*Client)

func WithCommitment(c Commitment) ClientOption {
	return func(cl *Client) { cl.commitment = c }
}

func WithPollInterval(d time.Duration) ClientOption {
	return func(cl *Client) { cl.pollInterval = d }
}

// WithSkipPreflight submits transactions without simulation; failures
// then surface from ConfirmTransaction instead of SendTransaction.
func WithSkipPreflight(skip bool) ClientOption {
	return func(cl *Client) { cl.skipPreflight = skip }
}

func WithLogger(log *slog.Logger) ClientOption {
	return func(cl *Client) { cl.log = log }
}

// Dial connects to an RPC endpoint, e.g. http://127.0.0.1:8899.
func Dial(ctx context.Context, endpoint string, opts ...ClientOption) (*Client, error) {
	c, err := gethrpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("could not dial %s: %w", endpoint, err)
	}
	return NewClient(c, opts...), nil
}

func NewClient(c *gethrpc.Client, opts ...ClientOption) *Client {
	client := &Client{
		rpc:          c,
		commitment:   CommitmentConfirmed,
		pollInterval: DefaultPollInterval,
		log:          slog.Default(),
	}
	for _, o := range opts {
		o(client)
	}
	return client
}

func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) Commitment() Commitment {
	return c.commitment
}

type commitmentConfig struct {
	Commitment Commitment `json:"commitment,omitempty"`
}

func (c *Client) GetLatestBlockhash(ctx context.Context) (*BlockhashResult, error) {
	var res struct {
		Value struct {
			Blockhash            string `json:"blockhash"`
			LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
		} `json:"value"`
	}
	if err := c.rpc.CallContext(ctx, &res, "getLatestBlockhash", commitmentConfig{c.commitment}); err != nil {
		return nil, fmt.Errorf("getLatestBlockhash: %w", err)
	}
	hash, err := HashFromBase58(res.Value.Blockhash)
	if err != nil {
		return nil, err
	}
	return &BlockhashResult{Blockhash: hash, LastValidBlockHeight: res.Value.LastValidBlockHeight}, nil
}

// SendTransaction submits a signed transaction. Preflight failures are
// returned as *TransactionError carrying the simulation logs.
func (c *Client) SendTransaction(ctx context.Context, tx *Transaction) (Signature, error) {
	raw, err := tx.Serialize()
	if err != nil {
		return Signature{}, err
	}
	cfg := map[string]any{
		"encoding":            "base64",
		"preflightCommitment": c.commitment,
		"skipPreflight":       c.skipPreflight,
	}

	var sig Signature
	err = c.rpc.CallContext(ctx, &sig, "sendTransaction", base64.StdEncoding.EncodeToString(raw), cfg)
	if err != nil {
		if txErr := preflightError(err); txErr != nil {
			return Signature{}, txErr
		}
		return Signature{}, fmt.Errorf("sendTransaction: %w", err)
	}
	return sig, nil
}

func preflightError(err error) *TransactionError {
	var dataErr gethrpc.DataError
	if !errors.As(err, &dataErr) || dataErr.ErrorData() == nil {
		return nil
	}
	encoded, mErr := json.Marshal(dataErr.ErrorData())
	if mErr != nil {
		return nil
	}
	var data struct {
		Err  json.RawMessage `json:"err"`
		Logs []string        `json:"logs"`
	}
	if json.Unmarshal(encoded, &data) != nil || len(data.Err) == 0 || string(data.Err) == "null" {
		return nil
	}
	txErr, pErr := ParseTransactionError(data.Err)
	if pErr != nil {
		return nil
	}
	txErr.Logs = data.Logs
	return txErr
}

// GetSignatureStatuses returns one entry per signature, nil when the
// cluster has no record of it.
func (c *Client) GetSignatureStatuses(ctx context.Context, sigs ...Signature) ([]*SignatureStatus, error) {
	var res struct {
		Value []*SignatureStatus `json:"value"`
	}
	cfg := map[string]bool{"searchTransactionHistory": true}
	if err := c.rpc.CallContext(ctx, &res, "getSignatureStatuses", sigs, cfg); err != nil {
		return nil, fmt.Errorf("getSignatureStatuses: %w", err)
	}
	if len(res.Value) != len(sigs) {
		return nil, fmt.Errorf("getSignatureStatuses: expected %d statuses, got %d", len(sigs), len(res.Value))
	}
	return res.Value, nil
}

// ConfirmTransaction blocks until sig reaches the client's commitment,
// the transaction fails, or ctx is done.
func (c *Client) ConfirmTransaction(ctx context.Context, sig Signature) (*SignatureStatus, error) {
	var status *SignatureStatus
	op := func() error {
		statuses, err := c.GetSignatureStatuses(ctx, sig)
		if err != nil {
			return backoff.Permanent(err)
		}
		st := statuses[0]
		if st == nil {
			return ErrNotConfirmed
		}
		if st.Failed() {
			txErr, err := ParseTransactionError(st.Err)
			if err != nil {
				return backoff.Permanent(err)
			}
			return backoff.Permanent(txErr)
		}
		if !st.Reached(c.commitment) {
			return ErrNotConfirmed
		}
		status = st
		return nil
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(c.pollInterval), ctx)
	if err := backoff.Retry(op, b); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotConfirmed, sig, err)
		}
		return nil, err
	}
	c.log.Debug("Transaction confirmed", "signature", sig.String(), "slot", status.Slot)
	return status, nil
}

// SendAndConfirm fetches a blockhash, signs, submits and waits for the
// transaction built from instructions.
func (c *Client) SendAndConfirm(ctx context.Context, instructions []Instruction, payer *Keypair, signers ...*Keypair) (Signature, error) {
	bh, err := c.GetLatestBlockhash(ctx)
	if err != nil {
		return Signature{}, err
	}
	tx, err := NewTransaction(instructions, bh.Blockhash, payer.PublicKey())
	if err != nil {
		return Signature{}, err
	}
	if err := tx.Sign(append([]*Keypair{payer}, signers...)...); err != nil {
		return Signature{}, err
	}
	sig, err := c.SendTransaction(ctx, tx)
	if err != nil {
		return Signature{}, err
	}
	c.log.Debug("Transaction sent", "signature", sig.String())
	if _, err := c.ConfirmTransaction(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

func (c *Client) GetAccountInfo(ctx context.Context, pk PublicKey) (*Account, error) {
	var res struct {
		Value *struct {
			Lamports   uint64    `json:"lamports"`
			Owner      PublicKey `json:"owner"`
			Data       []string  `json:"data"`
			Executable bool      `json:"executable"`
			RentEpoch  uint64    `json:"rentEpoch"`
		} `json:"value"`
	}
	cfg := map[string]any{"encoding": "base64", "commitment": c.commitment}
	if err := c.rpc.CallContext(ctx, &res, "getAccountInfo", pk, cfg); err != nil {
		return nil, fmt.Errorf("getAccountInfo: %w", err)
	}
	if res.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, pk)
	}
	if len(res.Value.Data) != 2 || res.Value.Data[1] != "base64" {
		return nil, fmt.Errorf("getAccountInfo: unexpected data encoding %v", res.Value.Data)
	}
	data, err := base64.StdEncoding.DecodeString(res.Value.Data[0])
	if err != nil {
		return nil, fmt.Errorf("getAccountInfo: could not decode data: %w", err)
	}
	return &Account{
		Lamports:   res.Value.Lamports,
		Owner:      res.Value.Owner,
		Data:       data,
		Executable: res.Value.Executable,
		RentEpoch:  res.Value.RentEpoch,
	}, nil
}

func (c *Client) GetMinimumBalanceForRentExemption(ctx context.Context, size int) (uint64, error) {
	var lamports uint64
	if err := c.rpc.CallContext(ctx, &lamports, "getMinimumBalanceForRentExemption", size, commitmentConfig{c.commitment}); err != nil {
		return 0, fmt.Errorf("getMinimumBalanceForRentExemption: %w", err)
	}
	return lamports, nil
}

func (c *Client) RequestAirdrop(ctx context.Context, pk PublicKey, lamports uint64) (Signature, error) {
	var sig Signature
	if err := c.rpc.CallContext(ctx, &sig, "requestAirdrop", pk, lamports, commitmentConfig{c.commitment}); err != nil {
		return Signature{}, fmt.Errorf("requestAirdrop: %w", err)
	}
	return sig, nil
}
