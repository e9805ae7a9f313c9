package solana

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

const maxAccountKeys = 256

var (
	ErrMissingSigner    = errors.New("missing signature for required signer")
	ErrSignatureFailure = errors.New("transaction signature verification failure")
	ErrMalformedTx      = errors.New("malformed transaction")
)

type AccountMeta struct {
	PublicKey  PublicKey
	IsSigner   bool
	IsWritable bool
}

func Meta(pk PublicKey, signer, writable bool) AccountMeta {
	return AccountMeta{PublicKey: pk, IsSigner: signer, IsWritable: writable}
}

type Instruction struct {
	ProgramID PublicKey
	Accounts  []AccountMeta
	Data      []byte
}

type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

type CompiledInstruction struct {
	ProgramIDIndex uint8
	Accounts       []uint8
	Data           []byte
}

// Message is the signed portion of a legacy transaction.
type Message struct {
	Header          MessageHeader
	AccountKeys     []PublicKey
	RecentBlockhash Hash
	Instructions    []CompiledInstruction
}

// NewMessage compiles instructions into a message paid for by payer.
func NewMessage(payer PublicKey, instructions []Instruction, recentBlockhash Hash) (*Message, error) {
	type entry struct {
		meta  AccountMeta
		order int
	}
	index := map[PublicKey]*entry{}
	var ordered []*entry
	add := func(m AccountMeta) {
		if e, ok := index[m.PublicKey]; ok {
			e.meta.IsSigner = e.meta.IsSigner || m.IsSigner
			e.meta.IsWritable = e.meta.IsWritable || m.IsWritable
			return
		}
		e := &entry{meta: m, order: len(ordered)}
		index[m.PublicKey] = e
		ordered = append(ordered, e)
	}

	add(AccountMeta{PublicKey: payer, IsSigner: true, IsWritable: true})
	for _, ix := range instructions {
		for _, acc := range ix.Accounts {
			add(acc)
		}
		add(AccountMeta{PublicKey: ix.ProgramID})
	}

	var groups [4][]PublicKey
	for _, e := range ordered {
		switch {
		case e.meta.IsSigner && e.meta.IsWritable:
			groups[0] = append(groups[0], e.meta.PublicKey)
		case e.meta.IsSigner:
			groups[1] = append(groups[1], e.meta.PublicKey)
		case e.meta.IsWritable:
			groups[2] = append(groups[2], e.meta.PublicKey)
		default:
			groups[3] = append(groups[3], e.meta.PublicKey)
		}
	}

	msg := &Message{RecentBlockhash: recentBlockhash}
	for _, g := range groups {
		msg.AccountKeys = append(msg.AccountKeys, g...)
	}
	if len(msg.AccountKeys) > maxAccountKeys {
		return nil, fmt.Errorf("too many account keys: %d", len(msg.AccountKeys))
	}
	msg.Header = MessageHeader{
		NumRequiredSignatures:       uint8(len(groups[0]) + len(groups[1])),
		NumReadonlySignedAccounts:   uint8(len(groups[1])),
		NumReadonlyUnsignedAccounts: uint8(len(groups[3])),
	}

	position := make(map[PublicKey]uint8, len(msg.AccountKeys))
	for i, k := range msg.AccountKeys {
		position[k] = uint8(i)
	}
	for _, ix := range instructions {
		ci := CompiledInstruction{
			ProgramIDIndex: position[ix.ProgramID],
			Accounts:       make([]uint8, len(ix.Accounts)),
			Data:           ix.Data,
		}
		for i, acc := range ix.Accounts {
			ci.Accounts[i] = position[acc.PublicKey]
		}
		msg.Instructions = append(msg.Instructions, ci)
	}
	return msg, nil
}

func (m *Message) IsSigner(i int) bool {
	return i < int(m.Header.NumRequiredSignatures)
}

func (m *Message) IsWritable(i int) bool {
	signed := int(m.Header.NumRequiredSignatures)
	if i < signed {
		return i < signed-int(m.Header.NumReadonlySignedAccounts)
	}
	return i < len(m.AccountKeys)-int(m.Header.NumReadonlyUnsignedAccounts)
}

// sanitize checks that the header describes the account keys: a writable
// fee payer must exist and the signed and readonly unsigned ranges must
// not overlap.
func (m *Message) sanitize() error {
	h := m.Header
	if h.NumReadonlySignedAccounts >= h.NumRequiredSignatures {
		return fmt.Errorf("%w: %d readonly signers of %d signers", ErrMalformedTx, h.NumReadonlySignedAccounts, h.NumRequiredSignatures)
	}
	if int(h.NumRequiredSignatures)+int(h.NumReadonlyUnsignedAccounts) > len(m.AccountKeys) {
		return fmt.Errorf("%w: %d signers and %d readonly accounts exceed %d keys",
			ErrMalformedTx, h.NumRequiredSignatures, h.NumReadonlyUnsignedAccounts, len(m.AccountKeys))
	}
	return nil
}

// Signers returns the keys that must sign the message, fee payer first.
func (m *Message) Signers() []PublicKey {
	return m.AccountKeys[:m.Header.NumRequiredSignatures]
}

// Instruction expands a compiled instruction back into account metas.
func (m *Message) Instruction(i int) (Instruction, error) {
	if i < 0 || i >= len(m.Instructions) {
		return Instruction{}, fmt.Errorf("%w: instruction %d out of range", ErrMalformedTx, i)
	}
	ci := m.Instructions[i]
	if int(ci.ProgramIDIndex) >= len(m.AccountKeys) {
		return Instruction{}, fmt.Errorf("%w: program index %d out of range", ErrMalformedTx, ci.ProgramIDIndex)
	}
	ix := Instruction{
		ProgramID: m.AccountKeys[ci.ProgramIDIndex],
		Accounts:  make([]AccountMeta, len(ci.Accounts)),
		Data:      ci.Data,
	}
	for j, idx := range ci.Accounts {
		if int(idx) >= len(m.AccountKeys) {
			return Instruction{}, fmt.Errorf("%w: account index %d out of range", ErrMalformedTx, idx)
		}
		ix.Accounts[j] = AccountMeta{
			PublicKey:  m.AccountKeys[idx],
			IsSigner:   m.IsSigner(int(idx)),
			IsWritable: m.IsWritable(int(idx)),
		}
	}
	return ix, nil
}

func (m *Message) Serialize() []byte {
	var buf bytes.Buffer
	buf.WriteByte(m.Header.NumRequiredSignatures)
	buf.WriteByte(m.Header.NumReadonlySignedAccounts)
	buf.WriteByte(m.Header.NumReadonlyUnsignedAccounts)

	writeCompactU16(&buf, len(m.AccountKeys))
	for _, k := range m.AccountKeys {
		buf.Write(k[:])
	}
	buf.Write(m.RecentBlockhash[:])

	writeCompactU16(&buf, len(m.Instructions))
	for _, ci := range m.Instructions {
		buf.WriteByte(ci.ProgramIDIndex)
		writeCompactU16(&buf, len(ci.Accounts))
		buf.Write(ci.Accounts)
		writeCompactU16(&buf, len(ci.Data))
		buf.Write(ci.Data)
	}
	return buf.Bytes()
}

// Transaction is a legacy Solana transaction.
type Transaction struct {
	Signatures []Signature
	Message    Message
}

func NewTransaction(instructions []Instruction, recentBlockhash Hash, payer PublicKey) (*Transaction, error) {
	if len(instructions) == 0 {
		return nil, errors.New("transaction has no instructions")
	}
	msg, err := NewMessage(payer, instructions, recentBlockhash)
	if err != nil {
		return nil, err
	}
	return &Transaction{
		Signatures: make([]Signature, msg.Header.NumRequiredSignatures),
		Message:    *msg,
	}, nil
}

// Sign fills in the signature slot of every required signer. All
// required signers must be present in signers.
func (tx *Transaction) Sign(signers ...*Keypair) error {
	byKey := make(map[PublicKey]*Keypair, len(signers))
	for _, s := range signers {
		byKey[s.PublicKey()] = s
	}
	payload := tx.Message.Serialize()
	for i, pk := range tx.Message.Signers() {
		kp, ok := byKey[pk]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingSigner, pk)
		}
		tx.Signatures[i] = kp.Sign(payload)
	}
	return nil
}

// ID returns the first signature, which identifies the transaction on chain.
func (tx *Transaction) ID() Signature {
	if len(tx.Signatures) == 0 {
		return Signature{}
	}
	return tx.Signatures[0]
}

func (tx *Transaction) VerifySignatures() error {
	signers := tx.Message.Signers()
	if len(tx.Signatures) != len(signers) {
		return fmt.Errorf("%w: expected %d signatures, got %d", ErrSignatureFailure, len(signers), len(tx.Signatures))
	}
	payload := tx.Message.Serialize()
	for i, pk := range signers {
		if !Verify(pk, payload, tx.Signatures[i]) {
			return fmt.Errorf("%w: signer %s", ErrSignatureFailure, pk)
		}
	}
	return nil
}

func (tx *Transaction) Serialize() ([]byte, error) {
	for i, sig := range tx.Signatures {
		if sig.IsZero() {
			return nil, fmt.Errorf("%w: slot %d is empty", ErrMissingSigner, i)
		}
	}
	var buf bytes.Buffer
	writeCompactU16(&buf, len(tx.Signatures))
	for _, sig := range tx.Signatures {
		buf.Write(sig[:])
	}
	buf.Write(tx.Message.Serialize())
	return buf.Bytes(), nil
}

// ParseTransaction decodes the legacy wire format produced by Serialize.
func ParseTransaction(data []byte) (*Transaction, error) {
	r := bytes.NewReader(data)
	tx := &Transaction{}

	numSigs, err := readCompactU16(r)
	if err != nil {
		return nil, err
	}
	tx.Signatures = make([]Signature, numSigs)
	for i := range tx.Signatures {
		if _, err := io.ReadFull(r, tx.Signatures[i][:]); err != nil {
			return nil, fmt.Errorf("%w: signature %d: %v", ErrMalformedTx, i, err)
		}
	}

	var header [3]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedTx, err)
	}
	tx.Message.Header = MessageHeader{header[0], header[1], header[2]}

	numKeys, err := readCompactU16(r)
	if err != nil {
		return nil, err
	}
	tx.Message.AccountKeys = make([]PublicKey, numKeys)
	for i := range tx.Message.AccountKeys {
		if _, err := io.ReadFull(r, tx.Message.AccountKeys[i][:]); err != nil {
			return nil, fmt.Errorf("%w: account key %d: %v", ErrMalformedTx, i, err)
		}
	}
	if _, err := io.ReadFull(r, tx.Message.RecentBlockhash[:]); err != nil {
		return nil, fmt.Errorf("%w: blockhash: %v", ErrMalformedTx, err)
	}

	numIx, err := readCompactU16(r)
	if err != nil {
		return nil, err
	}
	tx.Message.Instructions = make([]CompiledInstruction, numIx)
	for i := range tx.Message.Instructions {
		ci := &tx.Message.Instructions[i]
		if ci.ProgramIDIndex, err = r.ReadByte(); err != nil {
			return nil, fmt.Errorf("%w: instruction %d: %v", ErrMalformedTx, i, err)
		}
		if ci.Accounts, err = readCompactBytes(r); err != nil {
			return nil, err
		}
		if ci.Data, err = readCompactBytes(r); err != nil {
			return nil, err
		}
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedTx, r.Len())
	}
	if err := tx.Message.sanitize(); err != nil {
		return nil, err
	}
	if int(tx.Message.Header.NumRequiredSignatures) != len(tx.Signatures) {
		return nil, fmt.Errorf("%w: header does not match signatures", ErrMalformedTx)
	}
	return tx, nil
}

// compact-u16: 7 bits per byte, little endian, high bit set on all but the last byte.
func writeCompactU16(buf *bytes.Buffer, n int) {
	v := uint16(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			buf.WriteByte(b)
			return
		}
		buf.WriteByte(b | 0x80)
	}
}

func readCompactU16(r io.ByteReader) (int, error) {
	var v int
	for i := 0; i < 3; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("%w: compact-u16: %v", ErrMalformedTx, err)
		}
		v |= int(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			if v > 0xffff {
				return 0, fmt.Errorf("%w: compact-u16 overflow", ErrMalformedTx)
			}
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: compact-u16 too long", ErrMalformedTx)
}

func readCompactBytes(r *bytes.Reader) ([]byte, error) {
	n, err := readCompactU16(r)
	if err != nil {
		return nil, err
	}
	if n > r.Len() {
		return nil, fmt.Errorf("%w: length %d exceeds remaining %d bytes", ErrMalformedTx, n, r.Len())
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTx, err)
	}
	return out, nil
}
