package wire

// Flag bits recognized on a transaction's flags byte (spec §4.5); any
// other bit set is rejected under strict parsing.
const (
	FlagHasFeePayerProof   uint8 = 0x01
	FlagMayCompressAccount uint8 = 0x02
	validFlagsMask         uint8 = FlagHasFeePayerProof | FlagMayCompressAccount
)

const (
	maxTotalAccounts = 1024
	txFixedPrefixLen = 176 // signature..reserved (112) + fee-payer + program pubkeys (64)
	feePayerMetaLen  = 64
)

// Transaction is the parsed form of a wire transaction record: a 112-byte
// fixed header (signature, version, flags, counts, resource budgets,
// fee/nonce/start-slot, expiry, reserved padding), immediately followed by
// the fee-payer and program pubkeys, then the dynamic sections.
type Transaction struct {
	Signature       [64]byte
	Version         uint8
	Flags           uint8
	ComputeUnits    uint32
	StateUnits      uint16
	MemoryUnits     uint16
	Fee             uint64
	Nonce           uint64
	StartSlot       uint64
	ExpiryAfter     uint32
	FeePayerPubkey  [32]byte
	ProgramPubkey   [32]byte
	RWAccounts      [][32]byte
	ROAccounts      [][32]byte
	InstructionData []byte

	FeePayerStateProof  *StateProof
	FeePayerAccountMeta *[feePayerMetaLen]byte
}

// IsUnsigned reports whether the signature prefix is all zero bytes.
func (t *Transaction) IsUnsigned() bool {
	for _, b := range t.Signature {
		if b != 0 {
			return false
		}
	}
	return true
}

// ParseTxWire parses one transaction from the front of b, tolerating
// unknown versions and flag bits, and returns the number of bytes
// consumed so the caller (e.g. the block body scanner) can advance past
// it. It still requires every declared field to be structurally present.
func ParseTxWire(b []byte) (*Transaction, int, error) {
	return parseTx(b, false)
}

// ParseTxStrict parses b as exactly one transaction, rejecting version !=
// 1, unrecognized flag bits, more than 1024 total accounts, and trailing
// bytes after the computed end.
func ParseTxStrict(b []byte) (*Transaction, int, error) {
	tx, n, err := parseTx(b, true)
	if err != nil {
		return nil, 0, err
	}
	if n != len(b) {
		return nil, 0, wireerr(ERR_TRAILING_BYTES, "transaction: %d trailing bytes", len(b)-n)
	}
	return tx, n, nil
}

func parseTx(b []byte, strict bool) (*Transaction, int, error) {
	cur := newCursor(b)
	tx := &Transaction{}

	sig, err := cur.readArray64()
	if err != nil {
		return nil, 0, err
	}
	tx.Signature = sig

	tx.Version, err = cur.readU8()
	if err != nil {
		return nil, 0, err
	}
	if strict && tx.Version != 1 {
		return nil, 0, wireerr(ERR_VERSION_INVALID, "transaction version %d != 1", tx.Version)
	}

	tx.Flags, err = cur.readU8()
	if err != nil {
		return nil, 0, err
	}
	if strict && tx.Flags&^validFlagsMask != 0 {
		return nil, 0, wireerr(ERR_FLAGS_INVALID, "transaction flags %#x outside recognized mask %#x", tx.Flags, validFlagsMask)
	}

	rwCount, err := cur.readU16LE()
	if err != nil {
		return nil, 0, err
	}
	roCount, err := cur.readU16LE()
	if err != nil {
		return nil, 0, err
	}
	instrSize, err := cur.readU16LE()
	if err != nil {
		return nil, 0, err
	}
	if strict && int(rwCount)+int(roCount) > maxTotalAccounts {
		return nil, 0, wireerr(ERR_ACCOUNT_OVERFLOW, "transaction account count %d exceeds %d", int(rwCount)+int(roCount), maxTotalAccounts)
	}

	tx.ComputeUnits, err = cur.readU32LE()
	if err != nil {
		return nil, 0, err
	}
	tx.StateUnits, err = cur.readU16LE()
	if err != nil {
		return nil, 0, err
	}
	tx.MemoryUnits, err = cur.readU16LE()
	if err != nil {
		return nil, 0, err
	}
	tx.Fee, err = cur.readU64LE()
	if err != nil {
		return nil, 0, err
	}
	tx.Nonce, err = cur.readU64LE()
	if err != nil {
		return nil, 0, err
	}
	tx.StartSlot, err = cur.readU64LE()
	if err != nil {
		return nil, 0, err
	}
	tx.ExpiryAfter, err = cur.readU32LE()
	if err != nil {
		return nil, 0, err
	}
	if _, err := cur.readExact(4); err != nil { // reserved padding
		return nil, 0, err
	}
	tx.FeePayerPubkey, err = cur.readArray32()
	if err != nil {
		return nil, 0, err
	}
	tx.ProgramPubkey, err = cur.readArray32()
	if err != nil {
		return nil, 0, err
	}

	tx.RWAccounts = make([][32]byte, 0, rwCount)
	for i := uint16(0); i < rwCount; i++ {
		a, err := cur.readArray32()
		if err != nil {
			return nil, 0, err
		}
		tx.RWAccounts = append(tx.RWAccounts, a)
	}
	tx.ROAccounts = make([][32]byte, 0, roCount)
	for i := uint16(0); i < roCount; i++ {
		a, err := cur.readArray32()
		if err != nil {
			return nil, 0, err
		}
		tx.ROAccounts = append(tx.ROAccounts, a)
	}

	instrBytes, err := cur.readExact(int(instrSize))
	if err != nil {
		return nil, 0, err
	}
	tx.InstructionData = append([]byte(nil), instrBytes...)

	if tx.Flags&FlagHasFeePayerProof != 0 {
		proof, used, err := ParseStateProof(cur.b[cur.pos:])
		if err != nil {
			return nil, 0, err
		}
		cur.pos += used
		tx.FeePayerStateProof = proof

		if proof.ProofType == ProofExisting {
			meta, err := cur.readArray64()
			if err != nil {
				return nil, 0, err
			}
			tx.FeePayerAccountMeta = &meta
		}
	}

	return tx, cur.pos, nil
}

// Serialize mirrors parseTx byte-for-byte.
func (t *Transaction) Serialize() []byte {
	out := make([]byte, 0, txFixedPrefixLen+32*(len(t.RWAccounts)+len(t.ROAccounts))+len(t.InstructionData))
	out = append(out, t.Signature[:]...)
	out = append(out, t.Version)
	out = append(out, t.Flags)
	out = appendU16LE(out, uint16(len(t.RWAccounts)))
	out = appendU16LE(out, uint16(len(t.ROAccounts)))
	out = appendU16LE(out, uint16(len(t.InstructionData)))
	out = appendU32LE(out, t.ComputeUnits)
	out = appendU16LE(out, t.StateUnits)
	out = appendU16LE(out, t.MemoryUnits)
	out = appendU64LE(out, t.Fee)
	out = appendU64LE(out, t.Nonce)
	out = appendU64LE(out, t.StartSlot)
	out = appendU32LE(out, t.ExpiryAfter)
	out = append(out, make([]byte, 4)...) // reserved padding
	out = append(out, t.FeePayerPubkey[:]...)
	out = append(out, t.ProgramPubkey[:]...)
	for _, a := range t.RWAccounts {
		out = append(out, a[:]...)
	}
	for _, a := range t.ROAccounts {
		out = append(out, a[:]...)
	}
	out = append(out, t.InstructionData...)
	if t.Flags&FlagHasFeePayerProof != 0 && t.FeePayerStateProof != nil {
		out = append(out, t.FeePayerStateProof.Serialize()...)
		if t.FeePayerStateProof.ProofType == ProofExisting && t.FeePayerAccountMeta != nil {
			out = append(out, t.FeePayerAccountMeta[:]...)
		}
	}
	return out
}
