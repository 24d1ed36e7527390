package wire

import (
	"bytes"
	"testing"
)

func sampleTx() *Transaction {
	return &Transaction{
		Signature:       [64]byte{1, 2, 3},
		Version:         1,
		Flags:           0,
		ComputeUnits:    1000,
		StateUnits:      10,
		MemoryUnits:     20,
		Fee:             500,
		Nonce:           42,
		StartSlot:       100,
		ExpiryAfter:     50,
		FeePayerPubkey:  [32]byte{4, 4, 4},
		ProgramPubkey:   [32]byte{5, 5, 5},
		RWAccounts:      [][32]byte{{6}, {7}},
		ROAccounts:      [][32]byte{{8}},
		InstructionData: []byte("hello"),
	}
}

func TestParseTxStrictRoundTrip(t *testing.T) {
	tx := sampleTx()
	raw := tx.Serialize()

	got, n, err := ParseTxStrict(raw)
	if err != nil {
		t.Fatalf("ParseTxStrict: %v", err)
	}
	if n != len(raw) {
		t.Fatalf("n = %d, want %d", n, len(raw))
	}
	if got.Signature != tx.Signature {
		t.Fatalf("signature not preserved")
	}
	if !bytes.Equal(got.Serialize(), raw) {
		t.Fatalf("Serialize did not round-trip")
	}
}

func TestParseTxStrictRejectsUnknownFlags(t *testing.T) {
	tx := sampleTx()
	tx.Flags = 0x80
	raw := tx.Serialize()

	if _, _, err := ParseTxStrict(raw); err == nil {
		t.Fatalf("expected error for unrecognized flag bits")
	}
}

func TestParseTxWireToleratesUnknownVersionAndFlags(t *testing.T) {
	tx := sampleTx()
	tx.Version = 9
	tx.Flags = 0x80
	raw := tx.Serialize()

	got, n, err := ParseTxWire(raw)
	if err != nil {
		t.Fatalf("ParseTxWire: %v", err)
	}
	if n != len(raw) {
		t.Fatalf("n = %d, want %d", n, len(raw))
	}
	if got.Version != 9 {
		t.Fatalf("Version = %d, want 9", got.Version)
	}
}

func TestParseTxStrictRejectsAccountOverflow(t *testing.T) {
	tx := sampleTx()
	tx.RWAccounts = make([][32]byte, 1025)
	raw := tx.Serialize()

	if _, _, err := ParseTxStrict(raw); err == nil {
		t.Fatalf("expected error for account count > 1024")
	}
}

func TestParseTxStrictRejectsTrailingBytes(t *testing.T) {
	tx := sampleTx()
	raw := append(tx.Serialize(), 0xff)

	if _, _, err := ParseTxStrict(raw); err == nil {
		t.Fatalf("expected error for trailing bytes")
	}
}

func TestParseTxWithFeePayerProofExistingAndMeta(t *testing.T) {
	tx := sampleTx()
	tx.Flags = FlagHasFeePayerProof
	var bitset [32]byte
	bitset[0] = 0x01
	proof := &StateProof{ProofType: ProofExisting, TargetSlot: 99, PathBitset: bitset, Hashes: [][32]byte{{1}}}
	meta := [64]byte{2, 2, 2}
	tx.FeePayerStateProof = proof
	tx.FeePayerAccountMeta = &meta

	raw := tx.Serialize()
	got, n, err := ParseTxStrict(raw)
	if err != nil {
		t.Fatalf("ParseTxStrict: %v", err)
	}
	if n != len(raw) {
		t.Fatalf("n = %d, want %d", n, len(raw))
	}
	if got.FeePayerStateProof == nil || got.FeePayerStateProof.TargetSlot != 99 {
		t.Fatalf("fee payer state proof not preserved: %+v", got.FeePayerStateProof)
	}
	if got.FeePayerAccountMeta == nil || *got.FeePayerAccountMeta != meta {
		t.Fatalf("fee payer account meta not preserved")
	}
}

func TestParseTxWithFeePayerProofCreationHasNoMeta(t *testing.T) {
	tx := sampleTx()
	tx.Flags = FlagHasFeePayerProof
	var bitset [32]byte
	proof := &StateProof{ProofType: ProofCreation, TargetSlot: 1, PathBitset: bitset, Hashes: [][32]byte{{1}, {2}}}
	tx.FeePayerStateProof = proof

	raw := tx.Serialize()
	got, n, err := ParseTxStrict(raw)
	if err != nil {
		t.Fatalf("ParseTxStrict: %v", err)
	}
	if n != len(raw) {
		t.Fatalf("n = %d, want %d", n, len(raw))
	}
	if got.FeePayerAccountMeta != nil {
		t.Fatalf("expected no account meta for CREATION proof")
	}
}
