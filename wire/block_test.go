package wire

import (
	"bytes"
	"testing"
)

func sampleCurrentHeader() BlockHeader {
	return BlockHeader{
		Signature:         [64]byte{1},
		Version:           1,
		ChainID:           7,
		ProducerPubkey:    [32]byte{2},
		BondAmountLockup:  1000,
		ExpiryTimestampNs: 2000,
		StartSlot:         300,
		ExpiryAfter:       40,
		MaxBlockSize:      50000,
		MaxComputeUnits:   600000,
		MaxStateUnits:     7000,
		HasWeightSlot:     true,
		WeightSlot:        123,
		BlockTimeNs:       999999,
	}
}

func TestParseBlockCurrentLayoutHeaderOnly(t *testing.T) {
	blk := &Block{Header: sampleCurrentHeader()}
	raw := blk.Serialize()
	if len(raw) != blockHeaderLenCurrent {
		t.Fatalf("serialized header-only block length = %d, want %d", len(raw), blockHeaderLenCurrent)
	}

	got, err := ParseBlock(raw)
	if err != nil {
		t.Fatalf("ParseBlock: %v", err)
	}
	if got.Header.Legacy {
		t.Fatalf("expected current layout, got legacy")
	}
	if got.Header.ChainID != 7 || got.Header.WeightSlot != 123 {
		t.Fatalf("header fields not preserved: %+v", got.Header)
	}
	if len(got.Transactions) != 0 || got.Footer != nil {
		t.Fatalf("expected no transactions or footer")
	}
}

func TestParseBlockLegacyLayoutHeaderOnly(t *testing.T) {
	h := sampleCurrentHeader()
	h.HasWeightSlot = false
	h.WeightSlot = 0
	h.Legacy = true
	blk := &Block{Header: h}
	raw := blk.Serialize()
	if len(raw) != blockHeaderLenLegacy {
		t.Fatalf("serialized legacy header-only block length = %d, want %d", len(raw), blockHeaderLenLegacy)
	}

	got, err := ParseBlock(raw)
	if err != nil {
		t.Fatalf("ParseBlock: %v", err)
	}
	if !got.Header.Legacy {
		t.Fatalf("expected legacy layout to be selected")
	}
	if got.Header.HasWeightSlot {
		t.Fatalf("legacy header should not carry a weight slot")
	}
}

func TestParseBlockWithTransactionsAndFooter(t *testing.T) {
	tx1 := sampleTx()
	tx2 := sampleTx()
	tx2.Nonce = 7

	blk := &Block{
		Header:       sampleCurrentHeader(),
		Transactions: []*Transaction{tx1, tx2},
		Footer: &BlockFooter{
			AttestorPayment: 555,
			BlockHash:       [32]byte{9},
			Signature:       [64]byte{8},
		},
	}
	raw := blk.Serialize()

	got, err := ParseBlock(raw)
	if err != nil {
		t.Fatalf("ParseBlock: %v", err)
	}
	if len(got.Transactions) != 2 {
		t.Fatalf("len(Transactions) = %d, want 2", len(got.Transactions))
	}
	if got.Transactions[1].Nonce != 7 {
		t.Fatalf("second transaction nonce not preserved")
	}
	if got.Footer == nil || got.Footer.AttestorPayment != 555 {
		t.Fatalf("footer not preserved: %+v", got.Footer)
	}
	if !bytes.Equal(got.Serialize(), raw) {
		t.Fatalf("Serialize did not round-trip")
	}
}

func TestParseBlockRejectsShortBuffer(t *testing.T) {
	if _, err := ParseBlock(make([]byte, 10)); err == nil {
		t.Fatalf("expected error for buffer too short for any layout")
	}
}

func TestParseBlockRejectsUnrecognizedVersion(t *testing.T) {
	h := sampleCurrentHeader()
	h.Version = 2
	blk := &Block{Header: h}
	raw := blk.Serialize()
	raw[64] = 2 // version byte offset: signature(64)

	if _, err := ParseBlock(raw); err == nil {
		t.Fatalf("expected error: no layout recognizes version 2")
	}
}
