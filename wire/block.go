package wire

import "encoding/binary"

const (
	blockHeaderLenCurrent = 168
	blockHeaderLenLegacy  = 160
	blockFooterLen        = 104
	blockHeaderPadding    = 5
)

// BlockHeader is a block's fixed-layout header. Two wire layouts exist:
// current (168 bytes, carrying a weight-slot) and legacy (160 bytes,
// without it) — they are otherwise field-for-field identical, including
// the 5-byte padding after the version byte (spec §9 open question,
// resolved in favor of the reading consistent with the stated header
// lengths: 168 current minus the 8-byte weight-slot equals 160 legacy).
type BlockHeader struct {
	Signature         [64]byte
	Version           uint8
	ChainID           uint16
	ProducerPubkey    [32]byte
	BondAmountLockup  uint64
	ExpiryTimestampNs uint64
	StartSlot         uint64
	ExpiryAfter       uint32
	MaxBlockSize      uint32
	MaxComputeUnits   uint64
	MaxStateUnits     uint32
	HasWeightSlot     bool
	WeightSlot        uint64
	BlockTimeNs       uint64
	Legacy            bool
}

// BlockFooter is the 104-byte trailer present on a finalized block.
type BlockFooter struct {
	AttestorPayment uint64
	BlockHash       [32]byte
	Signature       [64]byte
}

// Block is a parsed block: header, the transactions between header and
// footer, and an optional footer.
type Block struct {
	Header       BlockHeader
	Transactions []*Transaction
	Footer       *BlockFooter
}

func blockHeaderLen(legacy bool) int {
	if legacy {
		return blockHeaderLenLegacy
	}
	return blockHeaderLenCurrent
}

func parseBlockHeader(b []byte, legacy bool) (BlockHeader, error) {
	cur := newCursor(b)
	var h BlockHeader

	sig, err := cur.readArray64()
	if err != nil {
		return h, err
	}
	h.Signature = sig

	h.Version, err = cur.readU8()
	if err != nil {
		return h, err
	}
	if h.Version != 1 {
		return h, wireerr(ERR_VERSION_INVALID, "block version %d != 1", h.Version)
	}

	if _, err := cur.readExact(blockHeaderPadding); err != nil {
		return h, err
	}
	h.ChainID, err = cur.readU16LE()
	if err != nil {
		return h, err
	}
	h.ProducerPubkey, err = cur.readArray32()
	if err != nil {
		return h, err
	}
	h.BondAmountLockup, err = cur.readU64LE()
	if err != nil {
		return h, err
	}
	h.ExpiryTimestampNs, err = cur.readU64LE()
	if err != nil {
		return h, err
	}
	h.StartSlot, err = cur.readU64LE()
	if err != nil {
		return h, err
	}
	h.ExpiryAfter, err = cur.readU32LE()
	if err != nil {
		return h, err
	}
	h.MaxBlockSize, err = cur.readU32LE()
	if err != nil {
		return h, err
	}
	h.MaxComputeUnits, err = cur.readU64LE()
	if err != nil {
		return h, err
	}
	h.MaxStateUnits, err = cur.readU32LE()
	if err != nil {
		return h, err
	}
	if _, err := cur.readExact(4); err != nil { // reserved
		return h, err
	}
	if !legacy {
		h.WeightSlot, err = cur.readU64LE()
		if err != nil {
			return h, err
		}
		h.HasWeightSlot = true
	}
	h.BlockTimeNs, err = cur.readU64LE()
	if err != nil {
		return h, err
	}
	h.Legacy = legacy
	return h, nil
}

// bodyHeuristicOK implements spec §4.5's guard against misinterpreting a
// legacy-format block as current-format: it peeks the would-be first
// transaction's account counts and instruction-data size at their fixed
// offsets and requires them to describe a plausible transaction that
// fits within the remaining buffer.
func bodyHeuristicOK(b []byte, hdrLen int) bool {
	body := b[hdrLen:]
	const rwCountOff = 66 // signature(64) + version(1) + flags(1)
	if len(body) < rwCountOff+6 {
		// Too little remains to peek a transaction header; nothing to
		// reject this layout on (an empty or footer-only body is valid).
		return true
	}
	rwCount := binary.LittleEndian.Uint16(body[rwCountOff : rwCountOff+2])
	roCount := binary.LittleEndian.Uint16(body[rwCountOff+2 : rwCountOff+4])
	instrSize := binary.LittleEndian.Uint16(body[rwCountOff+4 : rwCountOff+6])
	total := int(rwCount) + int(roCount)
	if total > maxTotalAccounts {
		return false
	}
	minSize := txFixedPrefixLen + 32*total + int(instrSize)
	return minSize <= len(body)
}

// parseBlockBody greedily parses lenient transactions from body, stopping
// as soon as fewer than the minimum transaction size remain or a
// transaction fails to parse — the remainder is assumed to be footer or
// padding, per spec §4.5.
func parseBlockBody(body []byte) ([]*Transaction, int) {
	var txs []*Transaction
	off := 0
	for len(body)-off >= txFixedPrefixLen {
		tx, n, err := ParseTxWire(body[off:])
		if err != nil {
			break
		}
		txs = append(txs, tx)
		off += n
	}
	return txs, off
}

func parseBlockFooter(b []byte) (BlockFooter, error) {
	cur := newCursor(b)
	var f BlockFooter
	var err error
	f.AttestorPayment, err = cur.readU64LE()
	if err != nil {
		return f, err
	}
	f.BlockHash, err = cur.readArray32()
	if err != nil {
		return f, err
	}
	f.Signature, err = cur.readArray64()
	if err != nil {
		return f, err
	}
	return f, nil
}

// ParseBlock tries the current header layout, then the legacy one,
// accepting the first that both parses structurally and passes the body
// heuristic.
func ParseBlock(b []byte) (*Block, error) {
	for _, legacy := range [...]bool{false, true} {
		hdrLen := blockHeaderLen(legacy)
		if len(b) < hdrLen {
			continue
		}
		hdr, err := parseBlockHeader(b[:hdrLen], legacy)
		if err != nil {
			continue
		}
		if !bodyHeuristicOK(b, hdrLen) {
			continue
		}
		txs, consumed := parseBlockBody(b[hdrLen:])
		bodyEnd := hdrLen + consumed

		var footer *BlockFooter
		if len(b)-bodyEnd >= blockFooterLen {
			f, err := parseBlockFooter(b[bodyEnd : bodyEnd+blockFooterLen])
			if err != nil {
				return nil, err
			}
			footer = &f
		}
		return &Block{Header: hdr, Transactions: txs, Footer: footer}, nil
	}
	return nil, wireerr(ERR_PARSE, "block: no header layout matched")
}

// Serialize mirrors ParseBlock byte-for-byte.
func (blk *Block) Serialize() []byte {
	h := blk.Header
	out := make([]byte, 0, blockHeaderLenCurrent)
	out = append(out, h.Signature[:]...)
	out = append(out, h.Version)
	out = append(out, make([]byte, blockHeaderPadding)...)
	out = appendU16LE(out, h.ChainID)
	out = append(out, h.ProducerPubkey[:]...)
	out = appendU64LE(out, h.BondAmountLockup)
	out = appendU64LE(out, h.ExpiryTimestampNs)
	out = appendU64LE(out, h.StartSlot)
	out = appendU32LE(out, h.ExpiryAfter)
	out = appendU32LE(out, h.MaxBlockSize)
	out = appendU64LE(out, h.MaxComputeUnits)
	out = appendU32LE(out, h.MaxStateUnits)
	out = append(out, make([]byte, 4)...)
	if h.HasWeightSlot {
		out = appendU64LE(out, h.WeightSlot)
	}
	out = appendU64LE(out, h.BlockTimeNs)

	for _, tx := range blk.Transactions {
		out = append(out, tx.Serialize()...)
	}
	if blk.Footer != nil {
		out = appendU64LE(out, blk.Footer.AttestorPayment)
		out = append(out, blk.Footer.BlockHash[:]...)
		out = append(out, blk.Footer.Signature[:]...)
	}
	return out
}
