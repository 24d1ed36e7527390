package wire

import "math/bits"

// ProofType is the two-bit discriminator packed into a state proof's
// header word.
type ProofType uint8

const (
	ProofExisting ProofType = 0
	ProofUpdating ProofType = 1
	ProofCreation ProofType = 2
)

const targetSlotMask = (uint64(1) << 62) - 1

// StateProof is a 40-byte header (proof type + target slot packed into a
// u64, followed by a 32-byte path bitset) plus a computed number of
// 32-byte hashes, derived from the bitset's population count and the
// proof type's "extra" contribution.
type StateProof struct {
	ProofType  ProofType
	TargetSlot uint64
	PathBitset [32]byte
	Hashes     [][32]byte
}

// Footprint returns the total encoded length: 40 + 32*len(Hashes), which for
// a parsed proof is 40 + 32*(popcount(bitset)+proofType).
func (p *StateProof) Footprint() int {
	return 40 + 32*len(p.Hashes)
}

func popcountBytes(b []byte) int {
	n := 0
	for _, x := range b {
		n += bits.OnesCount8(x)
	}
	return n
}

// ParseStateProof reads a state proof from the start of b, returning the
// parsed proof and the number of bytes consumed.
func ParseStateProof(b []byte) (*StateProof, int, error) {
	cur := newCursor(b)
	headerWord, err := cur.readU64LE()
	if err != nil {
		return nil, 0, err
	}
	proofType := ProofType(headerWord >> 62)
	if proofType > ProofCreation {
		return nil, 0, wireerr(ERR_STATE_INVALID, "unknown proof type %d", proofType)
	}
	targetSlot := headerWord & targetSlotMask

	bitset, err := cur.readArray32()
	if err != nil {
		return nil, 0, err
	}

	extra := popcountBytes(bitset[:]) + int(proofType)
	switch proofType {
	case ProofCreation:
		if extra < 2 {
			return nil, 0, wireerr(ERR_STATE_INVALID, "CREATION proof requires extra >= 2, got %d", extra)
		}
	case ProofUpdating:
		if extra < 1 {
			return nil, 0, wireerr(ERR_STATE_INVALID, "UPDATING proof requires extra >= 1, got %d", extra)
		}
	}

	hashes := make([][32]byte, 0, extra)
	for i := 0; i < extra; i++ {
		h, err := cur.readArray32()
		if err != nil {
			return nil, 0, err
		}
		hashes = append(hashes, h)
	}

	return &StateProof{
		ProofType:  proofType,
		TargetSlot: targetSlot,
		PathBitset: bitset,
		Hashes:     hashes,
	}, cur.pos, nil
}

// Serialize mirrors ParseStateProof byte-for-byte.
func (p *StateProof) Serialize() []byte {
	out := make([]byte, 0, p.Footprint())
	headerWord := (uint64(p.ProofType) << 62) | (p.TargetSlot & targetSlotMask)
	out = appendU64LE(out, headerWord)
	out = append(out, p.PathBitset[:]...)
	for _, h := range p.Hashes {
		out = append(out, h[:]...)
	}
	return out
}
