package wire

const abiAccountHeaderLen = 45

// ABIAccountState is the finalization state of an ABI account container.
type ABIAccountState uint8

const (
	ABIAccountOpen      ABIAccountState = 0
	ABIAccountFinalized ABIAccountState = 1
)

// ABIAccountContainer is a 45-byte header (meta-account address, revision,
// state, content size) preceding UTF-8 ABI document content.
type ABIAccountContainer struct {
	MetaAccount [32]byte
	Revision    uint64
	State       ABIAccountState
	Content     string
}

// ParseABIAccountContainer validates and parses an ABI account container.
func ParseABIAccountContainer(b []byte) (*ABIAccountContainer, error) {
	if len(b) < abiAccountHeaderLen {
		return nil, wireerr(ERR_PARSE, "abi account container: need at least %d bytes, have %d", abiAccountHeaderLen, len(b))
	}
	cur := newCursor(b)
	metaAccount, err := cur.readArray32()
	if err != nil {
		return nil, err
	}
	revision, err := cur.readU64LE()
	if err != nil {
		return nil, err
	}
	stateByte, err := cur.readU8()
	if err != nil {
		return nil, err
	}
	if stateByte != uint8(ABIAccountOpen) && stateByte != uint8(ABIAccountFinalized) {
		return nil, wireerr(ERR_STATE_INVALID, "abi account container: invalid state %d", stateByte)
	}
	contentSize, err := cur.readU32LE()
	if err != nil {
		return nil, err
	}
	if int(contentSize) > cur.remaining() {
		return nil, wireerr(ERR_SIZE_INVALID, "abi account container: content_size %d exceeds remaining %d bytes", contentSize, cur.remaining())
	}
	contentBytes, err := cur.readExact(int(contentSize))
	if err != nil {
		return nil, err
	}
	return &ABIAccountContainer{
		MetaAccount: metaAccount,
		Revision:    revision,
		State:       ABIAccountState(stateByte),
		Content:     string(contentBytes),
	}, nil
}

// Serialize mirrors ParseABIAccountContainer byte-for-byte.
func (a *ABIAccountContainer) Serialize() []byte {
	out := make([]byte, 0, abiAccountHeaderLen+len(a.Content))
	out = append(out, a.MetaAccount[:]...)
	out = appendU64LE(out, a.Revision)
	out = append(out, byte(a.State))
	out = appendU32LE(out, uint32(len(a.Content)))
	out = append(out, a.Content...)
	return out
}
