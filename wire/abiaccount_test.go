package wire

import (
	"bytes"
	"testing"
)

func TestParseABIAccountContainerRoundTrip(t *testing.T) {
	c := &ABIAccountContainer{
		MetaAccount: [32]byte{9, 9, 9},
		Revision:    7,
		State:       ABIAccountFinalized,
		Content:     `{"kind":"struct","fields":[]}`,
	}
	raw := c.Serialize()

	got, err := ParseABIAccountContainer(raw)
	if err != nil {
		t.Fatalf("ParseABIAccountContainer: %v", err)
	}
	if got.MetaAccount != c.MetaAccount || got.Revision != c.Revision || got.State != c.State || got.Content != c.Content {
		t.Fatalf("got %+v, want %+v", got, c)
	}
	if !bytes.Equal(got.Serialize(), raw) {
		t.Fatalf("Serialize did not round-trip")
	}
}

func TestParseABIAccountContainerRejectsInvalidState(t *testing.T) {
	c := &ABIAccountContainer{State: ABIAccountOpen, Content: "x"}
	raw := c.Serialize()
	raw[40] = 7 // state byte offset: 32 (meta) + 8 (revision)

	if _, err := ParseABIAccountContainer(raw); err == nil {
		t.Fatalf("expected error for invalid state byte")
	}
}

func TestParseABIAccountContainerRejectsOversizedContentLength(t *testing.T) {
	c := &ABIAccountContainer{Content: "ab"}
	raw := c.Serialize()
	// content_size field is at offset 32+8+1 = 41, little-endian u32.
	raw[41] = 0xff
	raw[42] = 0xff

	if _, err := ParseABIAccountContainer(raw); err == nil {
		t.Fatalf("expected error for content_size exceeding remaining bytes")
	}
}

func TestParseABIAccountContainerRejectsTruncatedHeader(t *testing.T) {
	if _, err := ParseABIAccountContainer(make([]byte, 10)); err == nil {
		t.Fatalf("expected error for truncated header")
	}
}
