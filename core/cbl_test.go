package core

import (
	"bytes"
	"testing"
)

func newTestSigner(t *testing.T) CBLSigner {
	t.Helper()
	pub, priv, err := GenerateIdentityKeys()
	if err != nil {
		t.Fatalf("GenerateIdentityKeys failed: %v", err)
	}
	return SigningMember{CreatorId: []byte("tester"), PublicKey: pub, PrivateKey: priv}
}

func TestCBLEncodeDecodeRoundTrip(t *testing.T) {
	signer := newTestSigner(t)
	crypto := DefaultCryptoProvider{}
	cbl := &CBL{
		BlockSize:       BlockSizeSmall,
		TupleSize:       3,
		OriginalDataLen: 9000,
		Addresses:       []BlockId{mkId(0x01), mkId(0x02), mkId(0x03)},
		FileName:        "report.pdf",
		MimeType:        "application/pdf",
	}
	encoded, err := Encode(cbl, signer, crypto)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(encoded) != int(BlockSizeSmall) {
		t.Fatalf("expected encoded buffer to be exactly one block, got %d", len(encoded))
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.FileName != cbl.FileName || decoded.MimeType != cbl.MimeType {
		t.Fatalf("decoded metadata mismatch: %+v", decoded)
	}
	if decoded.OriginalDataLen != cbl.OriginalDataLen || decoded.TupleSize != cbl.TupleSize {
		t.Fatalf("decoded scalar fields mismatch: %+v", decoded)
	}
	if len(decoded.Addresses) != len(cbl.Addresses) {
		t.Fatalf("decoded address count mismatch: got %d want %d", len(decoded.Addresses), len(cbl.Addresses))
	}
	for i := range cbl.Addresses {
		if decoded.Addresses[i] != cbl.Addresses[i] {
			t.Fatalf("address %d mismatch: got %x want %x", i, decoded.Addresses[i], cbl.Addresses[i])
		}
	}

	member := signer.(SigningMember)
	if !ValidateSignature(decoded, member.PublicKey, crypto) {
		t.Fatalf("expected decoded cbl's signature to verify")
	}
}

func TestCBLEncodeWithoutExtendedHeader(t *testing.T) {
	signer := newTestSigner(t)
	crypto := DefaultCryptoProvider{}
	cbl := &CBL{
		BlockSize:       BlockSizeSmall,
		TupleSize:       3,
		OriginalDataLen: 512,
		Addresses:       []BlockId{mkId(0x09)},
	}
	encoded, err := Encode(cbl, signer, crypto)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.FileName != "" || decoded.MimeType != "" {
		t.Fatalf("expected empty extended fields, got %+v", decoded)
	}
}

func TestCBLIdentitySignerProducesUnverifiableSignature(t *testing.T) {
	identity := Identity{CreatorId: []byte("anon")}
	crypto := DefaultCryptoProvider{}
	cbl := &CBL{
		BlockSize:       BlockSizeSmall,
		TupleSize:       3,
		OriginalDataLen: 100,
		Addresses:       []BlockId{mkId(0x0A)},
	}
	encoded, err := Encode(cbl, identity, crypto)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	pub, _, err := GenerateIdentityKeys()
	if err != nil {
		t.Fatalf("GenerateIdentityKeys failed: %v", err)
	}
	if ValidateSignature(decoded, pub, crypto) {
		t.Fatalf("expected a placeholder signature to never verify")
	}
}

func TestDecodeRejectsEncryptedBuffer(t *testing.T) {
	payload := append([]byte{eciesMagicByte}, bytes.Repeat([]byte{0x00}, 64)...)
	padded, err := PadWithLengthPrefix(payload, int(BlockSizeSmall))
	if err != nil {
		t.Fatalf("PadWithLengthPrefix failed: %v", err)
	}
	if _, err := Decode(padded); err == nil {
		t.Fatalf("expected CblEncrypted error for an ECIES-prefixed buffer")
	}
}

func TestDecodeRejectsBadMagicByte(t *testing.T) {
	payload := append([]byte{0xFF}, bytes.Repeat([]byte{0x00}, 64)...)
	padded, err := PadWithLengthPrefix(payload, int(BlockSizeSmall))
	if err != nil {
		t.Fatalf("PadWithLengthPrefix failed: %v", err)
	}
	if _, err := Decode(padded); err == nil {
		t.Fatalf("expected an error for an unrecognized magic byte")
	}
}

func TestValidateCBLRejectsOutOfRangeTupleSize(t *testing.T) {
	if cblMaxTupleSize != 255 {
		t.Fatalf("expected the documented tuple size ceiling of 255, got %d", cblMaxTupleSize)
	}
	cbl := &CBL{BlockSize: BlockSizeSmall, TupleSize: 2, Addresses: nil}
	if err := ValidateCBL(cbl); err == nil {
		t.Fatalf("expected validation failure for tuple size below the minimum")
	}
	// TupleSize is a uint8, so 255 is both the field's maximum representable
	// value and the documented ceiling (spec §4.7) — there's no larger value
	// to construct and reject.
	cbl.TupleSize = 255
	if err := ValidateCBL(cbl); err != nil {
		t.Fatalf("expected the maximum legal tuple size to validate: %v", err)
	}
	cbl.TupleSize = 3
	if err := ValidateCBL(cbl); err != nil {
		t.Fatalf("expected the minimum legal tuple size to validate: %v", err)
	}
}

func TestValidateCBLRejectsAddressesBeyondCapacity(t *testing.T) {
	capacity := CBLCapacity(BlockSizeMessage, 6, "", "", 3, EncryptionNone, 0)
	addrs := make([]BlockId, capacity+1)
	cbl := &CBL{BlockSize: BlockSizeMessage, TupleSize: 3, CreatorId: []byte("abcdef"), Addresses: addrs}
	if err := ValidateCBL(cbl); err == nil {
		t.Fatalf("expected validation failure when address count exceeds capacity")
	}
}

func TestValidateCBLRejectsInvalidFileName(t *testing.T) {
	cbl := &CBL{BlockSize: BlockSizeSmall, TupleSize: 3, FileName: "has/slash"}
	if err := ValidateCBL(cbl); err == nil {
		t.Fatalf("expected validation failure for a file name containing a path separator")
	}
}

func TestValidateCBLRejectsInvalidMimeType(t *testing.T) {
	cbl := &CBL{BlockSize: BlockSizeSmall, TupleSize: 3, MimeType: "not-a-mime-type"}
	if err := ValidateCBL(cbl); err == nil {
		t.Fatalf("expected validation failure for a malformed mime type")
	}
	cbl.MimeType = "application/pdf"
	if err := ValidateCBL(cbl); err != nil {
		t.Fatalf("expected a well-formed mime type to validate: %v", err)
	}
}

func TestCBLCapacityShrinksWithExtendedHeader(t *testing.T) {
	bare := CBLCapacity(BlockSizeMessage, 6, "", "", 3, EncryptionNone, 0)
	// A long enough file name/MIME type pair pushes the extended header past
	// a 32-byte (ChecksumSize) boundary so the address-count floor division
	// actually drops by at least one tuple, not just the raw byte count.
	withHeader := CBLCapacity(BlockSizeMessage, 6, "a-fairly-long-descriptive-file-name.bin", "application/octet-stream", 3, EncryptionNone, 0)
	if withHeader >= bare {
		t.Fatalf("expected extended header to reduce capacity: bare=%d withHeader=%d", bare, withHeader)
	}
}

func TestDecodeLegacyCBLv1(t *testing.T) {
	doc := []byte(`{
		"blockSize": 4096,
		"creatorId": "` + mkId(0x01).Hex() + `",
		"createdAt": 1700000000,
		"tupleSize": 3,
		"originalDataLen": 123,
		"addresses": ["` + mkId(0x02).Hex() + `", "` + mkId(0x03).Hex() + `"],
		"fileName": "legacy.txt",
		"mimeType": "text/plain"
	}`)
	cbl, err := DecodeLegacy(doc)
	if err != nil {
		t.Fatalf("DecodeLegacy failed: %v", err)
	}
	if cbl.Version != CBLv1 {
		t.Fatalf("expected CBLv1, got %v", cbl.Version)
	}
	if len(cbl.Addresses) != 2 {
		t.Fatalf("expected 2 addresses, got %d", len(cbl.Addresses))
	}
	if cbl.FileName != "legacy.txt" {
		t.Fatalf("unexpected file name: %q", cbl.FileName)
	}
}

func TestDecodeLegacyRejectsMalformedJSON(t *testing.T) {
	if _, err := DecodeLegacy([]byte("not json")); err == nil {
		t.Fatalf("expected error decoding malformed legacy document")
	}
}
