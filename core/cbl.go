package core

// cbl.go – the Constituent Block List codec (§4.7): a signed binary manifest
// that lists the block addresses making up a file, plus an optional extended
// header carrying the original file name and MIME type. The wire format is a
// flat byte layout (magic, version, flags, fixed fields, variable fields,
// trailing Ed25519 signature) in the same spirit as the teacher's
// ledger.go WAL record encoding: every field has a fixed or length-prefixed
// slot, nothing is self-describing beyond that.

import (
	"crypto/ed25519"
	"encoding/json"
	"regexp"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
)

// CBLVersion discriminates the wire format of an encoded CBL buffer.
type CBLVersion uint8

const (
	// CBLv1 is the legacy JSON-encoded manifest format (§4.7 "legacy
	// variant"), kept readable for backward compatibility only — new CBLs
	// are always written as CBLv2.
	CBLv1 CBLVersion = 1
	// CBLv2 is the current signed binary format.
	CBLv2 CBLVersion = 2
)

const (
	cblMagicByte          byte = 0xCB
	cblMaxFileNameLen          = 255
	cblMaxMimeTypeLen          = 255
	cblMinTupleSize            = 3
	cblMaxTupleSize            = 255
	cblMaxOriginalDataLen      = 1 << 48

	flagHasExtended byte = 1 << 0
	flagEncrypted   byte = 1 << 1
)

// Capacity overhead for the CBL's encryption modes (§4.7 capacity formula).
// eciesEphemeralKeySize is an X25519 ephemeral public key; aeadOverhead is
// SymmetricEncrypt's XChaCha20-Poly1305 nonce plus authentication tag — the
// same AEAD checksum.go wires for the `enc=1` seam, so a single-recipient
// envelope and one recipient's wrapped-key entry both cost one ephemeral key
// plus one AEAD overhead.
const (
	eciesEphemeralKeySize = 32
	aeadOverhead          = chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	eciesOverhead         = eciesEphemeralKeySize + aeadOverhead
	perRecipientOverhead  = eciesEphemeralKeySize + aeadOverhead
	recipientListOverhead = 2 // recipient count, u16
)

// EncryptionMode selects the overhead CBLCapacity reserves for an encrypted
// CBL's recipient envelope(s) (§4.7 capacity).
type EncryptionMode int

const (
	// EncryptionNone reserves no recipient-envelope overhead.
	EncryptionNone EncryptionMode = iota
	// EncryptionSingleRecipient reserves a single ECIES envelope.
	EncryptionSingleRecipient
	// EncryptionMultiRecipient reserves one wrapped-key envelope per
	// recipient plus a small recipient-count field.
	EncryptionMultiRecipient
)

var (
	fileNamePattern = regexp.MustCompile(`^[\w.\- ]{1,255}$`)
	mimeTypePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9!#$&^_.+-]*/[a-zA-Z0-9][a-zA-Z0-9!#$&^_.+-]*$`)
)

// CBL is a decoded Constituent Block List manifest.
type CBL struct {
	Version         CBLVersion
	BlockSize       BlockSize
	CreatorId       []byte
	CreatedAt       time.Time
	TupleSize       uint8
	OriginalDataLen uint64
	Addresses       []BlockId
	FileName        string
	MimeType        string
	Encrypted       bool
	EncryptionMode  EncryptionMode
	RecipientCount  int
	Signature       []byte
}

func cblBaseHeaderSize(creatorIdLen int) int {
	// magic(1) + version(1) + flags(1) + tupleSize(1) + originalDataLen(8) +
	// createdAt(8) + addressCount(4) + creatorIdLen(1) + creatorId(n)
	return 1 + 1 + 1 + 1 + 8 + 8 + 4 + 1 + creatorIdLen
}

func cblExtendedHeaderSize(fileName, mimeType string) int {
	return 1 + len(fileName) + 1 + len(mimeType)
}

// CBLCapacity returns the maximum number of block addresses that fit in a
// CBL of blockSize bytes, given the creator id length, the (possibly empty)
// extended-header fields that will accompany the manifest, the tupleSize the
// address count must be a multiple of, and the encryption mode (and, for
// EncryptionMultiRecipient, the recipient count) whose envelope(s) eat into
// the available space (§4.7 capacity). The result is floored at 0: below 4
// addresses is "this block cannot hold a valid CBL of this shape," per spec.
func CBLCapacity(blockSize BlockSize, creatorIdLen int, fileName, mimeType string, tupleSize uint8, mode EncryptionMode, recipientCount int) int {
	overhead := cblBaseHeaderSize(creatorIdLen) + 4 /* blockSize field */ + ed25519.SignatureSize
	if fileName != "" || mimeType != "" {
		overhead += cblExtendedHeaderSize(fileName, mimeType)
	}
	switch mode {
	case EncryptionSingleRecipient:
		overhead += eciesOverhead
	case EncryptionMultiRecipient:
		overhead += perRecipientOverhead*recipientCount + recipientListOverhead
	}
	avail := int(blockSize) - overhead
	if avail <= 0 {
		return 0
	}

	ts := int(tupleSize)
	if ts < 1 {
		ts = 1
	}
	addrCap := avail / ChecksumSize
	addrCap -= addrCap % ts
	if addrCap < 4 {
		return 0
	}
	return addrCap
}

// Encode serializes cbl into a blockSize-sized buffer, signed by signer. The
// signature covers the base header, the extended header (if present), the
// big-endian block size, and the address list — never the signature field
// itself. A signer with no private key (an Identity) produces a zero-filled
// placeholder signature per Sign's documented behavior.
func Encode(cbl *CBL, signer CBLSigner, crypto CryptoProvider) ([]byte, error) {
	cbl.CreatorId = signer.creatorId()
	cbl.Version = CBLv2
	if err := ValidateCBL(cbl); err != nil {
		return nil, err
	}
	signMsg := cblSignedMessage(cbl)
	sig, err := crypto.Sign(signer.signingKey(), signMsg)
	if err != nil {
		return nil, ErrCrypto("cbl sign", err)
	}

	unpadded := concatBytes(signMsg, sig)
	return PadWithLengthPrefix(unpadded, int(cbl.BlockSize))
}

// Decode parses a blockSize-assumed buffer back into a CBL. If the first
// byte is the ECIES magic byte instead of the CBL magic byte, the buffer is
// an encrypted CBL and CblEncrypted is returned without further parsing
// (§3, §4.7 — decrypt externally via CryptoProvider.SymmetricDecrypt, then
// Decode the plaintext).
func Decode(padded []byte) (*CBL, error) {
	buf, err := UnpadLengthPrefix(padded)
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, ErrInvalidCBLFormat("empty buffer")
	}
	if buf[0] == eciesMagicByte {
		return nil, ErrCblEncrypted()
	}
	if buf[0] != cblMagicByte {
		return nil, ErrInvalidCBLFormat("bad magic byte")
	}
	if len(buf) < 4 {
		return nil, ErrInvalidCBLFormat("truncated header")
	}
	version := CBLVersion(buf[1])
	if version != CBLv2 {
		return nil, ErrInvalidCBLFormat("unsupported cbl version " + uintToString(uint64(version)))
	}
	flags := buf[2]
	hasExtended := flags&flagHasExtended != 0
	encrypted := flags&flagEncrypted != 0
	tupleSize := buf[3]

	off := 4
	if len(buf) < off+8+8+4+1 {
		return nil, ErrInvalidCBLFormat("truncated base header")
	}
	originalDataLen := Uint64(buf, off)
	off += 8
	createdAt := time.Unix(int64(Uint64(buf, off)), 0).UTC()
	off += 8
	addressCount := Uint32(buf, off)
	off += 4
	creatorIdLen := int(buf[off])
	off++
	if len(buf) < off+creatorIdLen {
		return nil, ErrInvalidCBLFormat("truncated creator id")
	}
	creatorId := append([]byte(nil), buf[off:off+creatorIdLen]...)
	off += creatorIdLen

	var fileName, mimeType string
	if hasExtended {
		if len(buf) < off+1 {
			return nil, ErrInvalidCBLFormat("truncated extended header")
		}
		fnLen := int(buf[off])
		off++
		if len(buf) < off+fnLen+1 {
			return nil, ErrInvalidCBLFormat("truncated file name")
		}
		fileName = string(buf[off : off+fnLen])
		off += fnLen
		mtLen := int(buf[off])
		off++
		if len(buf) < off+mtLen {
			return nil, ErrInvalidCBLFormat("truncated mime type")
		}
		mimeType = string(buf[off : off+mtLen])
		off += mtLen
	}

	if len(buf) < off+4 {
		return nil, ErrInvalidCBLFormat("truncated block size field")
	}
	blockSize := BlockSize(Uint32(buf, off))
	off += 4

	addressListLen := int(addressCount) * ChecksumSize
	if len(buf) < off+addressListLen {
		return nil, ErrBlockCountMismatch(int(addressCount), (len(buf)-off)/ChecksumSize)
	}
	addresses := make([]BlockId, addressCount)
	for i := 0; i < int(addressCount); i++ {
		copy(addresses[i][:], buf[off:off+ChecksumSize])
		off += ChecksumSize
	}

	if len(buf) < off+ed25519.SignatureSize {
		return nil, ErrInvalidCBLFormat("truncated signature")
	}
	signature := append([]byte(nil), buf[off:off+ed25519.SignatureSize]...)

	cbl := &CBL{
		Version:         version,
		BlockSize:       blockSize,
		CreatorId:       creatorId,
		CreatedAt:       createdAt,
		TupleSize:       tupleSize,
		OriginalDataLen: originalDataLen,
		Addresses:       addresses,
		FileName:        fileName,
		MimeType:        mimeType,
		Encrypted:       encrypted,
		Signature:       signature,
	}
	if err := ValidateCBL(cbl); err != nil {
		return nil, err
	}
	return cbl, nil
}

// ValidateSignature recomputes the signed message from cbl's own fields
// (deterministic given Encode's canonical layout) and verifies it against
// cbl.Signature under pub.
func ValidateSignature(cbl *CBL, pub ed25519.PublicKey, crypto CryptoProvider) bool {
	return crypto.Verify(pub, cblSignedMessage(cbl), cbl.Signature)
}

// cblSignedMessage rebuilds the canonical byte sequence Encode signs: the
// base header, the extended header (if either FileName or MimeType is set),
// the big-endian block size, and the flat address list. Deterministic given
// cbl's fields, so Decode's parsed result reproduces exactly the bytes
// Encode originally signed.
func cblSignedMessage(cbl *CBL) []byte {
	hasExtended := cbl.FileName != "" || cbl.MimeType != ""

	base := make([]byte, 0, cblBaseHeaderSize(len(cbl.CreatorId)))
	base = append(base, cblMagicByte, byte(cbl.Version), cblFlags(hasExtended, cbl.Encrypted), cbl.TupleSize)
	base = appendUint64(base, cbl.OriginalDataLen)
	base = appendUint64(base, uint64(cbl.CreatedAt.Unix()))
	base = appendUint32(base, uint32(len(cbl.Addresses)))
	base = append(base, byte(len(cbl.CreatorId)))
	base = append(base, cbl.CreatorId...)

	var extended []byte
	if hasExtended {
		extended = append(extended, byte(len(cbl.FileName)))
		extended = append(extended, []byte(cbl.FileName)...)
		extended = append(extended, byte(len(cbl.MimeType)))
		extended = append(extended, []byte(cbl.MimeType)...)
	}

	blockSizeField := make([]byte, 4)
	PutUint32(blockSizeField, 0, uint32(cbl.BlockSize))

	addressList := make([]byte, 0, len(cbl.Addresses)*ChecksumSize)
	for _, a := range cbl.Addresses {
		addressList = append(addressList, a[:]...)
	}

	return concatBytes(base, extended, blockSizeField, addressList)
}

// ValidateCBL checks the structural invariants a CBL must satisfy
// independent of its signature: field-length caps, tuple-size range, and
// address-count-vs-capacity (§4.7 edge cases).
func ValidateCBL(cbl *CBL) error {
	if !IsValidBlockSize(cbl.BlockSize) {
		return ErrCblInvalidField("blockSize", "not a valid block size")
	}
	if cbl.TupleSize < cblMinTupleSize || cbl.TupleSize > cblMaxTupleSize {
		return ErrCblInvalidField("tupleSize", "out of range")
	}
	if cbl.OriginalDataLen > cblMaxOriginalDataLen {
		return ErrCblInvalidField("originalDataLen", "exceeds maximum")
	}
	if cbl.FileName != "" {
		if len(cbl.FileName) > cblMaxFileNameLen || !fileNamePattern.MatchString(cbl.FileName) {
			return ErrCblInvalidField("fileName", "invalid characters or length")
		}
	}
	if cbl.MimeType != "" {
		if len(cbl.MimeType) > cblMaxMimeTypeLen || !mimeTypePattern.MatchString(cbl.MimeType) {
			return ErrCblInvalidField("mimeType", "invalid format or length")
		}
	}
	capacity := CBLCapacity(cbl.BlockSize, len(cbl.CreatorId), cbl.FileName, cbl.MimeType, cbl.TupleSize, cbl.EncryptionMode, cbl.RecipientCount)
	if len(cbl.Addresses) > capacity {
		return ErrCblInvalidField("addresses", "exceeds block capacity")
	}
	return nil
}

func cblFlags(hasExtended, encrypted bool) byte {
	var f byte
	if hasExtended {
		f |= flagHasExtended
	}
	if encrypted {
		f |= flagEncrypted
	}
	return f
}

func appendUint64(buf []byte, v uint64) []byte {
	tmp := make([]byte, 8)
	PutUint64(tmp, 0, v)
	return append(buf, tmp...)
}

func appendUint32(buf []byte, v uint32) []byte {
	tmp := make([]byte, 4)
	PutUint32(tmp, 0, v)
	return append(buf, tmp...)
}

func concatBytes(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

//---------------------------------------------------------------------
// Legacy CBLv1 (§4.7 legacy variant) — JSON, unsigned, kept decode-only.
//---------------------------------------------------------------------

type cblV1Document struct {
	BlockSize       uint32   `json:"blockSize"`
	CreatorId       string   `json:"creatorId"`
	CreatedAt       int64    `json:"createdAt"`
	TupleSize       uint8    `json:"tupleSize"`
	OriginalDataLen uint64   `json:"originalDataLen"`
	Addresses       []string `json:"addresses"`
	FileName        string   `json:"fileName,omitempty"`
	MimeType        string   `json:"mimeType,omitempty"`
}

// DecodeLegacy parses a CBLv1 JSON document. CBLv1 carried no signature;
// callers should treat a legacy CBL as unauthenticated.
func DecodeLegacy(buf []byte) (*CBL, error) {
	var doc cblV1Document
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, ErrInvalidCBLFormat("malformed legacy document: " + err.Error())
	}
	addresses := make([]BlockId, len(doc.Addresses))
	for i, hexId := range doc.Addresses {
		id, err := BlockIdFromHex(hexId)
		if err != nil {
			return nil, ErrInvalidCBLFormat("malformed legacy address")
		}
		addresses[i] = id
	}
	creatorId, err := hexDecode(doc.CreatorId)
	if err != nil {
		return nil, ErrInvalidCBLFormat("malformed legacy creator id")
	}
	cbl := &CBL{
		Version:         CBLv1,
		BlockSize:       BlockSize(doc.BlockSize),
		CreatorId:       creatorId,
		CreatedAt:       time.Unix(doc.CreatedAt, 0).UTC(),
		TupleSize:       doc.TupleSize,
		OriginalDataLen: doc.OriginalDataLen,
		Addresses:       addresses,
		FileName:        doc.FileName,
		MimeType:        doc.MimeType,
	}
	return cbl, nil
}
