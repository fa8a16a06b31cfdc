package core

// checksum.go – checksum & crypto adapters (§4.1). Content addressing uses
// SHA3; signing uses Ed25519; symmetric AEAD uses XChaCha20-Poly1305. This
// generalizes the teacher's core/wallet.go (Ed25519 keypairs) and
// core/security.go (Sign/Verify/Encrypt/Decrypt) into a single small
// CryptoProvider, dropping the teacher's BLS/Dilithium/TLS machinery that
// has no SPEC_FULL.md component to serve (see DESIGN.md).

import (
	"crypto/ed25519"
	crand "crypto/rand"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/sha3"
)

// eciesMagicByte is the first byte of an ECIES public key; its presence as
// the first byte of a CBL buffer signals an encrypted CBL (§3, §4.7).
const eciesMagicByte byte = 0x04

// Checksum returns the SHA3-256 digest of b as a BlockId. Deterministic:
// identical inputs always hash equal (§4.1).
func Checksum(b []byte) BlockId {
	return BlockId(sha3.Sum256(b))
}

// GenerateIdentityKeys creates a fresh Ed25519 keypair for use as a CBL
// creator's signing credentials.
func GenerateIdentityKeys() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(crand.Reader)
	if err != nil {
		return nil, nil, ErrCrypto("keygen", err)
	}
	return pub, priv, nil
}

// Sign signs msg with priv. priv must be a valid (64-byte) Ed25519 private
// key; a zero-length priv is accepted and returns a zero-filled placeholder
// signature, matching the "creator without a private key still encodes"
// rule in spec.md §4.7.
func Sign(priv ed25519.PrivateKey, msg []byte) ([]byte, error) {
	if len(priv) == 0 {
		return make([]byte, ed25519.SignatureSize), nil
	}
	if len(priv) != ed25519.PrivateKeySize {
		return nil, ErrCrypto("invalid key", nil)
	}
	return ed25519.Sign(priv, msg), nil
}

// Verify reports whether sig is a valid Ed25519 signature of msg under pub.
// A zero-length pub or a placeholder (all-zero) signature always verifies
// false.
func Verify(pub ed25519.PublicKey, msg, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	if isAllZero(sig) {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// RandBytes returns n cryptographically random bytes.
func RandBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := crand.Read(buf); err != nil {
		return nil, ErrCrypto("rand", err)
	}
	return buf, nil
}

// SymmetricEncrypt seals plaintext with XChaCha20-Poly1305 under key,
// returning nonce‖ciphertext‖tag. key must be 32 bytes. This is the AEAD
// seam referenced by the `enc=1` magnet-URL flag (§4.7/§9) — callers decide
// whether and how to use it; the core never invokes it implicitly.
func SymmetricEncrypt(key, plaintext, aad []byte) ([]byte, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrCrypto("invalid key", nil)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, ErrCrypto("cipher", err)
	}
	nonce, err := RandBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, aad), nil
}

// SymmetricDecrypt opens a blob produced by SymmetricEncrypt.
func SymmetricDecrypt(key, blob, aad []byte) ([]byte, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrCrypto("invalid key", nil)
	}
	if len(blob) < chacha20poly1305.NonceSizeX {
		return nil, ErrCrypto("cipher", nil)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, ErrCrypto("cipher", err)
	}
	nonce, ct := blob[:chacha20poly1305.NonceSizeX], blob[chacha20poly1305.NonceSizeX:]
	pt, err := aead.Open(nil, nonce, ct, aad)
	if err != nil {
		return nil, ErrCrypto("cipher", err)
	}
	return pt, nil
}

//---------------------------------------------------------------------
// Identity vs SigningMember (REDESIGN FLAGS, §9)
//---------------------------------------------------------------------

// Identity is a bare creator id (bytes only, no key material). A CBL
// created for an Identity encodes with a placeholder signature and
// validateSignature always returns false for it — there is no monkey-
// patched "member" object standing in for a missing keypair, unlike the
// source's placeholder-member pattern (spec.md §9).
type Identity struct {
	CreatorId []byte
}

// SigningMember is a creator id paired with real Ed25519 credentials. CBLs
// built for a SigningMember carry a real signature that validateSignature
// can verify against PublicKey.
type SigningMember struct {
	CreatorId  []byte
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// CBLSigner is implemented by both Identity and SigningMember; the CBL
// codec accepts either without needing to know which at compile time.
type CBLSigner interface {
	creatorId() []byte
	signingKey() ed25519.PrivateKey
	verifyKey() ed25519.PublicKey
}

func (i Identity) creatorId() []byte             { return i.CreatorId }
func (i Identity) signingKey() ed25519.PrivateKey { return nil }
func (i Identity) verifyKey() ed25519.PublicKey   { return nil }

func (m SigningMember) creatorId() []byte             { return m.CreatorId }
func (m SigningMember) signingKey() ed25519.PrivateKey { return m.PrivateKey }
func (m SigningMember) verifyKey() ed25519.PublicKey   { return m.PublicKey }

//---------------------------------------------------------------------
// DefaultCryptoProvider — implements the CryptoProvider collaborator
// interface (§6) over the package-level functions above.
//---------------------------------------------------------------------

// DefaultCryptoProvider is the stock CryptoProvider implementation.
type DefaultCryptoProvider struct{}

func (DefaultCryptoProvider) Checksum(b []byte) BlockId { return Checksum(b) }

func (DefaultCryptoProvider) Sign(priv ed25519.PrivateKey, msg []byte) ([]byte, error) {
	return Sign(priv, msg)
}

func (DefaultCryptoProvider) Verify(pub ed25519.PublicKey, msg, sig []byte) bool {
	return Verify(pub, msg, sig)
}

func (DefaultCryptoProvider) RandBytes(n int) ([]byte, error) { return RandBytes(n) }

func (DefaultCryptoProvider) SymmetricEncrypt(key, plaintext, aad []byte) ([]byte, error) {
	return SymmetricEncrypt(key, plaintext, aad)
}

func (DefaultCryptoProvider) SymmetricDecrypt(key, blob, aad []byte) ([]byte, error) {
	return SymmetricDecrypt(key, blob, aad)
}
