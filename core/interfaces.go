package core

import (
	"crypto/ed25519"
	"time"
)

// interfaces.go – the collaborator interfaces the core speaks to (§6).
// Collaborators are passed explicitly as constructor arguments
// (NewBlockStore(persistence, metadata, crypto, fec, logger)); the stock
// implementations are InMemoryBlockPersistence (over internal/memstore),
// BlockMetadataStore and DefaultCryptoProvider. No FecProvider
// implementation ships: the CLI passes a nil fec, and parity work calls
// this package's Reed-Solomon functions directly. This replaces the
// teacher's process-wide service registry (see DESIGN.md, "Singleton
// service provider").

// BlockPersistence is the abstract block-storage collaborator. Disk-backed
// implementations may serialize writes and parallelize reads per spec.md §5;
// the in-memory implementation used by this repo's tests and CLI is
// synchronous throughout.
type BlockPersistence interface {
	Put(id BlockId, data []byte) error
	Get(id BlockId) ([]byte, error)
	Has(id BlockId) bool
	Delete(id BlockId) error
	IterateIds() []BlockId
	Len() int
}

// MetadataPersistence is the abstract metadata-storage collaborator,
// mirroring BlockPersistence's shape over BlockMetadata records.
type MetadataPersistence interface {
	Create(m *BlockMetadata) error
	Get(id BlockId) (*BlockMetadata, error)
	Update(id BlockId, upd BlockMetadataUpdate) error
	Delete(id BlockId) error
	RecordAccess(id BlockId) error
	FindExpired(now time.Time) []*BlockMetadata
	FindByReplicationStatus(status ReplicationStatus) []*BlockMetadata
}

// CryptoProvider bundles the cryptographic primitives the core depends on
// (§4.1): content-addressing hash, sign/verify, CSPRNG, and the AEAD pair
// used by CBL encryption.
type CryptoProvider interface {
	Checksum(b []byte) BlockId
	Sign(priv ed25519.PrivateKey, msg []byte) ([]byte, error)
	Verify(pub ed25519.PublicKey, msg, sig []byte) bool
	RandBytes(n int) ([]byte, error)
	SymmetricEncrypt(key, plaintext, aad []byte) ([]byte, error)
	SymmetricDecrypt(key, blob, aad []byte) ([]byte, error)
}

// FecProvider is the forward-error-correction collaborator (§4.3).
type FecProvider interface {
	Encode(data []byte, shardSize, dataShards, parityShards int, padded bool) ([]byte, error)
	Decode(shards [][]byte, shardSize, dataShards, parityShards int, available []bool) ([]byte, error)
}
