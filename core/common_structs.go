package core

// common_structs.go – centralised struct definitions referenced across the
// block store, CBL codec, and Super-CBL packages. Kept in one file so that
// the rest of the package can depend on a single, cycle-free source of
// shared types.

import (
	"time"
)

//---------------------------------------------------------------------
// Block sizes
//---------------------------------------------------------------------

// BlockSize is one of a finite enumerated set of fixed on-wire block sizes.
type BlockSize uint32

const (
	BlockSizeMessage BlockSize = 512
	BlockSizeTiny    BlockSize = 1024
	BlockSizeSmall   BlockSize = 4096
	BlockSizeMedium  BlockSize = 16384
	BlockSizeLarge   BlockSize = 65536
	BlockSizeHuge    BlockSize = 1048576
)

// validBlockSizes is the enumerated set; IsValidBlockSize checks membership.
var validBlockSizes = map[BlockSize]bool{
	BlockSizeMessage: true,
	BlockSizeTiny:    true,
	BlockSizeSmall:   true,
	BlockSizeMedium:  true,
	BlockSizeLarge:   true,
	BlockSizeHuge:    true,
}

// IsValidBlockSize reports whether bs is one of the enumerated sizes.
func IsValidBlockSize(bs BlockSize) bool {
	return validBlockSizes[bs]
}

//---------------------------------------------------------------------
// Checksum / BlockId
//---------------------------------------------------------------------

// ChecksumSize is the width of a SHA3 digest used as block identity.
const ChecksumSize = 32

// BlockId is the fixed-width content address of a block.
type BlockId [ChecksumSize]byte

// Hex renders the block id as lowercase hex.
func (id BlockId) Hex() string {
	return hexEncode(id[:])
}

// IsZero reports whether id is the all-zero placeholder value.
func (id BlockId) IsZero() bool {
	for _, b := range id {
		if b != 0 {
			return false
		}
	}
	return true
}

// BlockIdFromHex parses a lowercase hex string into a BlockId.
func BlockIdFromHex(s string) (BlockId, error) {
	var id BlockId
	b, err := hexDecode(s)
	if err != nil {
		return id, err
	}
	if len(b) != ChecksumSize {
		return id, ErrValidationFailed("block id must be 32 bytes")
	}
	copy(id[:], b)
	return id, nil
}

//---------------------------------------------------------------------
// BlockType / DataType
//---------------------------------------------------------------------

// BlockType discriminates the logical role of a stored block.
type BlockType uint8

const (
	BlockTypeRaw BlockType = iota
	BlockTypeRandomizer
	BlockTypeWhitened
	BlockTypeCBL
	BlockTypeParity
)

// DataType discriminates the payload carried by a raw block, independent of
// its BlockType.
type DataType uint8

const (
	DataTypeUnknown DataType = iota
	DataTypeFileChunk
	DataTypeManifest
	DataTypeTupleComponent
)

//---------------------------------------------------------------------
// RawDataBlock
//---------------------------------------------------------------------

// RawDataBlock is a fixed-size, content-addressed block: Bytes has exactly
// BlockSize bytes and IdChecksum is always SHA3(Bytes).
type RawDataBlock struct {
	BlockSize  BlockSize
	Bytes      []byte
	CreatedAt  time.Time
	IdChecksum BlockId
	BlockType  BlockType
	DataType   DataType
}

// NewRawDataBlock validates len(bytes)==int(size), computes the checksum,
// and returns the block. The caller's slice is copied defensively.
func NewRawDataBlock(size BlockSize, bytes []byte, bt BlockType, dt DataType) (*RawDataBlock, error) {
	if len(bytes) != int(size) {
		return nil, ErrValidationFailed("block payload length mismatch")
	}
	buf := make([]byte, len(bytes))
	copy(buf, bytes)
	return &RawDataBlock{
		BlockSize:  size,
		Bytes:      buf,
		CreatedAt:  time.Now(),
		IdChecksum: Checksum(buf),
		BlockType:  bt,
		DataType:   dt,
	}, nil
}

//---------------------------------------------------------------------
// Durability / replication
//---------------------------------------------------------------------

// DurabilityLevel is a policy knob mapping to a target parity-shard count.
type DurabilityLevel uint8

const (
	DurabilityEphemeral DurabilityLevel = iota
	DurabilityStandard
	DurabilityHigh
	DurabilityCritical
)

// parityCounts maps each DurabilityLevel to its parity-shard count.
var parityCounts = map[DurabilityLevel]int{
	DurabilityEphemeral: 0,
	DurabilityStandard:  1,
	DurabilityHigh:      3,
	DurabilityCritical:  6,
}

// ParityCount returns the number of parity shards a durability level implies.
func ParityCount(d DurabilityLevel) int {
	return parityCounts[d]
}

// ReplicationStatus tracks a block's replication progress relative to its
// target replication factor.
type ReplicationStatus uint8

const (
	ReplicationPending ReplicationStatus = iota
	ReplicationUnderReplicated
	ReplicationReplicated
	ReplicationLost
)

//---------------------------------------------------------------------
// BlockMetadata
//---------------------------------------------------------------------

// BlockMetadata is the side record tracked 1:1 with a stored block.
type BlockMetadata struct {
	BlockId                 BlockId
	CreatedAt               time.Time
	ExpiresAt               *time.Time
	DurabilityLevel         DurabilityLevel
	ParityBlockIds          []BlockId
	AccessCount             uint64
	LastAccessedAt          time.Time
	ReplicationStatus       ReplicationStatus
	TargetReplicationFactor int
	ReplicaNodeIds          []string
	Size                    int
	Checksum                BlockId
	PoolId                  string
	// CorrelationId is a session-scoped id minted once when the record is
	// created and attached as the correlation_id field of the store/restore
	// log line and of a parity-generation failure warning, so those lines
	// can be tied together without re-deriving BlockId's hex each time.
	// Replication bookkeeping does not log it.
	CorrelationId string
}

// clone returns a deep copy so callers cannot mutate store-owned state
// through a returned pointer.
func (m *BlockMetadata) clone() *BlockMetadata {
	if m == nil {
		return nil
	}
	out := *m
	if m.ExpiresAt != nil {
		t := *m.ExpiresAt
		out.ExpiresAt = &t
	}
	out.ParityBlockIds = append([]BlockId(nil), m.ParityBlockIds...)
	out.ReplicaNodeIds = append([]string(nil), m.ReplicaNodeIds...)
	return &out
}

// BlockMetadataUpdate carries a partial update to apply to a BlockMetadata
// record; nil fields are left unchanged.
type BlockMetadataUpdate struct {
	ExpiresAt               **time.Time
	DurabilityLevel         *DurabilityLevel
	ParityBlockIds          *[]BlockId
	ReplicationStatus       *ReplicationStatus
	TargetReplicationFactor *int
	ReplicaNodeIds          *[]string
}

//---------------------------------------------------------------------
// PutOptions
//---------------------------------------------------------------------

// PutOptions customizes metadata defaults applied by BlockStore.Put/SetData.
type PutOptions struct {
	DurabilityLevel         DurabilityLevel
	TargetReplicationFactor int
	ExpiresAt               *time.Time
	PoolId                  string
}

//---------------------------------------------------------------------
// ParityShard
//---------------------------------------------------------------------

// ParityShard is a single Reed-Solomon parity shard for a block.
type ParityShard struct {
	Data       []byte
	Index      int
	ForBlockId BlockId
}

//---------------------------------------------------------------------
// Magnet URL data
//---------------------------------------------------------------------

// TupleMagnet is the decoded form of a `xt=urn:brightchain:tuple` magnet URL.
type TupleMagnet struct {
	DataBlockId          BlockId
	RandomizerBlockIds   [2]BlockId
	BlockSize            BlockSize
	DataParityIds        []BlockId
	Randomizer1ParityIds []BlockId
	Randomizer2ParityIds []BlockId
}

// CBLMagnet is the decoded form of a `xt=urn:brightchain:cbl` magnet URL.
type CBLMagnet struct {
	BlockSize       BlockSize
	Block1Id        BlockId
	Block2Id        BlockId
	Block1ParityIds []BlockId
	Block2ParityIds []BlockId
	Encrypted       bool
}

//---------------------------------------------------------------------
// Brighten result
//---------------------------------------------------------------------

// BrightenResult is returned by BlockStore.BrightenBlock.
type BrightenResult struct {
	BrightenedBlockId BlockId
	RandomBlockIds    []BlockId
	OriginalBlockId   BlockId
}

//---------------------------------------------------------------------
// Tuple / whitening results
//---------------------------------------------------------------------

// TupleStoreResult is returned by TupleService.Store.
type TupleStoreResult struct {
	DataBlockId        BlockId
	RandomizerBlockIds [2]BlockId
	MagnetUrl          string
	ParityBlockIds     map[BlockId][]BlockId
}

// CBLWhitenResult is returned by CBLWhitener.Store.
type CBLWhitenResult struct {
	BlockId1        BlockId
	BlockId2        BlockId
	BlockSize       BlockSize
	MagnetUrl       string
	Block1ParityIds []BlockId
	Block2ParityIds []BlockId
	IsEncrypted     bool
}
