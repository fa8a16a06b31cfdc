package core

// blockstore.go – the Block Store (§4.5), the heart of the system: owner-free
// content-addressed storage over an injected BlockPersistence/
// MetadataPersistence pair, plus the randomizer-selection, brightening,
// parity, and replication-bookkeeping operations every higher layer (TUPLE,
// CBL whitening, Super-CBL) is built on. Locking discipline and the
// "idempotent put, rollback partial writes on failure" contract follow the
// teacher's core/storage.go diskLRU (lock only around the map mutation, never
// across the persistence call).

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BlockStore is the primary façade over block persistence, metadata, FEC,
// and the randomizer pool.
type BlockStore struct {
	persistence BlockPersistence
	metadata    MetadataPersistence
	crypto      CryptoProvider
	fec         FecProvider
	logger      *logrus.Logger
}

// NewBlockStore assembles a BlockStore from its collaborators. A nil logger
// falls back to logrus's standard logger, matching the teacher's convention
// of never requiring callers to construct a logger just to pass one in.
func NewBlockStore(persistence BlockPersistence, metadata MetadataPersistence, crypto CryptoProvider, fec FecProvider, logger *logrus.Logger) *BlockStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BlockStore{persistence: persistence, metadata: metadata, crypto: crypto, fec: fec, logger: logger}
}

// NewDefaultBlockStore wires the stock in-memory collaborators: a fresh
// InMemoryBlockPersistence, a fresh BlockMetadataStore, and
// DefaultCryptoProvider. Suitable for tests and the CLI's non-disk mode.
func NewDefaultBlockStore() *BlockStore {
	return NewBlockStore(NewInMemoryBlockPersistence(), NewBlockMetadataStore(), DefaultCryptoProvider{}, nil, nil)
}

// Has reports whether id is present in the backing persistence.
func (bs *BlockStore) Has(id BlockId) bool {
	return bs.persistence.Has(id)
}

// Put content-addresses data, stores it if not already present, and creates
// its metadata record. Put is idempotent: re-putting identical bytes (which
// necessarily content-address to the same id) is a no-op that returns the
// existing block. A metadata-create failure after a successful data write is
// rolled back by deleting the just-written data, so a failed Put never
// leaves an orphaned block behind.
func (bs *BlockStore) Put(data []byte, bt BlockType, dt DataType, opts PutOptions) (*RawDataBlock, error) {
	if !IsValidBlockSize(BlockSize(len(data))) {
		return nil, ErrValidationFailed("put: data length is not a valid block size")
	}
	block, err := NewRawDataBlock(BlockSize(len(data)), data, bt, dt)
	if err != nil {
		return nil, err
	}
	id := block.IdChecksum
	if bs.persistence.Has(id) {
		return block, nil
	}
	if err := bs.persistence.Put(id, block.Bytes); err != nil {
		return nil, err
	}
	correlationId := uuid.NewString()
	meta := &BlockMetadata{
		BlockId:                 id,
		CreatedAt:               block.CreatedAt,
		ExpiresAt:               opts.ExpiresAt,
		DurabilityLevel:         opts.DurabilityLevel,
		TargetReplicationFactor: opts.TargetReplicationFactor,
		ReplicationStatus:       ReplicationPending,
		Size:                    len(data),
		Checksum:                id,
		PoolId:                  opts.PoolId,
		CorrelationId:           correlationId,
	}
	if err := bs.metadata.Create(meta); err != nil {
		_ = bs.persistence.Delete(id)
		return nil, err
	}
	bs.logger.WithField("block_id", id.Hex()).WithField("correlation_id", correlationId).Debug("blockstore: block stored")
	if count := ParityCount(opts.DurabilityLevel); count > 0 {
		if _, perr := bs.GenerateParityBlocks(id, opts.DurabilityLevel); perr != nil {
			bs.logger.WithError(perr).WithField("block_id", id.Hex()).WithField("correlation_id", correlationId).Warn("blockstore: parity generation failed, block stored without parity")
		}
	}
	return block, nil
}

// SetData installs data under an explicit caller-supplied id, bypassing
// content-address derivation. Used by recovery paths that are restoring a
// block whose id is already known. The id is still checksum-verified.
func (bs *BlockStore) SetData(id BlockId, data []byte, opts PutOptions) error {
	if !IsValidBlockSize(BlockSize(len(data))) {
		return ErrValidationFailed("setdata: data length is not a valid block size")
	}
	actual := bs.crypto.Checksum(data)
	if actual != id {
		return ErrChecksumMismatch(id, actual)
	}
	if bs.persistence.Has(id) {
		return nil
	}
	if err := bs.persistence.Put(id, data); err != nil {
		return err
	}
	correlationId := uuid.NewString()
	meta := &BlockMetadata{
		BlockId:                 id,
		DurabilityLevel:         opts.DurabilityLevel,
		TargetReplicationFactor: opts.TargetReplicationFactor,
		ExpiresAt:               opts.ExpiresAt,
		ReplicationStatus:       ReplicationPending,
		Size:                    len(data),
		Checksum:                id,
		PoolId:                  opts.PoolId,
		CorrelationId:           correlationId,
	}
	if err := bs.metadata.Create(meta); err != nil {
		_ = bs.persistence.Delete(id)
		return err
	}
	bs.logger.WithField("block_id", id.Hex()).WithField("correlation_id", correlationId).Debug("blockstore: block restored")
	return nil
}

// GetData fetches and checksum-verifies the bytes stored under id, recording
// an access against its metadata on success.
func (bs *BlockStore) GetData(id BlockId) ([]byte, error) {
	data, err := bs.persistence.Get(id)
	if err != nil {
		return nil, err
	}
	actual := bs.crypto.Checksum(data)
	if actual != id {
		return nil, ErrChecksumMismatch(id, actual)
	}
	_ = bs.metadata.RecordAccess(id)
	return data, nil
}

// DeleteData removes both the block's bytes and its metadata record.
// Deleting an absent block is a NotFound error, matching Delete's contract
// on both collaborators.
func (bs *BlockStore) DeleteData(id BlockId) error {
	if err := bs.persistence.Delete(id); err != nil {
		return err
	}
	_ = bs.metadata.Delete(id)
	return nil
}

// GetRandomBlocks selects n block ids of blockSize suitable for use as
// randomizers, preferring blocks already present in the store over freshly
// generated ones (§4.5: "prefer existing block over fresh randomness" —
// reusing existing blocks as randomizers grows the anonymity set without
// consuming new storage). If fewer than n suitable blocks exist and
// allowGenerate is false, InsufficientRandomBlocks is returned; if
// allowGenerate is true, fresh CSPRNG blocks are generated and stored to
// make up the shortfall.
func (bs *BlockStore) GetRandomBlocks(n int, blockSize BlockSize, allowGenerate bool) ([]BlockId, error) {
	if n <= 0 {
		return nil, nil
	}
	candidates := bs.existingBlocksOfSize(blockSize, n)
	if len(candidates) >= n {
		return candidates[:n], nil
	}
	if !allowGenerate {
		return nil, ErrInsufficientRandomBlocks(n, len(candidates))
	}
	out := append([]BlockId{}, candidates...)
	for len(out) < n {
		raw, err := bs.crypto.RandBytes(int(blockSize))
		if err != nil {
			return nil, err
		}
		block, err := bs.Put(raw, BlockTypeRandomizer, DataTypeUnknown, PutOptions{})
		if err != nil {
			return nil, err
		}
		out = append(out, block.IdChecksum)
	}
	return out, nil
}

// existingBlocksOfSize scans stored block ids for up to limit whose metadata
// records a matching size. Linear in the store's size; acceptable for the
// in-memory collaborator this repo ships, and callers with a disk-backed
// persistence are expected to index by size themselves (§9).
func (bs *BlockStore) existingBlocksOfSize(blockSize BlockSize, limit int) []BlockId {
	var out []BlockId
	for _, id := range bs.persistence.IterateIds() {
		if len(out) >= limit {
			break
		}
		meta, err := bs.metadata.Get(id)
		if err != nil || meta.Size != int(blockSize) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// BrightenBlock stores data as a raw block, XORs it against a single
// randomizer block (reusing an existing one when available), stores the
// result as a whitened block, and reports the three ids involved. This is
// the two-block precursor to TUPLE storage's three-block scheme (§3, §4.6).
func (bs *BlockStore) BrightenBlock(data []byte, opts PutOptions) (*BrightenResult, error) {
	if !IsValidBlockSize(BlockSize(len(data))) {
		return nil, ErrValidationFailed("brighten: data length is not a valid block size")
	}
	size := BlockSize(len(data))
	orig, err := bs.Put(data, BlockTypeRaw, DataTypeFileChunk, opts)
	if err != nil {
		return nil, err
	}
	randIds, err := bs.GetRandomBlocks(1, size, true)
	if err != nil {
		return nil, err
	}
	randBytes, err := bs.GetData(randIds[0])
	if err != nil {
		return nil, err
	}
	combined, err := XORBytes(data, randBytes)
	if err != nil {
		return nil, err
	}
	whitened, err := bs.Put(combined, BlockTypeWhitened, DataTypeFileChunk, opts)
	if err != nil {
		return nil, err
	}
	return &BrightenResult{
		BrightenedBlockId: whitened.IdChecksum,
		RandomBlockIds:    randIds,
		OriginalBlockId:   orig.IdChecksum,
	}, nil
}

//---------------------------------------------------------------------
// Parity operations (§4.3/§4.5)
//---------------------------------------------------------------------

// GenerateParityBlocks computes and stores the Reed-Solomon parity shards
// for id's data implied by durability, recording their ids on id's metadata.
// A DurabilityEphemeral level produces no parity and is a no-op.
func (bs *BlockStore) GenerateParityBlocks(id BlockId, durability DurabilityLevel) ([]BlockId, error) {
	count := ParityCount(durability)
	if count == 0 {
		return nil, nil
	}
	data, err := bs.GetData(id)
	if err != nil {
		return nil, err
	}
	block, err := NewRawDataBlock(BlockSize(len(data)), data, BlockTypeRaw, DataTypeUnknown)
	if err != nil {
		return nil, err
	}
	shards, err := CreateParityBlocks(block, count)
	if err != nil {
		return nil, err
	}
	ids := make([]BlockId, len(shards))
	for i, pb := range shards {
		stored, err := bs.Put(pb.Bytes, BlockTypeParity, DataTypeUnknown, PutOptions{})
		if err != nil {
			return nil, err
		}
		ids[i] = stored.IdChecksum
	}
	if err := bs.metadata.Update(id, BlockMetadataUpdate{ParityBlockIds: &ids, DurabilityLevel: &durability}); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetParityBlocks fetches the bytes of every parity shard recorded against
// id's metadata.
func (bs *BlockStore) GetParityBlocks(id BlockId) ([]*ParityShard, error) {
	meta, err := bs.metadata.Get(id)
	if err != nil {
		return nil, err
	}
	shards := make([]*ParityShard, len(meta.ParityBlockIds))
	for i, pid := range meta.ParityBlockIds {
		data, err := bs.GetData(pid)
		if err != nil {
			return nil, err
		}
		shards[i] = &ParityShard{Data: data, Index: i, ForBlockId: id}
	}
	return shards, nil
}

// RecoverBlock reconstructs id's data from whatever combination of its own
// bytes (if still present but suspected damaged) and recorded parity shards
// is available, re-verifies the result against id, and repopulates
// persistence if the data block itself was missing.
func (bs *BlockStore) RecoverBlock(id BlockId) (*RawDataBlock, error) {
	meta, err := bs.metadata.Get(id)
	if err != nil {
		return nil, err
	}
	var damaged *RawDataBlock
	if data, gerr := bs.persistence.Get(id); gerr == nil {
		damaged, _ = NewRawDataBlock(BlockSize(len(data)), data, BlockTypeRaw, DataTypeUnknown)
	}
	parity, err := bs.GetParityBlocks(id)
	if err != nil {
		return nil, err
	}
	if damaged == nil && len(parity) == 0 {
		return nil, ErrNotEnoughShards(0, 1)
	}
	recovered, err := RecoverDataBlocks(BlockSize(meta.Size), damaged, parity)
	if err != nil {
		return nil, err
	}
	if recovered.IdChecksum != id {
		return nil, ErrChecksumMismatch(id, recovered.IdChecksum)
	}
	if !bs.persistence.Has(id) {
		if err := bs.persistence.Put(id, recovered.Bytes); err != nil {
			return nil, err
		}
	}
	return recovered, nil
}

// VerifyBlockIntegrity recomputes id's checksum against its stored bytes
// without touching access-tracking metadata.
func (bs *BlockStore) VerifyBlockIntegrity(id BlockId) error {
	data, err := bs.persistence.Get(id)
	if err != nil {
		return err
	}
	actual := bs.crypto.Checksum(data)
	if actual != id {
		return ErrChecksumMismatch(id, actual)
	}
	return nil
}

//---------------------------------------------------------------------
// Replication bookkeeping (§4.5/§4.10)
//---------------------------------------------------------------------

// RecordReplication registers nodeId as holding a replica of id and
// recomputes id's ReplicationStatus against its target replication factor.
func (bs *BlockStore) RecordReplication(id BlockId, nodeId string) error {
	meta, err := bs.metadata.Get(id)
	if err != nil {
		return err
	}
	nodes := appendUniqueNode(meta.ReplicaNodeIds, nodeId)
	status := replicationStatusFor(len(nodes), meta.TargetReplicationFactor)
	return bs.metadata.Update(id, BlockMetadataUpdate{ReplicaNodeIds: &nodes, ReplicationStatus: &status})
}

// RecordReplicaLoss removes nodeId from id's replica set and recomputes its
// ReplicationStatus.
func (bs *BlockStore) RecordReplicaLoss(id BlockId, nodeId string) error {
	meta, err := bs.metadata.Get(id)
	if err != nil {
		return err
	}
	nodes := removeNode(meta.ReplicaNodeIds, nodeId)
	status := replicationStatusFor(len(nodes), meta.TargetReplicationFactor)
	return bs.metadata.Update(id, BlockMetadataUpdate{ReplicaNodeIds: &nodes, ReplicationStatus: &status})
}

// GetBlocksPendingReplication returns metadata for every block that has not
// yet acquired any replicas.
func (bs *BlockStore) GetBlocksPendingReplication() []*BlockMetadata {
	return bs.metadata.FindByReplicationStatus(ReplicationPending)
}

// GetUnderReplicatedBlocks returns metadata for every block holding fewer
// replicas than its target.
func (bs *BlockStore) GetUnderReplicatedBlocks() []*BlockMetadata {
	return bs.metadata.FindByReplicationStatus(ReplicationUnderReplicated)
}

// replicationStatusFor implements the status-transition rule: count >=
// target is Replicated, 0 < count < target is UnderReplicated, otherwise
// Pending. A target <= 0 means no replication factor was requested for this
// block, so any replica at all already satisfies it — Replicated, not
// UnderReplicated against a target that was never set.
func replicationStatusFor(count, target int) ReplicationStatus {
	switch {
	case target <= 0 && count > 0:
		return ReplicationReplicated
	case count >= target:
		return ReplicationReplicated
	case count > 0:
		return ReplicationUnderReplicated
	default:
		return ReplicationPending
	}
}

func appendUniqueNode(nodes []string, nodeId string) []string {
	for _, n := range nodes {
		if n == nodeId {
			return append([]string(nil), nodes...)
		}
	}
	return append(append([]string(nil), nodes...), nodeId)
}

func removeNode(nodes []string, nodeId string) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n != nodeId {
			out = append(out, n)
		}
	}
	return out
}
