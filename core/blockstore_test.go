package core

import (
	"bytes"
	"testing"
)

func TestPutIsContentAddressedAndIdempotent(t *testing.T) {
	bs := NewDefaultBlockStore()
	data := bytes.Repeat([]byte{0x42}, int(BlockSizeMessage))

	first, err := bs.Put(data, BlockTypeRaw, DataTypeFileChunk, PutOptions{})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if first.IdChecksum != Checksum(data) {
		t.Fatalf("expected id to equal content checksum")
	}

	second, err := bs.Put(data, BlockTypeRaw, DataTypeFileChunk, PutOptions{})
	if err != nil {
		t.Fatalf("second Put failed: %v", err)
	}
	if second.IdChecksum != first.IdChecksum {
		t.Fatalf("expected idempotent re-put to return the same id")
	}
}

func TestPutRejectsInvalidBlockSize(t *testing.T) {
	bs := NewDefaultBlockStore()
	if _, err := bs.Put([]byte("too short"), BlockTypeRaw, DataTypeFileChunk, PutOptions{}); err == nil {
		t.Fatalf("expected ValidationFailed for a non-enumerated block size")
	}
}

func TestPutCreatesMetadataWithDefaults(t *testing.T) {
	bs := NewDefaultBlockStore()
	data := bytes.Repeat([]byte{0x01}, int(BlockSizeMessage))
	block, err := bs.Put(data, BlockTypeRaw, DataTypeFileChunk, PutOptions{})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	meta, err := bs.metadata.Get(block.IdChecksum)
	if err != nil {
		t.Fatalf("metadata.Get failed: %v", err)
	}
	if meta.ReplicationStatus != ReplicationPending {
		t.Fatalf("expected fresh metadata to start Pending, got %v", meta.ReplicationStatus)
	}
	if meta.Size != len(data) {
		t.Fatalf("expected metadata size %d, got %d", len(data), meta.Size)
	}
}

func TestSetDataRejectsChecksumMismatch(t *testing.T) {
	bs := NewDefaultBlockStore()
	data := bytes.Repeat([]byte{0x02}, int(BlockSizeMessage))
	wrongId := mkId(0xAB)
	if err := bs.SetData(wrongId, data, PutOptions{}); err == nil {
		t.Fatalf("expected checksum mismatch error")
	}
}

func TestGetDataNotFound(t *testing.T) {
	bs := NewDefaultBlockStore()
	if _, err := bs.GetData(mkId(0x01)); err == nil {
		t.Fatalf("expected NotFound for absent block")
	}
}

func TestGetDataRecordsAccess(t *testing.T) {
	bs := NewDefaultBlockStore()
	data := bytes.Repeat([]byte{0x03}, int(BlockSizeMessage))
	block, err := bs.Put(data, BlockTypeRaw, DataTypeFileChunk, PutOptions{})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := bs.GetData(block.IdChecksum); err != nil {
		t.Fatalf("GetData failed: %v", err)
	}
	if _, err := bs.GetData(block.IdChecksum); err != nil {
		t.Fatalf("GetData failed: %v", err)
	}
	meta, err := bs.metadata.Get(block.IdChecksum)
	if err != nil {
		t.Fatalf("metadata.Get failed: %v", err)
	}
	if meta.AccessCount != 2 {
		t.Fatalf("expected access count 2, got %d", meta.AccessCount)
	}
}

func TestDeleteDataRemovesBlockAndMetadata(t *testing.T) {
	bs := NewDefaultBlockStore()
	data := bytes.Repeat([]byte{0x04}, int(BlockSizeMessage))
	block, err := bs.Put(data, BlockTypeRaw, DataTypeFileChunk, PutOptions{})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := bs.DeleteData(block.IdChecksum); err != nil {
		t.Fatalf("DeleteData failed: %v", err)
	}
	if _, err := bs.GetData(block.IdChecksum); err == nil {
		t.Fatalf("expected NotFound after delete")
	}
	if _, err := bs.metadata.Get(block.IdChecksum); err == nil {
		t.Fatalf("expected metadata to be removed after delete")
	}
	if err := bs.DeleteData(block.IdChecksum); err == nil {
		t.Fatalf("expected NotFound deleting an absent block")
	}
}

func TestGetRandomBlocksInsufficientWithoutGenerate(t *testing.T) {
	bs := NewDefaultBlockStore()
	if _, err := bs.GetRandomBlocks(3, BlockSizeMessage, false); err == nil {
		t.Fatalf("expected InsufficientRandomBlocks on an empty store")
	}
}

func TestGetRandomBlocksGeneratesWhenAllowed(t *testing.T) {
	bs := NewDefaultBlockStore()
	ids, err := bs.GetRandomBlocks(3, BlockSizeMessage, true)
	if err != nil {
		t.Fatalf("GetRandomBlocks failed: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(ids))
	}
	for _, id := range ids {
		if !bs.Has(id) {
			t.Fatalf("expected generated randomizer %x to be stored", id)
		}
	}
}

func TestGetRandomBlocksPrefersExistingBlocks(t *testing.T) {
	bs := NewDefaultBlockStore()
	data := bytes.Repeat([]byte{0x05}, int(BlockSizeMessage))
	existing, err := bs.Put(data, BlockTypeRaw, DataTypeFileChunk, PutOptions{})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	ids, err := bs.GetRandomBlocks(1, BlockSizeMessage, true)
	if err != nil {
		t.Fatalf("GetRandomBlocks failed: %v", err)
	}
	if ids[0] != existing.IdChecksum {
		t.Fatalf("expected the single existing block to be reused as the randomizer")
	}
	if bs.persistence.(*InMemoryBlockPersistence).Len() != 1 {
		t.Fatalf("expected no new block to be generated when an existing one sufficed")
	}
}

func TestBrightenBlockRoundTrip(t *testing.T) {
	bs := NewDefaultBlockStore()
	data := bytes.Repeat([]byte{0x06}, int(BlockSizeMessage))
	result, err := bs.BrightenBlock(data, PutOptions{})
	if err != nil {
		t.Fatalf("BrightenBlock failed: %v", err)
	}
	if !bs.Has(result.OriginalBlockId) || !bs.Has(result.BrightenedBlockId) || !bs.Has(result.RandomBlockIds[0]) {
		t.Fatalf("expected all three blocks to be persisted")
	}
	whitened, err := bs.GetData(result.BrightenedBlockId)
	if err != nil {
		t.Fatalf("GetData failed: %v", err)
	}
	randBytes, err := bs.GetData(result.RandomBlockIds[0])
	if err != nil {
		t.Fatalf("GetData failed: %v", err)
	}
	recovered, err := XORBytes(whitened, randBytes)
	if err != nil {
		t.Fatalf("XORBytes failed: %v", err)
	}
	if !bytes.Equal(recovered, data) {
		t.Fatalf("brightened block did not XOR back to the original")
	}
}

func TestGenerateAndRecoverParityBlocks(t *testing.T) {
	bs := NewDefaultBlockStore()
	data := bytes.Repeat([]byte{0x07}, int(BlockSizeMessage))
	block, err := bs.Put(data, BlockTypeRaw, DataTypeFileChunk, PutOptions{DurabilityLevel: DurabilityHigh})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	meta, err := bs.metadata.Get(block.IdChecksum)
	if err != nil {
		t.Fatalf("metadata.Get failed: %v", err)
	}
	if len(meta.ParityBlockIds) != ParityCount(DurabilityHigh) {
		t.Fatalf("expected %d parity blocks, got %d", ParityCount(DurabilityHigh), len(meta.ParityBlockIds))
	}

	// Simulate data-block loss, then recover from parity alone.
	if err := bs.persistence.Delete(block.IdChecksum); err != nil {
		t.Fatalf("failed to simulate block loss: %v", err)
	}
	recovered, err := bs.RecoverBlock(block.IdChecksum)
	if err != nil {
		t.Fatalf("RecoverBlock failed: %v", err)
	}
	if !bytes.Equal(recovered.Bytes, data) {
		t.Fatalf("recovered bytes mismatch")
	}
	if !bs.Has(block.IdChecksum) {
		t.Fatalf("expected RecoverBlock to repopulate persistence")
	}
	if _, err := bs.GetData(block.IdChecksum); err != nil {
		t.Fatalf("expected GetData to succeed after recovery: %v", err)
	}
}

func TestRecoverBlockFailsWithoutDataOrParity(t *testing.T) {
	bs := NewDefaultBlockStore()
	data := bytes.Repeat([]byte{0x08}, int(BlockSizeMessage))
	block, err := bs.Put(data, BlockTypeRaw, DataTypeFileChunk, PutOptions{DurabilityLevel: DurabilityEphemeral})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := bs.persistence.Delete(block.IdChecksum); err != nil {
		t.Fatalf("failed to simulate block loss: %v", err)
	}
	if _, err := bs.RecoverBlock(block.IdChecksum); err == nil {
		t.Fatalf("expected recovery to fail with no parity and no surviving data")
	}
}

func TestVerifyBlockIntegrityDetectsCorruption(t *testing.T) {
	bs := NewDefaultBlockStore()
	data := bytes.Repeat([]byte{0x09}, int(BlockSizeMessage))
	block, err := bs.Put(data, BlockTypeRaw, DataTypeFileChunk, PutOptions{})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := bs.VerifyBlockIntegrity(block.IdChecksum); err != nil {
		t.Fatalf("expected integrity check to pass: %v", err)
	}
	corrupted := bytes.Repeat([]byte{0x0A}, int(BlockSizeMessage))
	if err := bs.persistence.Put(block.IdChecksum, corrupted); err != nil {
		t.Fatalf("failed to simulate corruption: %v", err)
	}
	if err := bs.VerifyBlockIntegrity(block.IdChecksum); err == nil {
		t.Fatalf("expected integrity check to detect corruption")
	}
}

func TestReplicationStatusTransitions(t *testing.T) {
	bs := NewDefaultBlockStore()
	data := bytes.Repeat([]byte{0x0B}, int(BlockSizeMessage))
	block, err := bs.Put(data, BlockTypeRaw, DataTypeFileChunk, PutOptions{TargetReplicationFactor: 2})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := bs.RecordReplication(block.IdChecksum, "node-a"); err != nil {
		t.Fatalf("RecordReplication failed: %v", err)
	}
	meta, err := bs.metadata.Get(block.IdChecksum)
	if err != nil {
		t.Fatalf("metadata.Get failed: %v", err)
	}
	if meta.ReplicationStatus != ReplicationUnderReplicated {
		t.Fatalf("expected UnderReplicated with 1/2 replicas, got %v", meta.ReplicationStatus)
	}

	if err := bs.RecordReplication(block.IdChecksum, "node-b"); err != nil {
		t.Fatalf("RecordReplication failed: %v", err)
	}
	meta, err = bs.metadata.Get(block.IdChecksum)
	if err != nil {
		t.Fatalf("metadata.Get failed: %v", err)
	}
	if meta.ReplicationStatus != ReplicationReplicated {
		t.Fatalf("expected Replicated with 2/2 replicas, got %v", meta.ReplicationStatus)
	}

	if err := bs.RecordReplicaLoss(block.IdChecksum, "node-a"); err != nil {
		t.Fatalf("RecordReplicaLoss failed: %v", err)
	}
	meta, err = bs.metadata.Get(block.IdChecksum)
	if err != nil {
		t.Fatalf("metadata.Get failed: %v", err)
	}
	if meta.ReplicationStatus != ReplicationUnderReplicated {
		t.Fatalf("expected UnderReplicated after losing a replica, got %v", meta.ReplicationStatus)
	}

	if err := bs.RecordReplicaLoss(block.IdChecksum, "node-b"); err != nil {
		t.Fatalf("RecordReplicaLoss failed: %v", err)
	}
	meta, err = bs.metadata.Get(block.IdChecksum)
	if err != nil {
		t.Fatalf("metadata.Get failed: %v", err)
	}
	if meta.ReplicationStatus != ReplicationPending {
		t.Fatalf("expected Pending after losing all replicas, got %v", meta.ReplicationStatus)
	}
}

func TestGetBlocksPendingAndUnderReplicated(t *testing.T) {
	bs := NewDefaultBlockStore()
	data1 := bytes.Repeat([]byte{0x0C}, int(BlockSizeMessage))
	data2 := bytes.Repeat([]byte{0x0D}, int(BlockSizeMessage))
	pending, err := bs.Put(data1, BlockTypeRaw, DataTypeFileChunk, PutOptions{TargetReplicationFactor: 2})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	under, err := bs.Put(data2, BlockTypeRaw, DataTypeFileChunk, PutOptions{TargetReplicationFactor: 2})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := bs.RecordReplication(under.IdChecksum, "node-a"); err != nil {
		t.Fatalf("RecordReplication failed: %v", err)
	}

	pendingList := bs.GetBlocksPendingReplication()
	if len(pendingList) != 1 || pendingList[0].BlockId != pending.IdChecksum {
		t.Fatalf("expected exactly the untouched block to be pending, got %+v", pendingList)
	}
	underList := bs.GetUnderReplicatedBlocks()
	if len(underList) != 1 || underList[0].BlockId != under.IdChecksum {
		t.Fatalf("expected exactly the partially-replicated block to be under-replicated, got %+v", underList)
	}
}
