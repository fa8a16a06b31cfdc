package core

// fec.go – the Reed-Solomon forward-error-correction engine (§4.3), wrapping
// github.com/klauspost/reedsolomon. Grounded on AIStore's erasure-coding
// jogger (other_examples/*-aistore__ec-putjogger.go.go), which drives the
// same library's streaming encoder for object-level erasure coding; this
// package uses the library's simpler whole-buffer `New(dataShards,
// parityShards)` API since a block's bytes are always encoded as a single
// shard (Open Question #2 in spec.md §9, decided in DESIGN.md).

import (
	"github.com/klauspost/reedsolomon"
)

// Encode produces a contiguous buffer of (dataShards+parityShards)*shardSize
// bytes holding data split across dataShards shards plus parityShards
// systematic Reed-Solomon parity shards. If padded is false, data must
// already be exactly dataShards*shardSize bytes long.
func Encode(data []byte, shardSize, dataShards, parityShards int, padded bool) ([]byte, error) {
	want := dataShards * shardSize
	if len(data) > want {
		return nil, ErrValidationFailed("fec: data exceeds data-shard capacity")
	}
	if !padded && len(data) != want {
		return nil, ErrValidationFailed("fec: data is not an exact multiple of the shard size")
	}

	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, ErrFecEncodingFailed(err)
	}

	total := dataShards + parityShards
	shards := make([][]byte, total)
	for i := 0; i < total; i++ {
		shards[i] = make([]byte, shardSize)
	}
	for i := 0; i < dataShards; i++ {
		lo, hi := i*shardSize, (i+1)*shardSize
		if lo >= len(data) {
			break
		}
		if hi > len(data) {
			hi = len(data)
		}
		copy(shards[i], data[lo:hi])
	}

	if err := enc.Encode(shards); err != nil {
		return nil, ErrFecEncodingFailed(err)
	}

	out := make([]byte, total*shardSize)
	for i, s := range shards {
		copy(out[i*shardSize:], s)
	}
	return out, nil
}

// Decode reconstructs the original data-shard bytes from shards, given which
// positions (data shards first, then parity shards) are available. Fails
// with NotEnoughShards if fewer than dataShards positions are available.
func Decode(shards [][]byte, shardSize, dataShards, parityShards int, available []bool) ([]byte, error) {
	total := dataShards + parityShards
	if len(shards) != total || len(available) != total {
		return nil, ErrValidationFailed("fec: shard count mismatch")
	}

	present := 0
	work := make([][]byte, total)
	for i := 0; i < total; i++ {
		if available[i] && shards[i] != nil {
			present++
			work[i] = shards[i]
		} else {
			work[i] = nil
		}
	}
	if present < dataShards {
		return nil, ErrNotEnoughShards(present, dataShards)
	}

	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, ErrFecDecodingFailed(err)
	}
	if err := enc.Reconstruct(work); err != nil {
		return nil, ErrFecDecodingFailed(err)
	}

	out := make([]byte, 0, dataShards*shardSize)
	for i := 0; i < dataShards; i++ {
		out = append(out, work[i]...)
	}
	return out, nil
}

//---------------------------------------------------------------------
// Block-sized convenience wrappers (§4.5): a block's bytes are treated as a
// single data shard per parity entry.
//---------------------------------------------------------------------

// CreateParityBlocks produces parityCount RawDataBlock-sized parity shards
// for block, treating block as a single data shard.
func CreateParityBlocks(block *RawDataBlock, parityCount int) ([]*RawDataBlock, error) {
	if parityCount <= 0 {
		return nil, nil
	}
	encoded, err := Encode(block.Bytes, int(block.BlockSize), 1, parityCount, false)
	if err != nil {
		return nil, err
	}
	out := make([]*RawDataBlock, parityCount)
	for i := 0; i < parityCount; i++ {
		shard := encoded[(i+1)*int(block.BlockSize) : (i+2)*int(block.BlockSize)]
		pb, err := NewRawDataBlock(block.BlockSize, shard, BlockTypeParity, DataTypeUnknown)
		if err != nil {
			return nil, err
		}
		out[i] = pb
	}
	return out, nil
}

// RecoverDataBlocks reconstructs a block's bytes from however many of
// {damagedBlock, parityBlocks} are available. damagedBlock may be nil if
// the data block itself was lost, in which case reconstruction proceeds
// from parity shards alone.
func RecoverDataBlocks(blockSize BlockSize, damagedBlock *RawDataBlock, parityBlocks []*ParityShard) (*RawDataBlock, error) {
	parityCount := len(parityBlocks)
	total := 1 + parityCount
	shards := make([][]byte, total)
	available := make([]bool, total)

	if damagedBlock != nil {
		shards[0] = damagedBlock.Bytes
		available[0] = true
	}
	for _, p := range parityBlocks {
		if p.Index < 0 || p.Index >= parityCount {
			continue
		}
		shards[1+p.Index] = p.Data
		available[1+p.Index] = true
	}

	data, err := Decode(shards, int(blockSize), 1, parityCount, available)
	if err != nil {
		return nil, err
	}
	return NewRawDataBlock(blockSize, data, BlockTypeRaw, DataTypeUnknown)
}
