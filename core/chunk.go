package core

// chunk.go – fixed-size ingest chunking, the first step of turning a file
// into blocks before brightening/tupling (§3). Adapted from the teacher's
// core/partitioning_and_compression.go HorizontalPartition, dropping its
// gzip compression and Ledger-specific storage methods: nothing in this
// domain needs per-chunk compression, and the block store already owns
// persistence.

// ChunkData splits data into contiguous pieces of at most blockSize bytes
// each; every piece but the last is exactly blockSize bytes, and the last is
// zero-padded up to blockSize so every returned chunk is ready to hand
// directly to BlockStore.Put, BlockStore.BrightenBlock, or TupleService.Store.
func ChunkData(data []byte, blockSize BlockSize) ([][]byte, error) {
	if !IsValidBlockSize(blockSize) {
		return nil, ErrValidationFailed("chunk: not a valid block size")
	}
	size := int(blockSize)
	if len(data) == 0 {
		padded, err := ZeroPad(nil, size)
		if err != nil {
			return nil, err
		}
		return [][]byte{padded}, nil
	}
	var out [][]byte
	for off := 0; off < len(data); off += size {
		end := off + size
		if end > len(data) {
			end = len(data)
		}
		chunk, err := ZeroPad(data[off:end], size)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk)
	}
	return out, nil
}

// ChunkCount returns the number of blockSize chunks ChunkData would produce
// for a payload of originalLen bytes, without materializing them.
func ChunkCount(originalLen uint64, blockSize BlockSize) int {
	size := uint64(blockSize)
	if size == 0 {
		return 0
	}
	if originalLen == 0 {
		return 1
	}
	return int((originalLen + size - 1) / size)
}
