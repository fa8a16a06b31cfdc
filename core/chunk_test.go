package core

import (
	"bytes"
	"testing"
)

func TestChunkDataExactMultiple(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, int(BlockSizeMessage)*3)
	chunks, err := ChunkData(data, BlockSizeMessage)
	if err != nil {
		t.Fatalf("ChunkData failed: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) != int(BlockSizeMessage) {
			t.Fatalf("chunk %d has wrong length: %d", i, len(c))
		}
	}
	var reassembled []byte
	for _, c := range chunks {
		reassembled = append(reassembled, c...)
	}
	if !bytes.Equal(reassembled, data) {
		t.Fatalf("reassembled data mismatch")
	}
}

func TestChunkDataPadsLastChunk(t *testing.T) {
	data := bytes.Repeat([]byte{0x01}, int(BlockSizeMessage)+10)
	chunks, err := ChunkData(data, BlockSizeMessage)
	if err != nil {
		t.Fatalf("ChunkData failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	last := chunks[1]
	if len(last) != int(BlockSizeMessage) {
		t.Fatalf("last chunk not padded to block size: %d", len(last))
	}
	for _, b := range last[10:] {
		if b != 0 {
			t.Fatalf("expected zero padding in tail of last chunk")
		}
	}
}

func TestChunkDataEmptyInput(t *testing.T) {
	chunks, err := ChunkData(nil, BlockSizeMessage)
	if err != nil {
		t.Fatalf("ChunkData failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected a single all-zero chunk for empty input, got %d", len(chunks))
	}
	if len(chunks[0]) != int(BlockSizeMessage) {
		t.Fatalf("expected chunk sized to block size")
	}
}

func TestChunkDataInvalidBlockSize(t *testing.T) {
	if _, err := ChunkData([]byte("x"), BlockSize(123)); err == nil {
		t.Fatalf("expected error for invalid block size")
	}
}

func TestChunkCountMatchesChunkData(t *testing.T) {
	cases := []int{0, 1, int(BlockSizeMessage), int(BlockSizeMessage) + 1, int(BlockSizeMessage)*5 - 1}
	for _, n := range cases {
		data := bytes.Repeat([]byte{0x09}, n)
		chunks, err := ChunkData(data, BlockSizeMessage)
		if err != nil {
			t.Fatalf("ChunkData failed for len %d: %v", n, err)
		}
		if got := ChunkCount(uint64(n), BlockSizeMessage); got != len(chunks) {
			t.Fatalf("ChunkCount(%d) = %d, want %d", n, got, len(chunks))
		}
	}
}
