package core

// persistence.go – the default in-memory BlockPersistence, adapting
// internal/memstore.Store (hex-keyed byte store) to the BlockId-keyed
// collaborator interface the block store depends on (§6). A disk-backed
// BlockPersistence is out of scope (spec.md §1: "the core speaks to an
// abstract block-persistence interface") but would implement the same
// interface over a directory of blockSize-byte files named by hex BlockId.

import (
	"brightchain/internal/memstore"
)

// defaultHotCacheSize bounds InMemoryBlockPersistence's BoundedCache front.
// A block store backing TUPLE/CBL reconstruction re-fetches the same few
// randomizer and manifest blocks repeatedly within one reconstruction, so a
// small fixed-size LRU in front of the backing map saves a map lookup (and,
// for a disk-backed BlockPersistence, the I/O) on the hot path.
const defaultHotCacheSize = 256

// InMemoryBlockPersistence implements BlockPersistence over memstore.Store,
// fronted by a memstore.BoundedCache for repeat reads of the same block.
type InMemoryBlockPersistence struct {
	store *memstore.Store
	hot   *memstore.BoundedCache
}

// NewInMemoryBlockPersistence returns an empty in-memory block persistence.
func NewInMemoryBlockPersistence() *InMemoryBlockPersistence {
	hot, err := memstore.NewBoundedCache(defaultHotCacheSize)
	if err != nil {
		// Only a non-positive size makes NewBoundedCache fail, and
		// defaultHotCacheSize is a positive constant.
		panic(err)
	}
	return &InMemoryBlockPersistence{store: memstore.New(), hot: hot}
}

func (p *InMemoryBlockPersistence) Put(id BlockId, data []byte) error {
	if err := p.store.Put(id.Hex(), data); err != nil {
		return err
	}
	p.hot.Add(id.Hex(), append([]byte(nil), data...))
	return nil
}

func (p *InMemoryBlockPersistence) Get(id BlockId) ([]byte, error) {
	if b, ok := p.hot.Get(id.Hex()); ok {
		return append([]byte(nil), b...), nil
	}
	b, ok := p.store.Get(id.Hex())
	if !ok {
		return nil, ErrNotFound(id.Hex())
	}
	p.hot.Add(id.Hex(), append([]byte(nil), b...))
	return b, nil
}

func (p *InMemoryBlockPersistence) Has(id BlockId) bool {
	return p.store.Has(id.Hex())
}

func (p *InMemoryBlockPersistence) Delete(id BlockId) error {
	p.hot.Remove(id.Hex())
	if !p.store.Delete(id.Hex()) {
		return ErrNotFound(id.Hex())
	}
	return nil
}

func (p *InMemoryBlockPersistence) IterateIds() []BlockId {
	keys := p.store.Keys()
	out := make([]BlockId, 0, len(keys))
	for _, k := range keys {
		id, err := BlockIdFromHex(k)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (p *InMemoryBlockPersistence) Len() int { return p.store.Len() }

var _ BlockPersistence = (*InMemoryBlockPersistence)(nil)
