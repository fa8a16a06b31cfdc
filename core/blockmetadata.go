package core

// blockmetadata.go – the Block Metadata Store (§4.4): create/get/update/
// delete/recordAccess/findExpired/findByReplicationStatus over an in-memory
// map guarded by a RWMutex, following the locking convention in the
// teacher's core/storage.go diskLRU (lock, mutate, unlock; no lock held
// across I/O).

import (
	"sync"
	"time"
)

// BlockMetadataStore is the default MetadataPersistence implementation.
type BlockMetadataStore struct {
	mu      sync.RWMutex
	records map[BlockId]*BlockMetadata
}

// NewBlockMetadataStore returns an empty metadata store.
func NewBlockMetadataStore() *BlockMetadataStore {
	return &BlockMetadataStore{records: make(map[BlockId]*BlockMetadata)}
}

// Create installs m, keyed by m.BlockId. Fails with AlreadyExists if a
// record for that id is already present.
func (s *BlockMetadataStore) Create(m *BlockMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[m.BlockId]; ok {
		return ErrAlreadyExists(m.BlockId.Hex())
	}
	s.records[m.BlockId] = m.clone()
	return nil
}

// Get returns a copy of the metadata for id, or NotFound.
func (s *BlockMetadataStore) Get(id BlockId) (*BlockMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound(id.Hex())
	}
	return m.clone(), nil
}

// Update applies a partial update to the record for id. Fails with NotFound
// if no record exists.
func (s *BlockMetadataStore) Update(id BlockId, upd BlockMetadataUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.records[id]
	if !ok {
		return ErrNotFound(id.Hex())
	}
	if upd.ExpiresAt != nil {
		m.ExpiresAt = *upd.ExpiresAt
	}
	if upd.DurabilityLevel != nil {
		m.DurabilityLevel = *upd.DurabilityLevel
	}
	if upd.ParityBlockIds != nil {
		m.ParityBlockIds = append([]BlockId(nil), (*upd.ParityBlockIds)...)
	}
	if upd.ReplicationStatus != nil {
		m.ReplicationStatus = *upd.ReplicationStatus
	}
	if upd.TargetReplicationFactor != nil {
		m.TargetReplicationFactor = *upd.TargetReplicationFactor
	}
	if upd.ReplicaNodeIds != nil {
		m.ReplicaNodeIds = append([]string(nil), (*upd.ReplicaNodeIds)...)
	}
	return nil
}

// Delete removes the record for id, or fails with NotFound.
func (s *BlockMetadataStore) Delete(id BlockId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return ErrNotFound(id.Hex())
	}
	delete(s.records, id)
	return nil
}

// RecordAccess atomically increments AccessCount and sets LastAccessedAt to
// now for id's record. Fails with NotFound if no record exists.
func (s *BlockMetadataStore) RecordAccess(id BlockId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.records[id]
	if !ok {
		return ErrNotFound(id.Hex())
	}
	m.AccessCount++
	m.LastAccessedAt = time.Now()
	return nil
}

// FindExpired returns copies of all records whose ExpiresAt is non-nil and
// has passed now.
func (s *BlockMetadataStore) FindExpired(now time.Time) []*BlockMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*BlockMetadata
	for _, m := range s.records {
		if m.ExpiresAt != nil && !m.ExpiresAt.After(now) {
			out = append(out, m.clone())
		}
	}
	return out
}

// FindByReplicationStatus returns copies of all records with the given
// ReplicationStatus.
func (s *BlockMetadataStore) FindByReplicationStatus(status ReplicationStatus) []*BlockMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*BlockMetadata
	for _, m := range s.records {
		if m.ReplicationStatus == status {
			out = append(out, m.clone())
		}
	}
	return out
}

var _ MetadataPersistence = (*BlockMetadataStore)(nil)
