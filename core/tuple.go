package core

// tuple.go – the TUPLE Storage Service (§4.6): pad to block size, combine
// with two randomizer blocks via XOR into a stored (S, R1, R2) triple, and
// retrieve by XOR-recombination with parity-assisted fallback when one of
// the three is damaged. Builds directly on BlockStore.GetRandomBlocks and
// BlockStore.GenerateParityBlocks (§4.5); grounded on the same brightening
// idiom as BlockStore.BrightenBlock, generalized from two blocks to three.

// TupleService stores and retrieves TUPLE-whitened blocks.
type TupleService struct {
	store *BlockStore
}

// NewTupleService wraps store with the three-block TUPLE scheme.
func NewTupleService(store *BlockStore) *TupleService {
	return &TupleService{store: store}
}

// Store pads data to blockSize (zero-padding: the tuple scheme carries no
// length prefix of its own — callers needing exact-length recovery wrap
// payloads in a CBL, which does), selects two randomizer blocks (preferring
// existing ones over fresh CSPRNG output), XOR-combines them with the padded
// payload into the stored block S, and persists all three under durability.
// If GenerateParityBlocks fails for the stored block or either randomizer,
// the parity entry for that id is simply omitted from the result — Store
// still succeeds, matching BlockStore.Put's "don't fail the put over parity"
// policy (§4.5).
func (t *TupleService) Store(data []byte, blockSize BlockSize, durability DurabilityLevel) (*TupleStoreResult, error) {
	padded, err := ZeroPad(data, int(blockSize))
	if err != nil {
		return nil, err
	}
	randIds, err := t.store.GetRandomBlocks(2, blockSize, true)
	if err != nil {
		return nil, err
	}
	r1Bytes, err := t.store.GetData(randIds[0])
	if err != nil {
		return nil, err
	}
	r2Bytes, err := t.store.GetData(randIds[1])
	if err != nil {
		return nil, err
	}
	combined, err := XORAll(padded, r1Bytes, r2Bytes)
	if err != nil {
		return nil, err
	}
	opts := PutOptions{DurabilityLevel: durability}
	stored, err := t.store.Put(combined, BlockTypeWhitened, DataTypeTupleComponent, opts)
	if err != nil {
		return nil, err
	}

	result := &TupleStoreResult{
		DataBlockId:        stored.IdChecksum,
		RandomizerBlockIds: [2]BlockId{randIds[0], randIds[1]},
		ParityBlockIds:     map[BlockId][]BlockId{},
	}
	for _, id := range append([]BlockId{stored.IdChecksum}, randIds...) {
		if pids, err := t.store.GenerateParityBlocks(id, durability); err == nil && len(pids) > 0 {
			result.ParityBlockIds[id] = pids
		}
	}
	result.MagnetUrl = EncodeTupleMagnet(TupleMagnet{
		DataBlockId:          result.DataBlockId,
		RandomizerBlockIds:   result.RandomizerBlockIds,
		BlockSize:            blockSize,
		DataParityIds:        result.ParityBlockIds[result.DataBlockId],
		Randomizer1ParityIds: result.ParityBlockIds[randIds[0]],
		Randomizer2ParityIds: result.ParityBlockIds[randIds[1]],
	})
	return result, nil
}

// Retrieve reconstructs the padded payload referenced by a TUPLE magnet URL.
// Any one of the three component blocks may be fetched via
// BlockStore.RecoverBlock (parity-assisted) instead of a direct read when a
// plain Get fails, so a single damaged component does not lose the data. The
// full blockSize-length buffer is returned unconditionally — TUPLE carries no
// length metadata of its own (§4.6), so trimming to the original length is
// the caller's responsibility, using size/length metadata it tracks
// separately (the CBL layer does, via OriginalDataLen).
func (t *TupleService) Retrieve(magnet string) ([]byte, error) {
	m, err := ParseTupleMagnet(magnet)
	if err != nil {
		return nil, err
	}
	s, err := t.fetchOrRecover(m.DataBlockId)
	if err != nil {
		return nil, err
	}
	r1, err := t.fetchOrRecover(m.RandomizerBlockIds[0])
	if err != nil {
		return nil, err
	}
	r2, err := t.fetchOrRecover(m.RandomizerBlockIds[1])
	if err != nil {
		return nil, err
	}
	return XORAll(s, r1, r2)
}

func (t *TupleService) fetchOrRecover(id BlockId) ([]byte, error) {
	data, err := t.store.GetData(id)
	if err == nil {
		return data, nil
	}
	recovered, rerr := t.store.RecoverBlock(id)
	if rerr != nil {
		return nil, err
	}
	return recovered.Bytes, nil
}

// UnpadLengthPrefixOrRaw strips a length-prefix frame if padded looks like
// one was applied (DecodeFramed succeeds and consumes a prefix no larger
// than the buffer), otherwise returns padded unchanged. TUPLE payloads are
// zero-padded without framing, so callers that need their exact original
// length back for a TUPLE-stored chunk should track it out of band (the CBL
// layer does, via OriginalDataLen); this helper exists for callers that
// chose to frame their own payload before handing it to Store.
func UnpadLengthPrefixOrRaw(padded []byte) []byte {
	payload, _, err := DecodeFramed(padded)
	if err != nil {
		return padded
	}
	return payload
}
