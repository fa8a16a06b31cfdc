package core

// cblwhiten.go – the CBL whitening layer (§4.8): takes an already-encoded
// CBL buffer (exactly blockSize bytes, produced by Encode) and stores it the
// same way BlockStore.BrightenBlock stores a raw chunk — XORed against a
// single randomizer block, content-addressed, persisted — then reports a CBL
// magnet URL. Kept as its own thin service (rather than folded into
// BlockStore) since it composes BlockStore operations rather than adding new
// storage mechanics: a randomizer selected before a later failure is left in
// place, matching BlockStore.GetRandomBlocks' "prefer existing block"
// policy — an unused randomizer is ordinary reusable content, not orphaned
// state (§5).
type CBLWhitener struct {
	store *BlockStore
}

// NewCBLWhitener wraps store with CBL whitening.
func NewCBLWhitener(store *BlockStore) *CBLWhitener {
	return &CBLWhitener{store: store}
}

// Store XOR-combines an encoded CBL buffer with a randomizer block and
// persists both, returning their ids and a magnet URL. encodedCBL must
// already be exactly blockSize bytes (i.e. the output of Encode).
func (w *CBLWhitener) Store(encodedCBL []byte, blockSize BlockSize, durability DurabilityLevel) (*CBLWhitenResult, error) {
	if len(encodedCBL) != int(blockSize) {
		return nil, ErrValidationFailed("cblwhiten: encoded cbl is not exactly one block")
	}
	randIds, err := w.store.GetRandomBlocks(1, blockSize, true)
	if err != nil {
		return nil, err
	}
	randBlockId := randIds[0]
	randBytes, err := w.store.GetData(randBlockId)
	if err != nil {
		return nil, err
	}
	combined, err := XORBytes(encodedCBL, randBytes)
	if err != nil {
		return nil, err
	}

	opts := PutOptions{DurabilityLevel: durability}
	whitened, err := w.store.Put(combined, BlockTypeCBL, DataTypeManifest, opts)
	if err != nil {
		return nil, err
	}

	result := &CBLWhitenResult{
		BlockId1:    whitened.IdChecksum,
		BlockId2:    randBlockId,
		BlockSize:   blockSize,
		IsEncrypted: len(encodedCBL) > 0 && encodedCBL[0] == eciesMagicByte,
	}
	if pids, perr := w.store.GenerateParityBlocks(whitened.IdChecksum, durability); perr == nil {
		result.Block1ParityIds = pids
	}
	if pids, perr := w.store.GenerateParityBlocks(randBlockId, durability); perr == nil {
		result.Block2ParityIds = pids
	}
	result.MagnetUrl = EncodeCBLMagnet(CBLMagnet{
		BlockSize:       blockSize,
		Block1Id:        result.BlockId1,
		Block2Id:        result.BlockId2,
		Block1ParityIds: result.Block1ParityIds,
		Block2ParityIds: result.Block2ParityIds,
		Encrypted:       result.IsEncrypted,
	})
	return result, nil
}

// Retrieve reconstructs the encoded CBL buffer referenced by a CBL magnet
// URL, recovering either component via parity when a direct read fails.
func (w *CBLWhitener) Retrieve(magnet string) ([]byte, error) {
	m, err := ParseCBLMagnet(magnet)
	if err != nil {
		return nil, err
	}
	b1, err := w.fetchOrRecover(m.Block1Id)
	if err != nil {
		return nil, err
	}
	b2, err := w.fetchOrRecover(m.Block2Id)
	if err != nil {
		return nil, err
	}
	return XORBytes(b1, b2)
}

func (w *CBLWhitener) fetchOrRecover(id BlockId) ([]byte, error) {
	data, err := w.store.GetData(id)
	if err == nil {
		return data, nil
	}
	recovered, rerr := w.store.RecoverBlock(id)
	if rerr != nil {
		return nil, err
	}
	return recovered.Bytes, nil
}
