package core

// supercbl.go – the Super-CBL service (§4.9): when a file's address list
// does not fit in one CBL at the configured block size, split it into
// Sub-CBLs (plain RegularCBLv2 manifests, §4.7) and, if even their magnet
// URLs don't fit in one manifest, wrap them in a Super-CBL node and nest
// further. Fixes the URL-vs-address capacity conflation the pseudocode
// left as an open question (§9, decided in DESIGN.md): wrapping rounds use
// URLCapacity, a ceiling computed from the 512-byte magnet-URL budget
// (MaxMagnetURLLen) rather than CBLCapacity's 32-byte-address assumption.

import (
	"encoding/json"
	"time"
)

// CBLNodeType discriminates a stored manifest's shape during reconstruction.
// A RegularCBLv2 leaf is identified structurally (its buffer starts with
// cblMagicByte, §4.7) rather than carrying this field; CBLNodeSuper is the
// only value a Super-CBL node's envelope ever sets.
type CBLNodeType string

// CBLNodeSuper marks a stored buffer as a Super-CBL node rather than a leaf.
const CBLNodeSuper CBLNodeType = "super-cbl"

const (
	// superCBLMagicByte is the first byte of a Super-CBL node's envelope,
	// analogous to cblMagicByte for a RegularCBLv2 leaf.
	superCBLMagicByte byte = 0xCE
	// MaxMagnetURLLen bounds the length of a single magnet URL this service
	// will plan around (§9 Open Question #3).
	MaxMagnetURLLen = 512
	// DefaultMaxDepth is the recursion ceiling applied when SuperCBLConfig
	// leaves MaxDepth unset.
	DefaultMaxDepth = 10
	// superCBLNodeOverhead is a conservative reservation for the envelope's
	// fixed JSON fields (type, version, depth, subCblCount, totalBlockCount)
	// ahead of the url array itself.
	superCBLNodeOverhead = 128
)

// SuperCBLConfig parameterizes both hierarchical construction and
// reconstruction; the same config used to build a hierarchy must be used to
// walk it back (mismatched BlockSize would misinterpret capacity at every
// level).
type SuperCBLConfig struct {
	BlockSize    BlockSize
	TupleSize    uint8
	FileName     string
	MimeType     string
	OriginalSize uint64
	MaxDepth     int
	Durability   DurabilityLevel
}

func (c SuperCBLConfig) maxDepth() int {
	if c.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return c.MaxDepth
}

// superCBLNode is the on-wire, JSON-encoded envelope for an intermediate or
// root Super-CBL manifest.
type superCBLNode struct {
	Type             CBLNodeType `json:"type"`
	Version          CBLVersion  `json:"version"`
	Depth            int         `json:"depth"`
	SubCblCount      int         `json:"subCblCount"`
	SubCblMagnetUrls []string    `json:"subCblMagnetUrls"`
	TotalBlockCount  int         `json:"totalBlockCount"`
	BlockSize        BlockSize   `json:"blockSize"`
	FileName         string      `json:"fileName,omitempty"`
	OriginalDataLen  uint64      `json:"originalDataLen"`
}

// subCblRef threads a stored sub-manifest's magnet URL alongside the number
// of original data blocks it (transitively) accounts for, so every level's
// TotalBlockCount can be computed honestly rather than assumed equal to the
// grand total (needed once more than one Super-CBL node exists at a level).
type subCblRef struct {
	MagnetUrl  string
	BlockCount int
}

// URLCapacity returns the maximum number of magnet URLs a single Super-CBL
// node of blockSize bytes can hold, reserving superCBLNodeOverhead bytes for
// the envelope's other fields and assuming each URL may be as long as
// MaxMagnetURLLen. The raw count is raised to 4 when smaller, then rounded
// down to a multiple of cblMinTupleSize, so the smallest result is 3,
// matching the rounding convention DESIGN.md settled on.
func URLCapacity(blockSize BlockSize) int {
	avail := int(blockSize) - superCBLNodeOverhead
	raw := avail / MaxMagnetURLLen
	if raw < 4 {
		raw = 4
	}
	rounded := (raw / cblMinTupleSize) * cblMinTupleSize
	if rounded < cblMinTupleSize {
		rounded = cblMinTupleSize
	}
	return rounded
}

// SuperCBLService builds and walks hierarchical CBL manifests over a
// CBLWhitener.
type SuperCBLService struct {
	whitener *CBLWhitener
}

// NewSuperCBLService wraps whitener with hierarchical manifest support.
func NewSuperCBLService(whitener *CBLWhitener) *SuperCBLService {
	return &SuperCBLService{whitener: whitener}
}

// CreateHierarchical stores blocks' address list as a CBL, splitting into
// Sub-CBLs and, if necessary, nested Super-CBL levels, and returns the
// magnet URL of the manifest a caller should hand to Reconstruct. signer
// authenticates every leaf RegularCBLv2 manifest produced.
func (s *SuperCBLService) CreateHierarchical(blocks []BlockId, cfg SuperCBLConfig, signer CBLSigner, crypto CryptoProvider) (string, error) {
	capacity := CBLCapacity(cfg.BlockSize, len(signer.creatorId()), cfg.FileName, cfg.MimeType, cfg.TupleSize, EncryptionNone, 0)
	if capacity <= 0 {
		return "", ErrCblInvalidField("blockSize", "too small to address any block")
	}
	if len(blocks) <= capacity {
		return s.storeRegularLeaf(blocks, cfg, signer, crypto)
	}

	chunks := partitionBlockIds(blocks, capacity)
	refs := make([]subCblRef, len(chunks))
	for i, chunk := range chunks {
		url, err := s.storeRegularLeaf(chunk, cfg, signer, crypto)
		if err != nil {
			return "", err
		}
		refs[i] = subCblRef{MagnetUrl: url, BlockCount: len(chunk)}
	}
	return s.wrapRefs(refs, 2, cfg)
}

// wrapRefs stores refs as a Super-CBL node at depth, nesting into further
// depth+1 levels if their count exceeds a single node's URLCapacity.
func (s *SuperCBLService) wrapRefs(refs []subCblRef, depth int, cfg SuperCBLConfig) (string, error) {
	if depth > cfg.maxDepth() {
		return "", ErrMaxDepthExceeded(depth, cfg.maxDepth())
	}
	capacity := URLCapacity(cfg.BlockSize)
	if len(refs) <= capacity {
		return s.storeSuperNode(refs, depth, cfg)
	}

	groups := partitionRefs(refs, capacity)
	nextRefs := make([]subCblRef, len(groups))
	for i, g := range groups {
		url, err := s.storeSuperNode(g, depth, cfg)
		if err != nil {
			return "", err
		}
		nextRefs[i] = subCblRef{MagnetUrl: url, BlockCount: sumBlockCounts(g)}
	}
	return s.wrapRefs(nextRefs, depth+1, cfg)
}

func (s *SuperCBLService) storeSuperNode(refs []subCblRef, depth int, cfg SuperCBLConfig) (string, error) {
	urls := make([]string, len(refs))
	total := 0
	for i, r := range refs {
		urls[i] = r.MagnetUrl
		total += r.BlockCount
	}
	node := superCBLNode{
		Type:             CBLNodeSuper,
		Version:          CBLv2,
		Depth:            depth,
		SubCblCount:      len(urls),
		SubCblMagnetUrls: urls,
		TotalBlockCount:  total,
		BlockSize:        cfg.BlockSize,
		FileName:         cfg.FileName,
		OriginalDataLen:  cfg.OriginalSize,
	}
	payload, err := json.Marshal(node)
	if err != nil {
		return "", ErrInvalidCBLFormat("marshal super-cbl node: " + err.Error())
	}
	envelope := append([]byte{superCBLMagicByte}, payload...)
	padded, err := PadWithLengthPrefix(envelope, int(cfg.BlockSize))
	if err != nil {
		return "", err
	}
	result, err := s.whitener.Store(padded, cfg.BlockSize, cfg.Durability)
	if err != nil {
		return "", err
	}
	return result.MagnetUrl, nil
}

func (s *SuperCBLService) storeRegularLeaf(blocks []BlockId, cfg SuperCBLConfig, signer CBLSigner, crypto CryptoProvider) (string, error) {
	cbl := &CBL{
		BlockSize:       cfg.BlockSize,
		TupleSize:       cfg.TupleSize,
		OriginalDataLen: cfg.OriginalSize,
		Addresses:       blocks,
		FileName:        cfg.FileName,
		MimeType:        cfg.MimeType,
		CreatedAt:       time.Now(),
	}
	encoded, err := Encode(cbl, signer, crypto)
	if err != nil {
		return "", err
	}
	result, err := s.whitener.Store(encoded, cfg.BlockSize, cfg.Durability)
	if err != nil {
		return "", err
	}
	return result.MagnetUrl, nil
}

// Reconstruct walks the manifest tree rooted at magnetURL depth-first,
// returning the original, fully-ordered block address list.
func (s *SuperCBLService) Reconstruct(magnetURL string) ([]BlockId, error) {
	ids, _, err := s.reconstruct(magnetURL, 0)
	return ids, err
}

// AssembleFile walks the manifest tree rooted at magnetURL, fetches every
// referenced block (recovering via parity when a direct read fails),
// concatenates them in order, and trims the result to the manifest's
// recorded original length, undoing ChunkData's zero-padding of the final
// chunk.
func (s *SuperCBLService) AssembleFile(magnetURL string) ([]byte, error) {
	ids, originalLen, err := s.reconstruct(magnetURL, 0)
	if err != nil {
		return nil, err
	}
	var out []byte
	for _, id := range ids {
		data, err := s.fetchBlock(id)
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	if uint64(len(out)) > originalLen {
		out = out[:originalLen]
	}
	return out, nil
}

func (s *SuperCBLService) fetchBlock(id BlockId) ([]byte, error) {
	data, err := s.whitener.store.GetData(id)
	if err == nil {
		return data, nil
	}
	recovered, rerr := s.whitener.store.RecoverBlock(id)
	if rerr != nil {
		return nil, err
	}
	return recovered.Bytes, nil
}

func (s *SuperCBLService) reconstruct(magnetURL string, parentDepth int) ([]BlockId, uint64, error) {
	buf, err := s.whitener.Retrieve(magnetURL)
	if err != nil {
		return nil, 0, ErrMissingSubCBL(magnetURL, err)
	}
	isSuper, isEncrypted, payload, err := peekCBLBufferType(buf)
	if err != nil {
		return nil, 0, err
	}
	if isEncrypted {
		return nil, 0, ErrCblEncrypted()
	}
	if !isSuper {
		cbl, err := Decode(buf)
		if err != nil {
			return nil, 0, ErrMissingSubCBL(magnetURL, err)
		}
		return cbl.Addresses, cbl.OriginalDataLen, nil
	}

	var node superCBLNode
	if err := json.Unmarshal(payload[1:], &node); err != nil {
		return nil, 0, ErrInvalidCBLFormat("malformed super-cbl node")
	}
	if node.Type != CBLNodeSuper {
		return nil, 0, ErrInvalidCBLType(string(node.Type))
	}
	if node.Version != CBLv2 {
		return nil, 0, ErrInvalidCBLFormat("unsupported super-cbl version")
	}
	if parentDepth != 0 && node.Depth >= parentDepth {
		return nil, 0, ErrInvalidCBLFormat("super-cbl depth did not decrease toward leaves")
	}

	var all []BlockId
	for _, childUrl := range node.SubCblMagnetUrls {
		children, _, err := s.reconstruct(childUrl, node.Depth)
		if err != nil {
			return nil, 0, err
		}
		all = append(all, children...)
	}
	if len(all) != node.TotalBlockCount {
		return nil, 0, ErrBlockCountMismatch(node.TotalBlockCount, len(all))
	}
	return all, node.OriginalDataLen, nil
}

// peekCBLBufferType unwraps a manifest buffer's outer length-prefix frame
// and classifies its payload by magic byte, without fully decoding it.
func peekCBLBufferType(buf []byte) (isSuper, isEncrypted bool, payload []byte, err error) {
	payload, _, err = DecodeFramed(buf)
	if err != nil {
		return false, false, nil, ErrInvalidCBLFormat("truncated buffer")
	}
	if len(payload) == 0 {
		return false, false, nil, ErrInvalidCBLFormat("empty buffer")
	}
	switch payload[0] {
	case eciesMagicByte:
		return false, true, payload, nil
	case cblMagicByte:
		return false, false, payload, nil
	case superCBLMagicByte:
		return true, false, payload, nil
	default:
		return false, false, nil, ErrInvalidCBLType(uintToString(uint64(payload[0])))
	}
}

func partitionBlockIds(ids []BlockId, size int) [][]BlockId {
	var out [][]BlockId
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[i:end])
	}
	return out
}

func partitionRefs(refs []subCblRef, size int) [][]subCblRef {
	var out [][]subCblRef
	for i := 0; i < len(refs); i += size {
		end := i + size
		if end > len(refs) {
			end = len(refs)
		}
		out = append(out, refs[i:end])
	}
	return out
}

func sumBlockCounts(refs []subCblRef) int {
	total := 0
	for _, r := range refs {
		total += r.BlockCount
	}
	return total
}
