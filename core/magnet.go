package core

// magnet.go – magnet URL codec shared by the TUPLE and CBL whitening layers
// (§6). Built on net/url for percent-encoding, mirroring the teacher's
// practice in core/storage.go of constructing/parsing gateway URLs with the
// standard library rather than hand-rolled string splitting.

import (
	"net/url"
	"strconv"
	"strings"
)

func uintToString(v uint64) string { return strconv.FormatUint(v, 10) }

func parseUint(s string) (uint64, error) { return strconv.ParseUint(s, 10, 64) }

const (
	cblMagnetScheme   = "urn:brightchain:cbl"
	tupleMagnetScheme = "urn:brightchain:tuple"
)

func hexList(ids []BlockId) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.Hex()
	}
	return strings.Join(parts, ",")
}

func parseHexList(s string) ([]BlockId, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]BlockId, len(parts))
	for i, p := range parts {
		id, err := BlockIdFromHex(p)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

// EncodeCBLMagnet renders m as a `magnet:?xt=urn:brightchain:cbl&...` URL.
func EncodeCBLMagnet(m CBLMagnet) string {
	v := url.Values{}
	v.Set("xt", cblMagnetScheme)
	v.Set("bs", uintToString(uint64(m.BlockSize)))
	v.Set("b1", m.Block1Id.Hex())
	v.Set("b2", m.Block2Id.Hex())
	if len(m.Block1ParityIds) > 0 {
		v.Set("p1", hexList(m.Block1ParityIds))
	}
	if len(m.Block2ParityIds) > 0 {
		v.Set("p2", hexList(m.Block2ParityIds))
	}
	if m.Encrypted {
		v.Set("enc", "1")
	}
	return "magnet:?" + v.Encode()
}

// ParseCBLMagnet is the inverse of EncodeCBLMagnet.
func ParseCBLMagnet(magnet string) (CBLMagnet, error) {
	var m CBLMagnet
	v, err := parseMagnetValues(magnet)
	if err != nil {
		return m, err
	}
	if v.Get("xt") != cblMagnetScheme {
		return m, ErrValidationFailed("magnet: not a cbl magnet url")
	}
	bs, err := parseUintField(v, "bs")
	if err != nil {
		return m, err
	}
	m.BlockSize = BlockSize(bs)
	if m.Block1Id, err = BlockIdFromHex(v.Get("b1")); err != nil {
		return m, err
	}
	if m.Block2Id, err = BlockIdFromHex(v.Get("b2")); err != nil {
		return m, err
	}
	if m.Block1ParityIds, err = parseHexList(v.Get("p1")); err != nil {
		return m, err
	}
	if m.Block2ParityIds, err = parseHexList(v.Get("p2")); err != nil {
		return m, err
	}
	m.Encrypted = v.Get("enc") == "1"
	return m, nil
}

// EncodeTupleMagnet renders m as a `magnet:?xt=urn:brightchain:tuple&...` URL.
func EncodeTupleMagnet(m TupleMagnet) string {
	v := url.Values{}
	v.Set("xt", tupleMagnetScheme)
	v.Set("bs", uintToString(uint64(m.BlockSize)))
	v.Set("d", m.DataBlockId.Hex())
	v.Set("r1", m.RandomizerBlockIds[0].Hex())
	v.Set("r2", m.RandomizerBlockIds[1].Hex())
	if len(m.DataParityIds) > 0 {
		v.Set("pd", hexList(m.DataParityIds))
	}
	if len(m.Randomizer1ParityIds) > 0 {
		v.Set("pr1", hexList(m.Randomizer1ParityIds))
	}
	if len(m.Randomizer2ParityIds) > 0 {
		v.Set("pr2", hexList(m.Randomizer2ParityIds))
	}
	return "magnet:?" + v.Encode()
}

// ParseTupleMagnet is the inverse of EncodeTupleMagnet.
func ParseTupleMagnet(magnet string) (TupleMagnet, error) {
	var m TupleMagnet
	v, err := parseMagnetValues(magnet)
	if err != nil {
		return m, err
	}
	if v.Get("xt") != tupleMagnetScheme {
		return m, ErrValidationFailed("magnet: not a tuple magnet url")
	}
	bs, err := parseUintField(v, "bs")
	if err != nil {
		return m, err
	}
	m.BlockSize = BlockSize(bs)
	if m.DataBlockId, err = BlockIdFromHex(v.Get("d")); err != nil {
		return m, err
	}
	r1, err := BlockIdFromHex(v.Get("r1"))
	if err != nil {
		return m, err
	}
	r2, err := BlockIdFromHex(v.Get("r2"))
	if err != nil {
		return m, err
	}
	m.RandomizerBlockIds = [2]BlockId{r1, r2}
	if m.DataParityIds, err = parseHexList(v.Get("pd")); err != nil {
		return m, err
	}
	if m.Randomizer1ParityIds, err = parseHexList(v.Get("pr1")); err != nil {
		return m, err
	}
	if m.Randomizer2ParityIds, err = parseHexList(v.Get("pr2")); err != nil {
		return m, err
	}
	return m, nil
}

func parseMagnetValues(magnet string) (url.Values, error) {
	const prefix = "magnet:?"
	if !strings.HasPrefix(magnet, prefix) {
		return nil, ErrValidationFailed("magnet: missing magnet:? prefix")
	}
	v, err := url.ParseQuery(strings.TrimPrefix(magnet, prefix))
	if err != nil {
		return nil, ErrValidationFailed("magnet: malformed query")
	}
	return v, nil
}

func parseUintField(v url.Values, key string) (uint64, error) {
	s := v.Get(key)
	n, err := parseUint(s)
	if err != nil {
		return 0, ErrValidationFailed("magnet: invalid " + key)
	}
	return n, nil
}
