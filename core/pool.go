package core

// pool.go – optional pool-scoping of the storage key space (§4.5 "Pool
// scoping"). A poolId namespaces keys as "<poolId>:<hex>"; pool ids cannot
// contain colons, so ParseStorageKey splits at the first colon.

import (
	"regexp"
	"strings"
)

var poolIdPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ReservedPoolId is the reserved default pool identifier.
const ReservedPoolId = "default"

// IsValidPoolId reports whether s is a syntactically valid pool id.
func IsValidPoolId(s string) bool {
	return poolIdPattern.MatchString(s)
}

// MakeStorageKey namespaces hexId under poolId, or returns hexId unchanged
// if poolId is empty.
func MakeStorageKey(poolId, hexId string) string {
	if poolId == "" {
		return hexId
	}
	return poolId + ":" + hexId
}

// ParseStorageKey splits a namespaced storage key at its first colon,
// returning ("", key) if key carries no pool prefix.
func ParseStorageKey(key string) (poolId, hexId string) {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i], key[i+1:]
	}
	return "", key
}
