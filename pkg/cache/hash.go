package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey builds a cache key "prefix:sha256(parts)". The prefix names
// the stage (story, pathway, artifact) so entries stay distinguishable
// in Redis listings; the hash covers the content hash plus every option
// that shapes the cached result.
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// Hash returns the hex SHA-256 of data. It is the content hash used
// for story batches and folded pathways; the full 64 chars are kept so
// distinct pathways cannot collide.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
