package ap

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// CanonicalActivityJSON renders the identity-bearing fields of an activity as
// canonical JSON. Field order is fixed by hand so the bytes are reproducible
// across processes and releases; the derived id must never drift for the same
// (type, actor, object) triple
func CanonicalActivityJSON(typ, actor, object string) []byte {
	buf := []byte(`{"@context":`)
	buf = appendJSONString(buf, Context)
	buf = append(buf, `,"type":`...)
	buf = appendJSONString(buf, typ)
	buf = append(buf, `,"actor":`...)
	buf = appendJSONString(buf, actor)
	buf = append(buf, `,"object":`...)
	buf = appendJSONString(buf, object)
	buf = append(buf, '}')
	return buf
}

func appendJSONString(buf []byte, s string) []byte {
	b, _ := json.Marshal(s)
	return append(buf, b...)
}

// ActivityDigest is the SHA-256 hex digest of the canonical activity JSON
func ActivityDigest(typ, actor, object string) string {
	sum := sha256.Sum256(CanonicalActivityJSON(typ, actor, object))
	return hex.EncodeToString(sum[:])
}

// ActivityID derives the deterministic activity id
// shape: {origin}/{username}#{type}/{hexDigest}
//
// Two logically identical activities always share an id; remote servers that
// deduplicate by id therefore see a re-send as the same activity
func ActivityID(origin, username, typ, actor, object string) string {
	return origin + "/" + username + "#" + typ + "/" + ActivityDigest(typ, actor, object)
}
