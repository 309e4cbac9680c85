package identity

import (
	"strconv"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// GroupUUID derives the identifier for an imported approver group. Scope keeps
// node-level, content-type-level, and default assignments from colliding when
// they share a name.
func GroupUUID(name, scope string, step int) uuid.UUID {
	key := "go-approvals:group:" + strings.ToLower(strings.TrimSpace(name)) + ":" + strings.TrimSpace(scope) + ":" + strconv.Itoa(step)
	return UUID(key)
}

// DefaultGroupUUID derives the identifier for the system-wide default approver group.
func DefaultGroupUUID() uuid.UUID {
	return UUID("go-approvals:group:default")
}
