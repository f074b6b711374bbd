package publisher

import (
	"context"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// ContentType is the media type of every published document.
const ContentType = "text/html; charset=utf-8"

// Publisher overwrites the single public status page. There is no
// versioning: the last successful Publish wins.
type Publisher interface {
	Publish(ctx context.Context, doc []byte) error
}

// Digest returns the hex BLAKE3-256 digest of doc.
func Digest(doc []byte) string {
	sum := blake3.Sum256(doc)
	return hex.EncodeToString(sum[:])
}
