package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Base is embedded in every stored document. ID is the canonical,
// human-readable identifier; ObjectID is the store's native key and is only
// used to resolve references arriving at the HTTP boundary.
type Base struct {
	ObjectID  primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	ID        string             `bson:"customId" json:"id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (b *Base) Meta() *Base { return b }

// Touch stamps the document before it is written.
func (b *Base) Touch(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// NewID returns "<prefix>-XXXXXXXX".
func NewID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(raw[:8])
}
