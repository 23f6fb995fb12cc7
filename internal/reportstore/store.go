// Package reportstore persists completed decode results under short
// non-guessable ids so reports can be shared by URL.
package reportstore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/leaselens/leaselens/internal/kv"
	"github.com/leaselens/leaselens/internal/model"
)

// MappingTTL is how long a published report stays retrievable.
const MappingTTL = 7 * 24 * time.Hour

const idBytes = 12 // 96 bits of entropy, 16 base64url chars

// Store reads and writes ReportMappings. Mappings are immutable once saved.
type Store struct {
	kv kv.Store
}

func New(store kv.Store) *Store { return &Store{kv: store} }

func mappingKey(id string) string { return "report:" + id + ":v1" }

// NewID returns a random URL-safe report id.
func NewID() (string, error) {
	buf := make([]byte, idBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "generate report id")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Save persists the mapping under its id. The id must already be set.
func (s *Store) Save(ctx context.Context, m *model.ReportMapping) error {
	if m.ID == "" {
		return model.NewValidation("report mapping has no id")
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "marshal report mapping")
	}
	return s.kv.Set(ctx, mappingKey(m.ID), raw, MappingTTL)
}

func imageKey(id string) string { return "shareimage:" + id + ":v1" }

// SaveImage stores the rendered share card for id, same lifetime as the
// mapping itself.
func (s *Store) SaveImage(ctx context.Context, id string, svg []byte) error {
	if id == "" {
		return model.NewValidation("share image has no report id")
	}
	return s.kv.Set(ctx, imageKey(id), svg, MappingTTL)
}

// Image returns the share card for id if one was rendered.
func (s *Store) Image(ctx context.Context, id string) ([]byte, error) {
	raw, err := s.kv.Get(ctx, imageKey(id))
	if err == kv.ErrNotFound {
		return nil, model.NewNotFound("share image not found or expired")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load share image")
	}
	return raw, nil
}

// Get returns the mapping for id, or a NotFound error if it never existed or
// has expired.
func (s *Store) Get(ctx context.Context, id string) (*model.ReportMapping, error) {
	raw, err := s.kv.Get(ctx, mappingKey(id))
	if err == kv.ErrNotFound {
		return nil, model.NewNotFound("report not found or expired")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load report mapping")
	}
	var m model.ReportMapping
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, model.NewParse("corrupt report mapping", err)
	}
	return &m, nil
}
