package localstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// Stable keys shared with the web client.
const (
	KeyAddress         = "endereco"
	KeyToken           = "token"
	KeyUser            = "usuario"
	KeyEstablishment   = "estabelecimento"
	KeyEstablishmentID = "id_estabelecimento"
	KeyCart            = "carrinho"
	KeySession         = "sessao"
)

// SessionKeys are cleared on logout and session expiry.
var SessionKeys = []string{KeyToken, KeyUser, KeyEstablishment, KeyEstablishmentID}

// Store is a durable string key/value store. Get returns domain.ErrNotFound for absent keys;
// Remove of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// GetJSON decodes the value under key into out.
func GetJSON(ctx context.Context, s Store, key string, out interface{}) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON stores v serialized as JSON under key.
func SetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(raw))
}

// RemoveAll removes every key, returning the first error.
func RemoveAll(ctx context.Context, s Store, keys ...string) error {
	var first error
	for _, k := range keys {
		if err := s.Remove(ctx, k); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type prefixed struct {
	base   Store
	prefix string
}

// WithPrefix scopes every key of base under prefix.
func WithPrefix(base Store, prefix string) Store {
	return &prefixed{base: base, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) (string, error) {
	return p.base.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.base.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Remove(ctx context.Context, key string) error {
	return p.base.Remove(ctx, p.prefix+key)
}
