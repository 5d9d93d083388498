// Package orderedmap provides a string-keyed map that preserves insertion
// (and JSON object key) order. Several manifest shapes in wsmigrate's
// domain are order-sensitive — packageJsonUpdates entries are walked in
// declared order, generators run in declared manifest order — and Go's
// map type gives no such guarantee, so this fills the gap the same way a
// JS object's own-key iteration order would in the original tool.
package orderedmap

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Map is an insertion-ordered string-keyed map.
type Map[V any] struct {
	keys []string
	vals map[string]V
}

// New creates an empty Map.
func New[V any]() *Map[V] {
	return &Map[V]{vals: make(map[string]V)}
}

// Set inserts or updates the value for key, preserving the original
// position of key if it already existed.
func (m *Map[V]) Set(key string, v V) {
	if m.vals == nil {
		m.vals = make(map[string]V)
	}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Get returns the value for key and whether it was present.
func (m *Map[V]) Get(key string) (V, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Delete removes key from the map.
func (m *Map[V]) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Map[V]) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	return len(m.keys)
}

// Range calls fn for every entry in order, stopping early if fn returns false.
func (m *Map[V]) Range(fn func(key string, v V) bool) {
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// Clone returns a shallow copy with its own key ordering slice.
func (m *Map[V]) Clone() *Map[V] {
	out := New[V]()
	m.Range(func(k string, v V) bool {
		out.Set(k, v)
		return true
	})
	return out
}

// MarshalJSON writes the map as a JSON object with keys in insertion order.
func (m *Map[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, preserving the source key order.
func (m *Map[V]) UnmarshalJSON(data []byte) error {
	keys, raw, err := DecodeOrderedObject(data)
	if err != nil {
		return err
	}
	m.keys = nil
	m.vals = make(map[string]V)
	for _, k := range keys {
		var v V
		if err := json.Unmarshal(raw[k], &v); err != nil {
			return fmt.Errorf("orderedmap: key %q: %w", k, err)
		}
		m.Set(k, v)
	}
	return nil
}

// DecodeOrderedObject decodes a JSON object's keys in source order along
// with their still-encoded raw values, using the streaming token decoder
// since encoding/json's map decoding does not preserve key order.
func DecodeOrderedObject(data []byte) ([]string, map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, nil, fmt.Errorf("orderedmap: expected JSON object, got %v", tok)
	}

	var keys []string
	raw := make(map[string]json.RawMessage)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("orderedmap: expected string key, got %v", keyTok)
		}

		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("orderedmap: decoding value for %q: %w", key, err)
		}

		if _, exists := raw[key]; !exists {
			keys = append(keys, key)
		}
		raw[key] = v
	}

	return keys, raw, nil
}
