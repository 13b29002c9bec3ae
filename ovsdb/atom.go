package ovsdb

import (
	"encoding/json"
)

// OVSDB encodes column values with a tagged-pair convention on top of plain
// JSON. A scalar appears bare. Everything else is a 2-element array where the
// first element is one of four reserved tag strings:
//
//     ["uuid", "<uuid>"]
//     ["named-uuid", "<name>"]
//     ["set", [<value>, ...]]
//     ["map", [[<key>, <value>], ...]]
//
// Disambiguation depends only on the tag, never on schema. An array that is
// not one of these shapes is a hard decode error, not a best effort guess.

// Atom is one decoded OVSDB value.
type Atom interface {
	isAtom()
}

type Bool bool

type Number float64

type Text string

// Uuid is a reference to a committed row.
type Uuid string

// NamedUuid is a transaction-local forward reference. It only appears in
// transact replies, but the decoder tolerates it anywhere a uuid can appear.
type NamedUuid string

type Set []Atom

type Pair struct {
	Key Atom
	Value Atom
}

// Map preserves wire order. OVSDB maps are semantically unordered, and
// duplicate keys pass through verbatim for the consumer to reject or merge.
type Map []Pair

func (Bool) isAtom() {}
func (Number) isAtom() {}
func (Text) isAtom() {}
func (Uuid) isAtom() {}
func (NamedUuid) isAtom() {}
func (Set) isAtom() {}
func (Map) isAtom() {}

// DecodeAtom decodes one OVSDB-encoded JSON value. `v` is a generic decoded
// JSON value as produced by `encoding/json` into `any`.
func DecodeAtom(v any) (Atom, error) {
	switch t := v.(type) {
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, newDecodeError(ErrTypeMismatch, "bad number %s", t)
		}
		return Number(f), nil
	case string:
		return Text(t), nil
	case []any:
		return decodeTaggedPair(t)
	default:
		return nil, newDecodeError(ErrTypeMismatch, "cannot decode %T as an ovsdb value", v)
	}
}

func isUuidPair(v []any) bool {
	if len(v) != 2 {
		return false
	}
	tag, ok := v[0].(string)
	if !ok {
		return false
	}
	return tag == "uuid" || tag == "named-uuid"
}

func decodeTaggedPair(pair []any) (Atom, error) {
	if len(pair) != 2 {
		return nil, newDecodeError(ErrInvalidLength, "tagged pair has %d elements, expected 2", len(pair))
	}

	tag, ok := pair[0].(string)
	if !ok {
		return nil, newDecodeError(ErrUnknownEncoding, "tagged pair starts with %T, expected a tag string", pair[0])
	}

	switch tag {
	case "uuid":
		uuid, ok := pair[1].(string)
		if !ok {
			return nil, newDecodeError(ErrMalformedUuid, "uuid payload is %T, expected a string", pair[1])
		}
		return Uuid(uuid), nil
	case "named-uuid":
		name, ok := pair[1].(string)
		if !ok {
			return nil, newDecodeError(ErrMalformedUuid, "named-uuid payload is %T, expected a string", pair[1])
		}
		return NamedUuid(name), nil
	case "set":
		members, ok := pair[1].([]any)
		if !ok {
			return nil, newDecodeError(ErrTypeMismatch, "set payload is %T, expected an array", pair[1])
		}
		// OVSDB shortens a one-member set to the bare member pair
		if isUuidPair(members) {
			member, err := decodeTaggedPair(members)
			if err != nil {
				return nil, err
			}
			return Set{member}, nil
		}
		set := Set{}
		for _, member := range members {
			atom, err := DecodeAtom(member)
			if err != nil {
				return nil, err
			}
			set = append(set, atom)
		}
		return set, nil
	case "map":
		entries, ok := pair[1].([]any)
		if !ok {
			return nil, newDecodeError(ErrTypeMismatch, "map payload is %T, expected an array", pair[1])
		}
		m := Map{}
		for _, entry := range entries {
			kv, ok := entry.([]any)
			if !ok {
				return nil, newDecodeError(ErrTypeMismatch, "map entry is %T, expected a 2-element array", entry)
			}
			if len(kv) != 2 {
				return nil, newDecodeError(ErrInvalidLength, "map entry has %d elements, expected 2", len(kv))
			}
			key, err := DecodeAtom(kv[0])
			if err != nil {
				return nil, err
			}
			value, err := DecodeAtom(kv[1])
			if err != nil {
				return nil, err
			}
			m = append(m, Pair{
				Key: key,
				Value: value,
			})
		}
		return m, nil
	default:
		return nil, newDecodeError(ErrUnknownEncoding, "unknown tag %q", tag)
	}
}
