package ovsdb

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/assert/v2"
)

// decode through encoding/json so the inputs are exactly the generic values
// the rpc layer hands over
func wire(t *testing.T, encoded string) any {
	var v any
	err := json.Unmarshal([]byte(encoded), &v)
	assert.Equal(t, err, nil)
	return v
}

func TestDecodeAtomScalars(t *testing.T) {
	atom, err := DecodeAtom(wire(t, `true`))
	assert.Equal(t, err, nil)
	assert.Equal(t, atom, Bool(true))

	atom, err = DecodeAtom(wire(t, `42.5`))
	assert.Equal(t, err, nil)
	assert.Equal(t, atom, Number(42.5))

	atom, err = DecodeAtom(wire(t, `"sw1"`))
	assert.Equal(t, err, nil)
	assert.Equal(t, atom, Text("sw1"))
}

func TestDecodeAtomUuid(t *testing.T) {
	atom, err := DecodeAtom(wire(t, `["uuid", "d3a21f00-4459-4593-8bcb-b30acba2f6d6"]`))
	assert.Equal(t, err, nil)
	assert.Equal(t, atom, Uuid("d3a21f00-4459-4593-8bcb-b30acba2f6d6"))

	atom, err = DecodeAtom(wire(t, `["named-uuid", "row0"]`))
	assert.Equal(t, err, nil)
	assert.Equal(t, atom, NamedUuid("row0"))

	_, err = DecodeAtom(wire(t, `["uuid", 7]`))
	decodeErr, ok := IsDecodeError(err)
	assert.Equal(t, ok, true)
	assert.Equal(t, decodeErr.Kind, ErrMalformedUuid)
}

func TestDecodeAtomSet(t *testing.T) {
	atom, err := DecodeAtom(wire(t, `["set", [["uuid", "a"], ["uuid", "b"]]]`))
	assert.Equal(t, err, nil)
	assert.Equal(t, atom, Set{Uuid("a"), Uuid("b")})

	atom, err = DecodeAtom(wire(t, `["set", ["x", "y", "z"]]`))
	assert.Equal(t, err, nil)
	assert.Equal(t, atom, Set{Text("x"), Text("y"), Text("z")})
}

func TestDecodeAtomEmptySet(t *testing.T) {
	atom, err := DecodeAtom(wire(t, `["set", []]`))
	assert.Equal(t, err, nil)
	assert.Equal(t, atom, Set{})
}

func TestDecodeAtomSingletonSetShorthand(t *testing.T) {
	shorthand, err := DecodeAtom(wire(t, `["set", ["uuid", "x"]]`))
	assert.Equal(t, err, nil)

	full, err := DecodeAtom(wire(t, `["set", [["uuid", "x"]]]`))
	assert.Equal(t, err, nil)

	assert.Equal(t, shorthand, full)
	assert.Equal(t, shorthand, Set{Uuid("x")})
}

func TestDecodeAtomMap(t *testing.T) {
	atom, err := DecodeAtom(wire(t, `["map", [["stp-enable", "true"], ["mac-aging-time", 300]]]`))
	assert.Equal(t, err, nil)
	assert.Equal(t, atom, Map{
		{Key: Text("stp-enable"), Value: Text("true")},
		{Key: Text("mac-aging-time"), Value: Number(300)},
	})
}

func TestDecodeAtomMapDuplicateKeys(t *testing.T) {
	// duplicates pass through in order, for the consumer to reject or merge
	atom, err := DecodeAtom(wire(t, `["map", [["k", "a"], ["k", "b"]]]`))
	assert.Equal(t, err, nil)
	assert.Equal(t, atom, Map{
		{Key: Text("k"), Value: Text("a")},
		{Key: Text("k"), Value: Text("b")},
	})
}

func TestDecodeAtomUnknownTag(t *testing.T) {
	_, err := DecodeAtom(wire(t, `["bogus", 1]`))
	decodeErr, ok := IsDecodeError(err)
	assert.Equal(t, ok, true)
	assert.Equal(t, decodeErr.Kind, ErrUnknownEncoding)

	_, err = DecodeAtom(wire(t, `[1, 2]`))
	decodeErr, ok = IsDecodeError(err)
	assert.Equal(t, ok, true)
	assert.Equal(t, decodeErr.Kind, ErrUnknownEncoding)
}

func TestDecodeAtomInvalidLength(t *testing.T) {
	_, err := DecodeAtom(wire(t, `[1, 2, 3]`))
	decodeErr, ok := IsDecodeError(err)
	assert.Equal(t, ok, true)
	assert.Equal(t, decodeErr.Kind, ErrInvalidLength)

	_, err = DecodeAtom(wire(t, `["uuid"]`))
	decodeErr, ok = IsDecodeError(err)
	assert.Equal(t, ok, true)
	assert.Equal(t, decodeErr.Kind, ErrInvalidLength)
}

func TestDecodeAtomMalformedMap(t *testing.T) {
	_, err := DecodeAtom(wire(t, `["map", [["k", "v", "extra"]]]`))
	decodeErr, ok := IsDecodeError(err)
	assert.Equal(t, ok, true)
	assert.Equal(t, decodeErr.Kind, ErrInvalidLength)

	_, err = DecodeAtom(wire(t, `["map", ["k"]]`))
	decodeErr, ok = IsDecodeError(err)
	assert.Equal(t, ok, true)
	assert.Equal(t, decodeErr.Kind, ErrTypeMismatch)
}

func TestDecodeAtomNull(t *testing.T) {
	_, err := DecodeAtom(wire(t, `null`))
	decodeErr, ok := IsDecodeError(err)
	assert.Equal(t, ok, true)
	assert.Equal(t, decodeErr.Kind, ErrTypeMismatch)
}
