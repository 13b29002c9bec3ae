package ovsdb

// ColumnShape selects the decode path for one column. The schema decides
// which column uses which path. It never changes how a tag is interpreted.
const (
	// the decoded Atom, whatever variant it is
	ShapeAtom = ColumnShape(0)
	// a uuid or named-uuid reference, unwrapped to the bare string
	ShapeUuid = ColumnShape(1)
	// a set of uuid references, unwrapped to a string slice.
	// OVSDB encodes a one-member set as a bare uuid pair, which decodes
	// to a singleton here.
	ShapeUuidSet = ColumnShape(2)
	// the raw JSON value untouched, for columns the caller does not model
	ShapeRaw = ColumnShape(3)
)

type ColumnShape int

// ColumnSpecs enumerates the columns of interest for one table.
// Wire columns not listed here are ignored, so a newer server schema does
// not break an older client.
type ColumnSpecs map[string]ColumnShape

// RowPart is the old or new half of a row diff: the changed columns and
// their decoded values. A column absent from the map was not reported in
// this cycle, which is different from a column reported as empty.
//
// Values are typed per the column's shape: Atom for ShapeAtom, string for
// ShapeUuid, []string for ShapeUuidSet, and the undecoded JSON value for
// ShapeRaw.
type RowPart map[string]any

func (self RowPart) Has(column string) bool {
	_, ok := self[column]
	return ok
}

func (self RowPart) Atom(column string) (Atom, bool) {
	atom, ok := self[column].(Atom)
	return atom, ok
}

// Text returns a ShapeAtom column that decoded as a string.
func (self RowPart) Text(column string) (string, bool) {
	text, ok := self[column].(Text)
	return string(text), ok
}

func (self RowPart) Number(column string) (float64, bool) {
	number, ok := self[column].(Number)
	return float64(number), ok
}

func (self RowPart) Uuid(column string) (string, bool) {
	uuid, ok := self[column].(string)
	return uuid, ok
}

func (self RowPart) UuidSet(column string) ([]string, bool) {
	uuids, ok := self[column].([]string)
	return uuids, ok
}

func (self RowPart) Raw(column string) (any, bool) {
	v, ok := self[column]
	return v, ok
}

// DecodeRowPart decodes one old/new half of a row diff against the table's
// column specs. The decode is atomic: any column that fails its declared
// shape fails the whole row part, with the error naming table and column.
func DecodeRowPart(v any, table string, columns ColumnSpecs) (RowPart, error) {
	cells, ok := v.(map[string]any)
	if !ok {
		err := newDecodeError(ErrTypeMismatch, "row is %T, expected an object", v)
		return nil, annotateDecodeError(err, table, "", "")
	}

	part := RowPart{}
	for column, cell := range cells {
		shape, ok := columns[column]
		if !ok {
			continue
		}

		var decoded any
		var err error
		switch shape {
		case ShapeAtom:
			decoded, err = DecodeAtom(cell)
		case ShapeUuid:
			decoded, err = decodeUuidRef(cell)
		case ShapeUuidSet:
			decoded, err = decodeUuidSet(cell)
		case ShapeRaw:
			decoded = cell
		}
		if err != nil {
			return nil, annotateDecodeError(err, table, column, "")
		}
		part[column] = decoded
	}
	return part, nil
}

func decodeUuidRef(v any) (string, error) {
	atom, err := DecodeAtom(v)
	if err != nil {
		return "", err
	}
	switch t := atom.(type) {
	case Uuid:
		return string(t), nil
	case NamedUuid:
		return string(t), nil
	default:
		return "", newDecodeError(ErrTypeMismatch, "expected a uuid reference, decoded %T", atom)
	}
}

func decodeUuidSet(v any) ([]string, error) {
	atom, err := DecodeAtom(v)
	if err != nil {
		return nil, err
	}
	switch t := atom.(type) {
	case Set:
		uuids := []string{}
		for _, member := range t {
			switch m := member.(type) {
			case Uuid:
				uuids = append(uuids, string(m))
			case NamedUuid:
				uuids = append(uuids, string(m))
			default:
				return nil, newDecodeError(ErrTypeMismatch, "uuid set member is %T, expected a uuid reference", member)
			}
		}
		return uuids, nil
	case Uuid:
		// one-member set shorthand
		return []string{string(t)}, nil
	case NamedUuid:
		return []string{string(t)}, nil
	default:
		return nil, newDecodeError(ErrTypeMismatch, "expected a uuid set, decoded %T", atom)
	}
}
