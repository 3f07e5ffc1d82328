package shape

import (
	"encoding/json"
	"fmt"
)

func marshalTagged(t Type, v interface{}) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	head := fmt.Sprintf(`{"type":%q`, t)
	if len(body) <= 2 {
		return []byte(head + "}"), nil
	}
	return append([]byte(head+","), body[1:]...), nil
}

func (r *Rectangle) MarshalJSON() ([]byte, error) {
	type alias Rectangle
	return marshalTagged(TypeRectangle, (*alias)(r))
}

func (c *Circle) MarshalJSON() ([]byte, error) {
	type alias Circle
	return marshalTagged(TypeCircle, (*alias)(c))
}

func (t *Text) MarshalJSON() ([]byte, error) {
	type alias Text
	return marshalTagged(TypeText, (*alias)(t))
}

func (m *MultiLine) MarshalJSON() ([]byte, error) {
	type alias MultiLine
	return marshalTagged(TypeMultiLine, (*alias)(m))
}

func (p *Polygon) MarshalJSON() ([]byte, error) {
	type alias Polygon
	return marshalTagged(TypePolygon, (*alias)(p))
}

func (i *Image) MarshalJSON() ([]byte, error) {
	type alias Image
	return marshalTagged(TypeImage, (*alias)(i))
}

func (l *LinkLine) MarshalJSON() ([]byte, error) {
	type alias LinkLine
	return marshalTagged(TypeLinkLine, (*alias)(l))
}

// Decode builds a shape from a JSON object carrying a "type" field.
func Decode(data []byte) (Shape, error) {
	var head struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode shape: %w", err)
	}

	var s Shape
	switch head.Type {
	case TypeRectangle:
		s = &Rectangle{}
	case TypeCircle:
		s = &Circle{}
	case TypeText:
		s = &Text{}
	case TypeMultiLine:
		s = &MultiLine{}
	case TypePolygon:
		s = &Polygon{}
	case TypeImage:
		s = &Image{}
	case TypeLinkLine:
		s = &LinkLine{}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownType, head.Type)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", head.Type, err)
	}
	return s, nil
}

// DecodeList decodes a JSON array of shapes.
func DecodeList(data []byte) (List, error) {
	var l List
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, err
	}
	return l, nil
}

// UnmarshalJSON dispatches each element on its "type" field.
func (l *List) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode shape list: %w", err)
	}
	out := make(List, 0, len(raw))
	for i, item := range raw {
		s, err := Decode(item)
		if err != nil {
			return fmt.Errorf("shape %d: %w", i, err)
		}
		out = append(out, s)
	}
	*l = out
	return nil
}
