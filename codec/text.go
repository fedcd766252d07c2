package codec

// Text UTF-8 encodes text values on the way out; bytes pass through
// unchanged. On the way in, bytes are UTF-8 decoded to text.
type Text struct{}

// Name implements ValueCodec.
func (Text) Name() string { return NameText }

// Encode implements ValueCodec.
func (Text) Encode(v any) ([]byte, error) {
	switch x := v.(type) {
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case nil:
		return nil, nil
	default:
		return nil, identityTypeError(v)
	}
}

// Decode implements ValueCodec.
func (Text) Decode(b []byte) (any, error) {
	return string(b), nil
}
