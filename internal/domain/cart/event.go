package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedEvent = errors.New("malformed cart event")

// ProductEvent is the body of every PRODUCT_ADD / PRODUCT_REMOVE message.
type ProductEvent struct {
	CartID  string  `json:"cartId"`
	Product Product `json:"product"`
}

func (e ProductEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

type rawProductEvent struct {
	CartID  json.RawMessage `json:"cartId"`
	Product json.RawMessage `json:"product"`
}

// UnmarshalProductEvent decodes an event body. Older producers sent the
// product as a JSON string holding the encoded object and the cart id as a
// number; both forms are accepted.
func UnmarshalProductEvent(b []byte) (ProductEvent, error) {
	var raw rawProductEvent
	if err := json.Unmarshal(b, &raw); err != nil {
		return ProductEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	id, err := decodeCartID(raw.CartID)
	if err != nil {
		return ProductEvent{}, err
	}
	p, err := decodeProduct(raw.Product)
	if err != nil {
		return ProductEvent{}, err
	}
	return ProductEvent{CartID: id, Product: p}, nil
}

func decodeCartID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("%w: missing cartId", ErrMalformedEvent)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: cartId: %v", ErrMalformedEvent, err)
		}
		if s == "" {
			return "", fmt.Errorf("%w: empty cartId", ErrMalformedEvent)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: cartId: %v", ErrMalformedEvent, err)
	}
	return n.String(), nil
}

func decodeProduct(raw json.RawMessage) (Product, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Product{}, fmt.Errorf("%w: missing product", ErrMalformedEvent)
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return Product{}, fmt.Errorf("%w: product: %v", ErrMalformedEvent, err)
		}
		raw = json.RawMessage(inner)
	}
	var p Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return Product{}, fmt.Errorf("%w: product: %v", ErrMalformedEvent, err)
	}
	return p, nil
}
