package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// MaxBodyBytes caps request bodies. Images travel as URLs, so JSON
// payloads stay small even with long articles.
const MaxBodyBytes = 1 << 20

// Payload is a decoded JSON request body. Numbers are kept as json.Number
// so integers survive unchanged.
type Payload map[string]any

// decodePayload reads the request body. An empty body is an empty
// payload; anything but a JSON object is rejected.
func decodePayload(r *http.Request) (Payload, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, NewValidationError(MessageInvalidJSON)
	}
	if len(body) > MaxBodyBytes {
		return nil, NewValidationError("Request body too large")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return Payload{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var p Payload
	if err := dec.Decode(&p); err != nil || p == nil {
		return nil, NewValidationError(MessageInvalidJSON)
	}
	if dec.More() {
		return nil, NewValidationError(MessageInvalidJSON)
	}
	return p, nil
}

// Present reports whether the field is truthy by JavaScript rules: absent,
// null, false, 0, NaN and "" all count as missing.
func (p Payload) Present(key string) bool {
	return truthy(p[key])
}

// PresentAll reports whether every key is present.
func (p Payload) PresentAll(keys ...string) bool {
	for _, k := range keys {
		if !p.Present(k) {
			return false
		}
	}
	return true
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err != nil || (f != 0 && !math.IsNaN(f))
	default:
		return true
	}
}

// String returns a string field. Absent fields are "". Numbers and
// booleans are rendered the way JavaScript would concatenate them; objects
// and arrays are rejected.
func (p Payload) String(key string) (string, error) {
	switch x := p[key].(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		return "", NewValidationError(fmt.Sprintf("%s must be a string", key))
	}
}

// Bool returns a boolean flag; absent or non-boolean values are false
// unless they are truthy strings such as "true".
func (p Payload) Bool(key string) bool {
	switch x := p[key].(type) {
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(x)
		return err == nil && b
	default:
		return false
	}
}

var errNotNumber = errors.New("not a number")

// Float returns a numeric field, accepting numbers and numeric strings
// (form inputs often submit "300"). ok is false when the field is absent.
func (p Payload) Float(key string) (value float64, ok bool, err error) {
	var f float64
	switch x := p[key].(type) {
	case nil:
		return 0, false, nil
	case json.Number:
		f, err = x.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		err = errNotNumber
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, true, NewValidationError(fmt.Sprintf("%s must be a number", key))
	}
	return f, true, nil
}

// Int is Float truncated toward zero.
func (p Payload) Int(key string) (value int, ok bool, err error) {
	f, ok, err := p.Float(key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, true, NewValidationError(fmt.Sprintf("%s is out of range", key))
	}
	return int(f), true, nil
}

// Strings returns an array-of-strings field. ok is false when the field is
// absent or not an array; a non-string element is a ValidationError.
func (p Payload) Strings(key string) (values []string, ok bool, err error) {
	arr, isArray := p[key].([]any)
	if !isArray {
		return nil, false, nil
	}
	values = make([]string, len(arr))
	for i, v := range arr {
		s, isString := v.(string)
		if !isString {
			return nil, true, NewValidationError(fmt.Sprintf("%s[%d] must be a string", key, i))
		}
		values[i] = s
	}
	return values, true, nil
}
