package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"unicode/utf8"
)

// Parse decodes raw JSON into a value tree whose numbers are json.Number, so
// that the canonical re-encoding sees the producer's literals. The top level
// must be an object.
func Parse(raw []byte) (map[string]any, error) {
	if err := checkEncoding(raw); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, syntaxError(err, dec.InputOffset())
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &MalformedError{Offset: dec.InputOffset(), Msg: "unexpected data after top-level value"}
	}

	doc, ok := v.(map[string]any)
	if !ok {
		return nil, malformed("", "", "top-level value must be an object, got %s", typeName(v))
	}
	return doc, nil
}

// checkEncoding rejects input encoding/json would otherwise repair with
// U+FFFD: invalid UTF-8 and \u escapes of unpaired surrogates.
func checkEncoding(raw []byte) *MalformedError {
	inString := false
	for i := 0; i < len(raw); {
		c := raw[i]
		switch {
		case c >= utf8.RuneSelf:
			r, size := utf8.DecodeRune(raw[i:])
			if r == utf8.RuneError && size == 1 {
				return &MalformedError{Offset: int64(i), Msg: "invalid UTF-8"}
			}
			i += size
		case c == '"':
			inString = !inString
			i++
		case c == '\\' && inString:
			n, err := escapeLen(raw, i)
			if err != nil {
				return err
			}
			i += n
		default:
			i++
		}
	}
	return nil
}

// escapeLen returns the length of the escape sequence at raw[i]. A \u high
// surrogate must be directly followed by a \u low surrogate; a low surrogate
// may not stand alone.
func escapeLen(raw []byte, i int) (int, *MalformedError) {
	r, ok := hexEscape(raw, i)
	if !ok {
		return 2, nil // anything else is left to the decoder
	}
	switch {
	case r >= 0xDC00 && r <= 0xDFFF:
		return 0, &MalformedError{Offset: int64(i), Msg: "unpaired surrogate escape"}
	case r >= 0xD800 && r <= 0xDBFF:
		low, ok := hexEscape(raw, i+6)
		if !ok || low < 0xDC00 || low > 0xDFFF {
			return 0, &MalformedError{Offset: int64(i), Msg: "unpaired surrogate escape"}
		}
		return 12, nil
	}
	return 6, nil
}

func hexEscape(raw []byte, i int) (rune, bool) {
	if i+6 > len(raw) || raw[i] != '\\' || raw[i+1] != 'u' {
		return 0, false
	}
	v, err := strconv.ParseUint(string(raw[i+2:i+6]), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

func syntaxError(err error, fallback int64) *MalformedError {
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return &MalformedError{Offset: se.Offset, Msg: se.Error()}
	}
	if errors.Is(err, io.EOF) {
		return &MalformedError{Offset: 0, Msg: "empty document"}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return &MalformedError{Offset: fallback, Msg: "unexpected end of JSON input"}
	}
	return &MalformedError{Offset: fallback, Msg: err.Error()}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return "unknown"
}
