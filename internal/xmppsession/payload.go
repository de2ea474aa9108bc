package xmppsession

import (
	"bytes"
	"encoding/xml"
)

// MarshalPayload marshals v (a struct with xml struct tags, e.g. a
// disco#info query or a bookmarks2 PEP item) into an xml.TokenReader
// suitable for SendIQ/SendIQResult/UnmarshalIQ's payload argument. Plugins
// use this instead of hand-writing a parallel token-stream encoder next to
// every payload struct's field tags.
func MarshalPayload(v any) (xml.TokenReader, error) {
	data, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return xml.NewDecoder(bytes.NewReader(data)), nil
}
