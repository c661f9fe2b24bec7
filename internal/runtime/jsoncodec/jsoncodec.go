// Package jsoncodec is the JSON codec used by the wiretap event bridge and
// its consumers. It wraps sonic configured for encoding/json-compatible
// output so bridged ModuleLoaded payloads decode the same everywhere.
package jsoncodec

import (
	"io"

	"github.com/bytedance/sonic"
)

// api is sonic in stdlib-compatible mode; bridge payloads must not depend
// on sonic-specific encoding behavior.
var api = sonic.ConfigStd

func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// Encode writes v to w as a single JSON value with a trailing newline.
func Encode(w io.Writer, v any) error {
	return api.NewEncoder(w).Encode(v)
}

// Decode reads a single JSON value from r into v.
func Decode(r io.Reader, v any) error {
	return api.NewDecoder(r).Decode(v)
}
