package markers

import (
	"encoding/hex"
	"fmt"
	"reflect"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint hashes a module's declarations: entity names, value types and
// marker names, in declaration order. Two loads of the same build produce the
// same fingerprint.
func Fingerprint(entities []Entity) string {
	h, err := blake2b.New256(nil)
	if err != nil {
		// New256 only fails for oversized keys.
		panic(err)
	}
	for _, e := range entities {
		fmt.Fprintf(h, "%s\x00%s\x00", e.Name, typeName(e.Value))
		for _, m := range e.Markers {
			if m == nil {
				continue
			}
			fmt.Fprintf(h, "%s:%+v\x00", m.MarkerName(), m)
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
