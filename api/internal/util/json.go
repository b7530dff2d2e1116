package util

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNotJSONObject is returned when the text does not contain a JSON object.
var ErrNotJSONObject = errors.New("response is not a JSON object")

// DecodeJSONObject parses a model answer into out after stripping code fences.
// Unknown fields are ignored. With repair set, a failed first parse is retried once on the repaired text.
func DecodeJSONObject(raw string, out any, repair bool) error {
	txt := StripCodeFences(raw)
	if !strings.HasPrefix(txt, "{") {
		if !repair {
			return ErrNotJSONObject
		}
		if i := strings.IndexByte(txt, '{'); i >= 0 {
			txt = txt[i:]
		}
	}
	err := decodeOne(txt, out)
	if err == nil || !repair {
		return err
	}
	fixed, rerr := jsonrepair.JSONRepair(txt)
	if rerr != nil {
		return fmt.Errorf("%w (repair failed: %v)", err, rerr)
	}
	return decodeOne(fixed, out)
}

func decodeOne(txt string, out any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(txt)))
	if err := dec.Decode(out); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON object")
	}
	return nil
}
