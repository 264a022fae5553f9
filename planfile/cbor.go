package planfile

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding: sorted map keys, smallest
// integer encoding, no indefinite-length items.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Enumerations serialize through MarshalText as their spellings.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("planfile: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("planfile: CBOR decoder initialization failed: " + err.Error())
	}
}

// EncodeCBOR encodes the plan file as deterministic CBOR.
func (f *File) EncodeCBOR() ([]byte, error) {
	return encMode.Marshal(f)
}

// DecodeCBOR decodes a CBOR plan file.
func DecodeCBOR(data []byte) (*File, error) {
	var f File
	if err := decMode.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse plan file CBOR: %w", err)
	}
	if f.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d (want %d)", ErrUnsupportedVersion, f.Version, FormatVersion)
	}
	return &f, nil
}
