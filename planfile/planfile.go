package planfile

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"

	"github.com/albertocavalcante/go-simdplan/backend"
	"github.com/albertocavalcante/go-simdplan/platform"
	"github.com/albertocavalcante/go-simdplan/strategy"
)

// FormatVersion is the plan file schema version.
const FormatVersion = 1

// planFilePermissions is the file permission mode for written plan files.
const planFilePermissions = 0o644

// ErrFingerprintMismatch is returned when a plan's fingerprint does not
// match its content or a fresh resolution.
var ErrFingerprintMismatch = errors.New("plan fingerprint mismatch")

// ErrUnsupportedVersion is returned for plan files of another schema version.
var ErrUnsupportedVersion = errors.New("unsupported plan file version")

// Hash is a 32-byte BLAKE3 digest.
type Hash [32]byte

// String returns the lower-case hex encoding.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is unset.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	if len(text) != hex.EncodedLen(len(h)) {
		return fmt.Errorf("fingerprint must be %d hex characters, got %d", hex.EncodedLen(len(h)), len(text))
	}
	_, err := hex.Decode(h[:], text)
	return err
}

// domainKey separates plan fingerprints from any other BLAKE3 keyed use.
var domainKey = [32]byte{
	's', 'i', 'm', 'd', 'p', 'l', 'a', 'n', '.', 'p', 'l', 'a', 'n',
}

// File is a stored resolution.
type File struct {
	Version     int               `json:"planFileVersion" cbor:"version"`
	Platform    platform.Snapshot `json:"platform" cbor:"platform"`
	Plan        strategy.Plan     `json:"plan" cbor:"plan"`
	Backend     backend.Decision  `json:"backend" cbor:"backend"`
	Fingerprint Hash              `json:"fingerprint" cbor:"fingerprint"`
}

// content is the fingerprinted part of a File.
type content struct {
	Platform platform.Snapshot `cbor:"platform"`
	Plan     strategy.Plan     `cbor:"plan"`
	Backend  backend.Decision  `cbor:"backend"`
}

// New builds a plan file and computes its fingerprint.
func New(key platform.Key, plan *strategy.Plan, decision backend.Decision) (*File, error) {
	if plan == nil {
		return nil, errors.New("planfile: nil plan")
	}
	f := &File{
		Version:  FormatVersion,
		Platform: key.Snapshot(),
		Plan:     *plan,
		Backend:  decision,
	}
	sum, err := f.computeFingerprint()
	if err != nil {
		return nil, err
	}
	f.Fingerprint = sum
	return f, nil
}

// Fingerprint returns the BLAKE3 fingerprint of a resolution.
func Fingerprint(key platform.Key, plan *strategy.Plan, decision backend.Decision) (Hash, error) {
	f, err := New(key, plan, decision)
	if err != nil {
		return Hash{}, err
	}
	return f.Fingerprint, nil
}

func (f *File) computeFingerprint() (Hash, error) {
	data, err := encMode.Marshal(content{Platform: f.Platform, Plan: f.Plan, Backend: f.Backend})
	if err != nil {
		return Hash{}, fmt.Errorf("encode plan for fingerprint: %w", err)
	}
	hasher, err := blake3.NewKeyed(domainKey[:])
	if err != nil {
		panic("planfile: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var sum Hash
	copy(sum[:], hasher.Sum(nil))
	return sum, nil
}

// Check recomputes the fingerprint and compares it with the stored one.
func (f *File) Check() error {
	if f.Version != FormatVersion {
		return fmt.Errorf("%w: %d (want %d)", ErrUnsupportedVersion, f.Version, FormatVersion)
	}
	sum, err := f.computeFingerprint()
	if err != nil {
		return err
	}
	if sum != f.Fingerprint {
		return &MismatchError{Stored: f.Fingerprint, Computed: sum, Reason: "content was modified"}
	}
	return nil
}

// MismatchError reports differing fingerprints. It matches
// ErrFingerprintMismatch.
type MismatchError struct {
	Stored   Hash
	Computed Hash
	Reason   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%v: stored %s, computed %s (%s)", ErrFingerprintMismatch, e.Stored, e.Computed, e.Reason)
}

func (e *MismatchError) Unwrap() error {
	return ErrFingerprintMismatch
}

// Verify checks that stored is intact and describes the same resolution as
// fresh.
func Verify(stored, fresh *File) error {
	if err := stored.Check(); err != nil {
		return err
	}
	if stored.Fingerprint != fresh.Fingerprint {
		return &MismatchError{Stored: stored.Fingerprint, Computed: fresh.Fingerprint, Reason: "resolution changed"}
	}
	return nil
}

// ReadFile reads and parses a JSON plan file.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return Parse(data)
}

// Read reads a JSON plan file from r.
func Read(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return Parse(data)
}

// Parse parses JSON plan file data. The fingerprint is not checked; use
// Check or Verify.
func Parse(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse plan file JSON: %w", err)
	}
	if f.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d (want %d)", ErrUnsupportedVersion, f.Version, FormatVersion)
	}
	return &f, nil
}

// Marshal serializes the plan file as indented JSON. Field order is fixed,
// so the output is deterministic.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes the plan file as JSON.
func (f *File) WriteFile(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, planFilePermissions)
}

// WriteTo writes the plan file as JSON to w.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	data, err := f.Marshal()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}
