package diagram

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/orthoroute/pkg/errors"
)

// Format names a diagram encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension. Anything other
// than .toml is read as JSON.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatJSON
}

// =============================================================================
// Serialization API
// =============================================================================

// Marshal encodes d. Output is deterministic for a given diagram.
func Marshal(d Diagram, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, d, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a diagram encoded in f.
func Unmarshal(data []byte, f Format) (Diagram, error) {
	return Read(bytes.NewReader(data), f)
}

// Write encodes d to w.
func Write(w io.Writer, d Diagram, f Format) error {
	switch f {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return errs.Wrap(errs.ErrCodeInternal, err, "encode json")
		}
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(d); err != nil {
			return errs.Wrap(errs.ErrCodeInternal, err, "encode toml")
		}
	default:
		return errs.New(errs.ErrCodeInvalidFormat, "unknown diagram format %q", f)
	}
	return nil
}

// Read decodes a diagram from r.
func Read(r io.Reader, f Format) (Diagram, error) {
	var d Diagram
	switch f {
	case FormatJSON, "":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return Diagram{}, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode json")
		}
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&d)
		if err != nil {
			return Diagram{}, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Diagram{}, errs.New(errs.ErrCodeInvalidFormat, "unknown key %q", undecoded[0].String())
		}
	default:
		return Diagram{}, errs.New(errs.ErrCodeInvalidFormat, "unknown diagram format %q", f)
	}
	return d, nil
}

// ReadFile reads a diagram, choosing the codec by extension.
func ReadFile(path string) (Diagram, error) {
	f, err := os.Open(path)
	if err != nil {
		return Diagram{}, errs.Wrap(errs.ErrCodeNotFound, err, "open %s", path)
	}
	defer f.Close()
	d, err := Read(f, FormatFromPath(path))
	if err != nil {
		return Diagram{}, errs.Wrap(errs.GetCode(err), err, "read %s", path)
	}
	return d, nil
}

// WriteFile writes a diagram, choosing the codec by extension.
func WriteFile(path string, d Diagram) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "create %s", path)
	}
	if err := Write(f, d, FormatFromPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
