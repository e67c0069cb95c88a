package codec

import (
	"errors"
	"io"

	"github.com/nachocheesedog/ssengine"
)

// ErrXLSXUnsupported is returned by the XLSX codec stubs below. No writer
// for the XLSX zip/XML container exists anywhere in the example pack to
// ground a real implementation on (the one XLSX-adjacent dependency
// available, tsubasa's xlsb reader, only reads the older binary XLSB
// format and reads it read-only); wiring this up for real means adopting
// a dependency nothing here exercises. The interface is kept so a future
// encoder can be dropped in without changing call sites.
var ErrXLSXUnsupported = errors.New("codec: XLSX support is not implemented")

// WorkbookCodec is the extension point a real XLSX (or any other binary
// spreadsheet format) reader/writer would implement.
type WorkbookCodec interface {
	Import(sheet *ssengine.Safe, r io.Reader) error
	Export(sheet *ssengine.Safe, w io.Writer) error
}

// xlsxCodec is an unimplemented WorkbookCodec, kept so callers can be
// written against the interface today and get a real encoder later
// without an API change.
type xlsxCodec struct{}

// XLSX is the (currently unimplemented) WorkbookCodec for the XLSX format.
var XLSX WorkbookCodec = xlsxCodec{}

func (xlsxCodec) Import(sheet *ssengine.Safe, r io.Reader) error {
	return ErrXLSXUnsupported
}

func (xlsxCodec) Export(sheet *ssengine.Safe, w io.Writer) error {
	return ErrXLSXUnsupported
}
