package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// diagnosticContext is how many bytes are shown on each side of the offset.
const diagnosticContext = 50

// PrintDecodeDiagnostic writes the decode error and, when the failing
// offset can be located, the surrounding text. It never fails: if the
// offset is unknown or out of range nothing more is printed.
func PrintDecodeDiagnostic(w io.Writer, data []byte, err error) {
	fmt.Fprintf(w, "ERROR parsing JSON: %v\n", err)

	offset, ok := errorOffset(err)
	if !ok || offset < 0 || offset > int64(len(data)) {
		return
	}

	start := max(int(offset)-diagnosticContext, 0)
	end := min(int(offset)+diagnosticContext, len(data))

	fmt.Fprintln(w, "Location of error:")
	fmt.Fprintln(w, string(data[start:end]))
	fmt.Fprintln(w, "^--- Error around here")
}

func errorOffset(err error) (int64, bool) {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Offset, true
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return typeErr.Offset, true
	}
	return 0, false
}
