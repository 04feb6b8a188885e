package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/raphaelgruber/jaketune/internal/models"
)

// WriteJSONL writes one {"text": ...} object per line.
func WriteJSONL(w io.Writer, examples []models.Example) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	// Keep turn markers like <|im_start|> readable in the artifact.
	enc.SetEscapeHTML(false)

	for i, ex := range examples {
		if err := enc.Encode(ex); err != nil {
			return fmt.Errorf("encode example %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// WriteJSONLFile writes examples to path, replacing any existing file.
func WriteJSONLFile(path string, examples []models.Example) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSONL(f, examples); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
