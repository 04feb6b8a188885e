package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/raphaelgruber/jaketune/internal/models"
)

func TestWriteJSONL(t *testing.T) {
	examples := []models.Example{
		{Text: ChatML.Render("one")},
		{Text: ChatML.Render("two\nlines")},
	}

	var buf bytes.Buffer
	if err := WriteJSONL(&buf, examples); err != nil {
		t.Fatalf("WriteJSONL() error = %v", err)
	}

	if !bytes.Contains(buf.Bytes(), []byte(`<|im_start|>`)) {
		t.Errorf("turn markers were HTML-escaped: %s", buf.String())
	}

	var got []models.Example
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var ex models.Example
		if err := json.Unmarshal(sc.Bytes(), &ex); err != nil {
			t.Fatalf("line %q is not JSON: %v", sc.Text(), err)
		}
		got = append(got, ex)
	}
	if diff := cmp.Diff(examples, got); diff != "" {
		t.Errorf("WriteJSONL() round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteJSONLFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.jsonl")
	if err := WriteJSONLFile(path, nil); err != nil {
		t.Fatalf("WriteJSONLFile() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Errorf("size = %d, want 0", info.Size())
	}
}
