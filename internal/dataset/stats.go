package dataset

import (
	"slices"
	"strings"

	"github.com/raphaelgruber/jaketune/internal/models"
	"github.com/tiktoken-go/tokenizer/codec"
	"gonum.org/v1/gonum/stat"
)

var tokenizer = codec.NewCl100kBase()

// Summary describes the size of a formatted dataset.
type Summary struct {
	Examples     int
	TotalTokens  int
	MeanTokens   float64
	StdDevTokens float64
	MedianTokens float64
	P95Tokens    float64
	MaxTokens    float64
}

// CountTokens approximates the token length of text with cl100k_base.
// Falls back to a word/char estimate if encoding fails.
func CountTokens(text string) int {
	tokens, _, err := tokenizer.Encode(text)
	if err != nil {
		wc := len(strings.Fields(text)) * 4 / 3
		cc := len(text) / 4
		return (wc + cc) / 2
	}
	return len(tokens)
}

// Summarize computes token statistics over examples.
func Summarize(examples []models.Example) Summary {
	s := Summary{Examples: len(examples)}
	if len(examples) == 0 {
		return s
	}

	lengths := make([]float64, len(examples))
	for i, ex := range examples {
		n := CountTokens(ex.Text)
		lengths[i] = float64(n)
		s.TotalTokens += n
	}
	slices.Sort(lengths)

	s.MeanTokens, s.StdDevTokens = stat.MeanStdDev(lengths, nil)
	s.MedianTokens = stat.Quantile(0.5, stat.Empirical, lengths, nil)
	s.P95Tokens = stat.Quantile(0.95, stat.Empirical, lengths, nil)
	s.MaxTokens = lengths[len(lengths)-1]
	return s
}
