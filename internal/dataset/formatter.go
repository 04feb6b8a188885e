// Package dataset turns conversation exports into flattened training examples.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/raphaelgruber/jaketune/internal/models"
)

// ErrMissingField is returned when the document lacks a required key.
var ErrMissingField = errors.New("missing field")

// Raw shapes with pointer fields so absent keys can be told apart from
// empty ones.
type rawRecord struct {
	Conversations *[]rawConversation `json:"conversations"`
}

type rawConversation struct {
	Messages *[]rawMessage `json:"messages"`
}

type rawMessage struct {
	Role    *string `json:"role"`
	Content string  `json:"content"`
}

// Load reads and decodes a conversation export. When decoding fails
// and diag is non-nil, the text around the failing offset is written to diag.
func Load(path string, diag io.Writer) (*models.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return DecodeRecord(data, diag)
}

// DecodeRecord decodes and shape-checks a conversation export.
func DecodeRecord(data []byte, diag io.Writer) (*models.Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		if diag != nil {
			PrintDecodeDiagnostic(diag, data, err)
		}
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	if raw.Conversations == nil {
		return nil, fmt.Errorf("%w: conversations", ErrMissingField)
	}

	record := &models.Record{
		Conversations: make([]models.Conversation, 0, len(*raw.Conversations)),
	}
	for i, conv := range *raw.Conversations {
		if conv.Messages == nil {
			return nil, fmt.Errorf("%w: conversations[%d].messages", ErrMissingField, i)
		}
		msgs := make([]models.Message, 0, len(*conv.Messages))
		for j, msg := range *conv.Messages {
			if msg.Role == nil {
				return nil, fmt.Errorf("%w: conversations[%d].messages[%d].role", ErrMissingField, i, j)
			}
			msgs = append(msgs, models.Message{Role: *msg.Role, Content: msg.Content})
		}
		record.Conversations = append(record.Conversations, models.Conversation{Messages: msgs})
	}
	return record, nil
}

// Format renders one example per assistant message, in source order.
// Content is not validated: an empty message yields an empty assistant turn.
func Format(record *models.Record, tmpl Template) []models.Example {
	var examples []models.Example
	for _, conv := range record.Conversations {
		for _, msg := range conv.Messages {
			if msg.Role != models.RoleAssistant {
				continue
			}
			examples = append(examples, models.Example{Text: tmpl.Render(msg.Content)})
		}
	}
	return examples
}

// LoadExamples reads a conversation export and formats it.
func LoadExamples(path string, tmpl Template, diag io.Writer) ([]models.Example, error) {
	record, err := Load(path, diag)
	if err != nil {
		return nil, err
	}
	return Format(record, tmpl), nil
}
