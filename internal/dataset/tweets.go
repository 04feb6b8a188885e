package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

const tweetArchivePrefix = "window.YTD.tweets.part0 ="

// TweetStats summarizes a Twitter archive tweets.js export.
type TweetStats struct {
	Objects   int
	WithText  int
	Retweets  int
	Texts     []string
	FirstItem json.RawMessage
}

// LoadTweetArchive reads a tweets.js file and summarizes it.
func LoadTweetArchive(path string, diag io.Writer) (*TweetStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tweet archive: %w", err)
	}
	return ParseTweetArchive(data, diag)
}

// ParseTweetArchive strips the JavaScript assignment wrapper and counts
// tweets. Entries that are not {"tweet": {...}} objects are skipped.
func ParseTweetArchive(data []byte, diag io.Writer) (*TweetStats, error) {
	cleaned := strings.TrimSpace(string(data))
	cleaned = strings.TrimPrefix(cleaned, tweetArchivePrefix)
	cleaned = strings.TrimSuffix(cleaned, ";")
	cleaned = strings.TrimSpace(cleaned)

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		if diag != nil {
			PrintDecodeDiagnostic(diag, []byte(cleaned), err)
		}
		return nil, fmt.Errorf("parse tweet archive: %w", err)
	}

	stats := &TweetStats{Objects: len(items)}
	if len(items) > 0 {
		stats.FirstItem = items[0]
	}

	for _, item := range items {
		var entry map[string]any
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		tweet, ok := entry["tweet"].(map[string]any)
		if !ok {
			continue
		}
		text, _ := tweet["full_text"].(string)
		if text == "" {
			text, _ = tweet["text"].(string)
		}
		if text == "" {
			continue
		}
		stats.WithText++
		stats.Texts = append(stats.Texts, text)
		if strings.HasPrefix(text, "RT @") {
			stats.Retweets++
		}
	}
	return stats, nil
}
