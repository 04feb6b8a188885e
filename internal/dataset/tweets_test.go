package dataset

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTweetArchive(t *testing.T) {
	archive := `window.YTD.tweets.part0 = [
  {"tweet": {"full_text": "Just sold a timeshare to a timeshare salesman"}},
  {"tweet": {"text": "RT @upline: diamond rank incoming"}},
  {"tweet": {"full_text": ""}},
  {"like": {}},
  "not an object"
];`

	stats, err := ParseTweetArchive([]byte(archive), nil)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Objects)
	assert.Equal(t, 2, stats.WithText)
	assert.Equal(t, 1, stats.Retweets)
	assert.Equal(t, []string{
		"Just sold a timeshare to a timeshare salesman",
		"RT @upline: diamond rank incoming",
	}, stats.Texts)
	assert.NotEmpty(t, stats.FirstItem)
}

func TestParseTweetArchive_PlainJSON(t *testing.T) {
	stats, err := ParseTweetArchive([]byte(`[]`), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Objects)
}

func TestParseTweetArchive_Malformed(t *testing.T) {
	var diag bytes.Buffer
	_, err := ParseTweetArchive([]byte(`window.YTD.tweets.part0 = [{"tweet": }];`), &diag)
	require.Error(t, err)
	assert.Contains(t, diag.String(), "^--- Error around here")
}
