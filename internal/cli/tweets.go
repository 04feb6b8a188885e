package cli

import (
	"fmt"
	"os"

	"github.com/raphaelgruber/jaketune/internal/dataset"
	"github.com/spf13/cobra"
)

var tweetsShow int

var tweetsCmd = &cobra.Command{
	Use:   "tweets <tweets.js>",
	Short: "Inspect a Twitter archive export",
	Long: `Parse the tweets.js file of a Twitter archive and report how many
tweets it holds, how many have text and how many are retweets.

Examples:
  jaketune tweets data/tweets.js
  jaketune tweets data/tweets.js --show 10`,
	Args: cobra.ExactArgs(1),
	RunE: runTweets,
}

func init() {
	tweetsCmd.Flags().IntVarP(&tweetsShow, "show", "n", 3, "number of tweet texts to print")
}

func runTweets(cmd *cobra.Command, args []string) error {
	stats, err := dataset.LoadTweetArchive(args[0], os.Stderr)
	if err != nil {
		return err
	}

	fmt.Printf("Found %d objects\n", stats.Objects)
	fmt.Printf("  With text: %d\n", stats.WithText)
	fmt.Printf("  Retweets:  %d\n", stats.Retweets)

	if len(stats.FirstItem) > 0 {
		fmt.Printf("\nFirst item:\n%s\n", stats.FirstItem)
	}

	if n := min(tweetsShow, len(stats.Texts)); n > 0 {
		fmt.Println("\nSample tweets:")
		for _, text := range stats.Texts[:n] {
			fmt.Printf("  - %s\n", text)
		}
	}
	return nil
}
