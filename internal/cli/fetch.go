package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/raphaelgruber/jaketune/internal/storage"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	fetchDest        string
	fetchConcurrency int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <src>...",
	Short: "Copy training data to fast local storage",
	Long: heredoc.Doc(`
		Copy dataset files from gs:// prefixes or local paths into a local
		directory, typically the NVMe volume of the training machine. Each
		source is listed first; every file found is copied into --dest.

		Examples:
		  jaketune fetch gs://jake-data/prepared/
		  jaketune fetch /mnt/shared/jake_training.json --dest /tmp/data
	`),
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchDest, "dest", "d", "/mnt/nvme/jake_training_data", "destination directory")
	fetchCmd.Flags().IntVarP(&fetchConcurrency, "concurrency", "j", 4, "parallel copies")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var files []string
	for _, src := range args {
		fmt.Printf("Listing %s...\n", src)
		found, err := store.List(ctx, src)
		if err != nil {
			return err
		}
		for _, f := range found {
			fmt.Printf("  %s\n", f)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found in %v", args)
	}

	copies, err := planCopies(files, fetchDest)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(fetchDest, 0o755); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(fetchConcurrency, 1))
	for _, c := range copies {
		g.Go(func() error {
			n, err := store.Copy(gctx, c.src, c.dst)
			if err != nil {
				return err
			}
			logger.Debug("copied file", "src", c.src, "dst", c.dst, "bytes", n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Println("Copy complete!")
	fmt.Printf("\nTraining data ready at: %s\n", fetchDest)
	return nil
}

type fileCopy struct {
	src string
	dst string
}

// planCopies maps every source into dest by basename. Sources listed more
// than once are copied once; distinct sources sharing a basename are an
// error since their copies would race on the same file.
func planCopies(files []string, dest string) ([]fileCopy, error) {
	byDst := make(map[string]string, len(files))
	var copies []fileCopy
	for _, src := range files {
		dst := filepath.Join(dest, storage.Base(src))
		if other, ok := byDst[dst]; ok {
			if other == src {
				continue
			}
			return nil, fmt.Errorf("%s and %s would both be copied to %s", other, src, dst)
		}
		byDst[dst] = src
		copies = append(copies, fileCopy{src: src, dst: dst})
	}
	return copies, nil
}
