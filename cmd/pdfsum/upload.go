// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pdfsum/internal/coordinator"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file.pdf>...",
	Short: "Upload PDFs for summarization",
	Long: `Upload sends each PDF to the summaries API and adds the resulting
summaries to your collection. Files that are not PDFs or are larger than
upload.max_bytes (10 MiB by default) are rejected before anything is sent.

Several files are uploaded concurrently, up to upload.parallel at a time.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().Int("parallel", 0, "concurrent uploads (default upload.parallel)")
	uploadCmd.Flags().Bool("progress", false, "print upload progress to stderr")

	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	a, err := newApp(appConfig, log)
	if err != nil {
		return err
	}
	defer a.close()

	parallel, _ := cmd.Flags().GetInt("parallel")
	if parallel <= 0 {
		parallel = a.cfg.Upload.Parallel
	}
	showProgress, _ := cmd.Flags().GetBool("progress")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a.loadBestEffort(ctx)

	failed := a.uploadFiles(ctx, args, parallel, cmd.OutOrStdout(), progressWriter(cmd, showProgress))
	if failed > 0 {
		return fmt.Errorf("%d of %d upload(s) failed", failed, len(args))
	}
	return nil
}

func progressWriter(cmd *cobra.Command, enabled bool) io.Writer {
	if !enabled {
		return nil
	}
	return cmd.ErrOrStderr()
}

// uploadFiles uploads paths with at most parallel in flight, one
// coordinator per file, and returns the number that failed. Result lines
// go to out; progress lines go to progress when it is non-nil.
func (a *app) uploadFiles(ctx context.Context, paths []string, parallel int, out, progress io.Writer) int {
	var (
		mu     sync.Mutex
		failed int32
	)
	printf := func(w io.Writer, format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, args...)
	}

	g := new(errgroup.Group)
	g.SetLimit(parallel)

	for _, path := range paths {
		g.Go(func() error {
			doc, err := coordinator.ReadDocument(path, a.cfg.Upload.MaxBytes)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				printf(out, "failed   %s: %v\n", path, err)
				return err
			}

			opts := []coordinator.Option{
				coordinator.WithLogger(a.log),
				coordinator.WithRefresher(a.loader),
			}
			if progress != nil {
				last := -1.0
				opts = append(opts, coordinator.WithOnChange(func(st coordinator.State) {
					if st.Phase == coordinator.PhaseInProgress && st.Progress != last {
						last = st.Progress
						printf(progress, "%s %3.0f%%\n", doc.Name, st.Progress*100)
					}
				}))
			}

			up := coordinator.NewUpload(a.repo, a.store, a.cfg.Upload, opts...)
			st, err := up.Run(ctx, doc)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				printf(out, "failed   %s: %s\n", doc.Name, a.describe(err))
				return err
			}
			printf(out, "uploaded %s (%s): %s, %d summary(ies)\n",
				doc.Name, humanize.IBytes(uint64(doc.Size)), st.Message, st.Count)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		a.log.Debugf("upload batch: first error: %v", err)
	}
	return int(atomic.LoadInt32(&failed))
}
