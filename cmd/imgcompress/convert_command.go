package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/aliskhannn/image-compressor/internal/archive"
	"github.com/aliskhannn/image-compressor/internal/codec"
	"github.com/aliskhannn/image-compressor/internal/model"
	"github.com/aliskhannn/image-compressor/internal/processor"
	"github.com/aliskhannn/image-compressor/internal/queue"
	imagerepo "github.com/aliskhannn/image-compressor/internal/repository/image"
	imagesvc "github.com/aliskhannn/image-compressor/internal/service/image"
	"github.com/aliskhannn/image-compressor/internal/storage/preview"
)

type convertOptions struct {
	format      string
	quality     int
	out         string
	zip         bool
	concurrency int
}

func newConvertCommand() *cobra.Command {
	opts := convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert <file>...",
		Short: "Compress local image files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := model.ParseFormat(opts.format)
			if err != nil {
				return err
			}

			images, err := convert(cmd.Context(), target, opts, args)
			if err != nil {
				return err
			}

			written, err := writeResults(images, opts)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), summaryTable(images))
			if opts.zip {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d images to %s\n", written, filepath.Join(opts.out, archive.Name))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d images to %s\n", written, opts.out)
			}

			if failed := len(images) - written; failed > 0 {
				return fmt.Errorf("%d of %d images failed", failed, len(images))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", string(model.FormatWebP), "Output format (avif, jpeg, jxl, png, webp)")
	cmd.Flags().IntVarP(&opts.quality, "quality", "q", 0, "Encode quality 1-100, 0 uses the format default")
	cmd.Flags().StringVarP(&opts.out, "out", "o", ".", "Output directory")
	cmd.Flags().BoolVar(&opts.zip, "zip", false, "Write results into a single "+archive.Name)
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", queue.DefaultLimit, "Images processed at the same time, at most 3")

	return cmd
}

// convert runs every path through the compression pipeline and returns
// the final records in submission order.
func convert(ctx context.Context, target model.Format, opts convertOptions, paths []string) ([]model.Image, error) {
	files := make([]model.File, 0, len(paths))
	for _, p := range paths {
		mime, err := mimetype.DetectFile(p)
		if err != nil {
			return nil, fmt.Errorf("detect type of %s: %w", p, err)
		}

		f, err := model.NewDiskFile(p, filepath.Base(p), mime.String())
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	repo := imagerepo.NewRepository()
	previews := preview.NewRegistry()
	dispatcher := codec.NewDispatcher(codec.NewCache(codec.DefaultLoader))
	manager := queue.New(ctx, processor.New(dispatcher, repo, previews), repo, opts.concurrency)
	svc := imagesvc.NewService(repo, manager, previews)

	submitted := svc.Submit(files, target, opts.quality)
	manager.Wait()

	images := make([]model.Image, 0, len(submitted))
	for _, img := range submitted {
		final, err := svc.GetImage(img.ID)
		if err != nil {
			return nil, err
		}
		images = append(images, final)
	}

	return images, nil
}

// writeResults stores complete images in the output directory and returns
// how many were written.
func writeResults(images []model.Image, opts convertOptions) (int, error) {
	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}

	if opts.zip {
		return writeArchive(images, filepath.Join(opts.out, archive.Name))
	}

	names := archive.NewNamer()
	written := 0
	for _, img := range images {
		if img.Status != model.StatusComplete || img.Blob == nil {
			continue
		}

		dst := filepath.Join(opts.out, names.Name(img.ResultName()))
		if err := os.WriteFile(dst, img.Blob.Data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", dst, err)
		}
		written++
	}

	return written, nil
}

func writeArchive(images []model.Image, dst string) (n int, err error) {
	f, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	ptrs := make([]*model.Image, len(images))
	for i := range images {
		ptrs[i] = &images[i]
	}

	return archive.Write(f, ptrs)
}

func summaryTable(images []model.Image) string {
	headers := []string{"File", "Status", "Original", "Compressed", "Saved", "Details"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(images))
	for _, img := range images {
		row := []string{img.Filename, string(img.Status), humanize.IBytes(uint64(img.OriginalSize)), "", "", ""}

		switch img.Status {
		case model.StatusComplete:
			row[3] = humanize.IBytes(uint64(img.CompressedSize))
			row[4] = savedRatio(img.OriginalSize, img.CompressedSize)
			row[5] = img.ResultName()
		case model.StatusError:
			row[5] = img.Error
		}

		rows = append(rows, row)
	}

	return renderTable(headers, rows, aligns)
}

func savedRatio(original, compressed int64) string {
	if original <= 0 {
		return "-"
	}

	return fmt.Sprintf("%.1f%%", (1-float64(compressed)/float64(original))*100)
}
