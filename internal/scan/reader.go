package scan

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/temirov/pmgen/internal/types"
)

const defaultReadConcurrency = 8

// Transformer rewrites file content after it is read, for example to drop comments.
type Transformer interface {
	Transform(path string, content []byte) []byte
}

// ReadOptions configures content loading.
type ReadOptions struct {
	// Concurrency bounds parallel reads. Non-positive values use a default.
	Concurrency int
	// Transformer is applied to each file's bytes when set.
	Transformer Transformer
}

// Read loads the content of every selected file concurrently while keeping
// traversal order. Files that cannot be read move to the skipped list.
func Read(ctx context.Context, result types.ScanResult, options ReadOptions) (types.ScanResult, error) {
	concurrency := options.Concurrency
	if concurrency <= 0 {
		concurrency = defaultReadConcurrency
	}

	files := make([]types.SourceFile, len(result.Files))
	copy(files, result.Files)
	readFailures := make([]string, len(files))

	group, groupContext := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	for fileIndex := range files {
		fileIndex := fileIndex
		group.Go(func() error {
			if contextError := groupContext.Err(); contextError != nil {
				return contextError
			}
			// #nosec G304
			data, readError := os.ReadFile(files[fileIndex].Path)
			if readError != nil {
				readFailures[fileIndex] = readError.Error()
				return nil
			}
			if options.Transformer != nil {
				data = options.Transformer.Transform(files[fileIndex].Path, data)
			}
			files[fileIndex].Content = string(data)
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return types.ScanResult{}, waitError
	}

	readResult := types.ScanResult{
		Root:    result.Root,
		Skipped: append([]types.SkippedFile{}, result.Skipped...),
	}
	for fileIndex, file := range files {
		if readFailures[fileIndex] != "" {
			readResult.Skipped = append(readResult.Skipped, types.SkippedFile{
				RelativePath: file.RelativePath,
				Reason:       types.SkipReasonUnreadable,
				Detail:       readFailures[fileIndex],
			})
			continue
		}
		readResult.Files = append(readResult.Files, file)
	}
	return readResult, nil
}
