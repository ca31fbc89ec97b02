package pool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cenkalti/backoff/v4"
	"github.com/tanq16/vodkit/internal/types"
	"github.com/tanq16/vodkit/internal/utils"
)

func defaultRenameBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = utils.RenameInitialDelay
	b.Multiplier = utils.RenameFactor
	b.MaxInterval = utils.RenameMaxDelay
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, utils.RenameAttempts-1)
}

// fetchFragment makes sure folder/<name> exists. Attempts are retried
// immediately; a failed rename counts as a failed attempt.
func (p *Pool) fetchFragment(ctx context.Context, fragment types.Fragment, folder string) error {
	if !utils.IsPlainFileName(fragment.Name) {
		return fmt.Errorf("%w: %q is not a plain file name", utils.ErrFragmentDownloadFailed, fragment.Name)
	}
	finalPath := filepath.Join(folder, fragment.Name)
	if _, err := os.Stat(finalPath); err == nil {
		p.log.Debug().Str("fragment", fragment.Name).Msg("already on disk, skipping")
		return nil
	}
	tempPath := finalPath + utils.ProgressSuffix

	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		err := p.downloadToFile(ctx, fragment.URL, tempPath)
		if err == nil {
			err = p.finalize(tempPath, finalPath)
			if err == nil {
				return nil
			}
		}
		os.Remove(tempPath)
		lastErr = err
		p.log.Debug().Str("fragment", fragment.Name).Int("attempt", attempt).Err(err).Msg("attempt failed")
	}
	return fmt.Errorf("%w: %s: %v", utils.ErrFragmentDownloadFailed, fragment.Name, lastErr)
}

func (p *Pool) downloadToFile(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating file: %v", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("error writing file: %v", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("error closing file: %v", err)
	}
	return nil
}

func (p *Pool) finalize(tempPath, finalPath string) error {
	err := backoff.Retry(func() error {
		return os.Rename(tempPath, finalPath)
	}, p.renameBackOff())
	if err != nil {
		return fmt.Errorf("error renaming file: %v", err)
	}
	return nil
}
