// Package hub - checkpoint distribution. Fetch resolves a weight entry to a
// verified local file: a content-addressed cache under the user cache dir,
// cross-process locking around downloads, retrying HTTP transfers with a
// progress bar, and SHA-256 prefix verification against the checksum
// embedded in the artifact stem.
package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/gofrs/flock"
	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-efficientnet/weights"
)

// ErrChecksumMismatch reports a checkpoint whose content hash does not start
// with the checksum its entry declares.
var ErrChecksumMismatch = errors.New("checkpoint checksum mismatch")

const (
	defaultRetries     = 3
	defaultHTTPTimeout = 10 * time.Minute
	lockPollInterval   = 50 * time.Millisecond
)

// Options tunes Fetch. The zero value works: artifacts land in the default
// user cache dir and a progress bar renders on stderr.
type Options struct {
	// CacheDir overrides the artifact cache location.
	CacheDir string
	// DisableProgress suppresses the progress bar.
	DisableProgress bool
	// Retries is the number of download attempts, default 3.
	Retries uint
	// Client overrides the HTTP client.
	Client *http.Client
	// Progress receives download bars when set; useful when one renderer
	// tracks several fetches. Ignored when DisableProgress is set.
	Progress *ProgressBar
}

// DefaultCacheDir is where checkpoints live unless overridden:
// $XDG_CACHE_HOME/nvr-ai/efficientnet (or the platform equivalent).
func DefaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user cache dir: %w", err)
	}
	return filepath.Join(base, "nvr-ai", "efficientnet"), nil
}

func (o *Options) applyDefaults() error {
	if o.CacheDir == "" {
		dir, err := DefaultCacheDir()
		if err != nil {
			return err
		}
		o.CacheDir = dir
	}
	if o.Retries == 0 {
		o.Retries = defaultRetries
	}
	if o.Client == nil {
		o.Client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return nil
}

// Fetch returns the local path of the entry's verified checkpoint,
// downloading it when the cache misses or holds a corrupt file.
//
// Arguments:
//   - ctx: Cancels the lock wait and the transfer.
//   - entry: The weight entry naming the artifact, its URL and checksum.
//   - opts: Cache and transfer tuning; nil uses defaults.
//
// Returns:
//   - string: Path of the verified file inside the cache dir.
//   - error: An error if locking, transfer or verification fail.
func Fetch(ctx context.Context, entry *weights.Entry, opts *Options) (string, error) {
	if entry == nil {
		return "", errors.New("nil weight entry")
	}
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.applyDefaults(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(opts.CacheDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache dir: %w", err)
	}

	dest := filepath.Join(opts.CacheDir, entry.Filename())
	log := logrus.WithFields(logrus.Fields{
		"weights": entry.Name,
		"path":    dest,
	})

	// Serialize against concurrent fetches of the same artifact, including
	// from other processes.
	fileLock := flock.New(dest + ".lock")
	locked, err := fileLock.TryLockContext(ctx, lockPollInterval)
	if err != nil {
		return "", fmt.Errorf("failed to lock %s: %w", dest, err)
	}
	if !locked {
		return "", fmt.Errorf("failed to lock %s", dest)
	}
	defer fileLock.Unlock()

	if _, err := os.Stat(dest); err == nil {
		if err := verifyFile(dest, entry.Checksum); err == nil {
			log.Debug("checkpoint cache hit")
			return dest, nil
		}
		log.Warn("cached checkpoint failed verification, refetching")
		if err := os.Remove(dest); err != nil {
			return "", fmt.Errorf("failed to drop corrupt checkpoint: %w", err)
		}
	}

	progress := opts.Progress
	ownProgress := false
	if opts.DisableProgress {
		progress = nil
	} else if progress == nil {
		progress = NewProgressBar()
		ownProgress = true
	}

	err = retry.Do(
		func() error { return download(ctx, opts.Client, entry, dest, progress) },
		retry.Attempts(opts.Retries),
		retry.Context(ctx),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.WithError(err).Warnf("checkpoint download attempt %d failed, retrying", n+1)
		}),
	)
	if ownProgress {
		progress.Wait()
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", entry.Name, err)
	}

	log.WithField("size", fileSize(dest)).Info("checkpoint fetched")
	return dest, nil
}

// download transfers the artifact to dest, verifying the digest computed
// over the stream before the file becomes visible under its final name.
func download(ctx context.Context, client *http.Client, entry *weights.Entry, dest string, progress *ProgressBar) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.URL, nil)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("failed to build request: %w", err))
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return retry.Unrecoverable(fmt.Errorf("server rejected %s: status %d", entry.URL, resp.StatusCode))
	default:
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, entry.URL)
	}

	size := resp.ContentLength
	if size <= 0 {
		size = entry.Size
	}

	tmp := dest + ".partial"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("failed to create %s: %w", tmp, err))
	}
	defer func() {
		out.Close()
		if err != nil {
			os.Remove(tmp)
			progress.Abort(entry.Name)
		}
	}()

	digester := digest.SHA256.Digester()
	reader := progress.Attach(entry.Name, size, resp.Body)

	if _, err = io.Copy(io.MultiWriter(out, digester.Hash()), reader); err != nil {
		return fmt.Errorf("transfer failed: %w", err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", tmp, err)
	}

	if encoded := digester.Digest().Encoded(); !strings.HasPrefix(encoded, entry.Checksum) {
		// A complete transfer with the wrong hash means the artifact itself
		// is wrong; retrying cannot help.
		err = retry.Unrecoverable(fmt.Errorf("%w: got sha256:%s, want prefix %s",
			ErrChecksumMismatch, encoded, entry.Checksum))
		return err
	}

	if err = os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", dest, err)
	}
	progress.Complete(entry.Name, fmt.Sprintf("Fetched %s", entry.Filename()))
	return nil
}

// verifyFile checks an on-disk file's SHA-256 starts with the checksum.
func verifyFile(path, checksum string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dgst, err := digest.FromReader(f)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(dgst.Encoded(), checksum) {
		return fmt.Errorf("%w: got sha256:%s, want prefix %s", ErrChecksumMismatch, dgst.Encoded(), checksum)
	}
	return nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
