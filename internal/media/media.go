// Package media downloads post thumbnails so the report can reference
// local copies instead of CDN URLs that expire.
package media

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/viralops/viralfinder/pkg/httpclient"
	"github.com/viralops/viralfinder/pkg/useragent"
)

// minImageBytes rejects tracking pixels and broken thumbnails.
const minImageBytes = 1024

// maxImageBytes caps the download size.
const maxImageBytes = 10 << 20

var extByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Downloader fetches post images into a local directory.
type Downloader struct {
	dir    string
	hc     *httpclient.Client
	uas    *useragent.Pool
	now    func() time.Time
	logger *zap.Logger
}

type Config struct {
	// Dir is the directory images are written to; created if missing.
	Dir string
	// Now is the clock used for filenames; defaults to time.Now.
	Now func() time.Time
}

func NewDownloader(cfg Config, hc *httpclient.Client, logger *zap.Logger) (*Downloader, error) {
	if cfg.Dir == "" {
		cfg.Dir = "images"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create images directory: %w", err)
	}

	return &Downloader{
		dir:    cfg.Dir,
		hc:     hc,
		uas:    useragent.NewPool(nil),
		now:    cfg.Now,
		logger: logger,
	}, nil
}

// Download fetches one image URL and returns the local file path. The
// filename combines a short hash of the URL with a timestamp, so repeated
// runs never clobber each other.
func (d *Downloader) Download(ctx context.Context, imageURL string) (string, error) {
	if imageURL == "" {
		return "", errors.New("empty image URL")
	}

	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create image request: %w", err)
	}
	req.Header.Set("User-Agent", d.uas.GetRandom())

	resp, err := d.hc.Do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("image returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	ext, ok := extByContentType[strings.TrimSpace(contentType)]
	if !ok {
		return "", fmt.Errorf("unexpected content type %q", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", fmt.Errorf("read image body: %w", err)
	}
	if len(data) < minImageBytes {
		return "", fmt.Errorf("image too small (%d bytes), likely a placeholder", len(data))
	}

	sum := md5.Sum([]byte(imageURL))
	name := fmt.Sprintf("%s_%d%s", hex.EncodeToString(sum[:])[:12], d.now().Unix(), ext)
	path := filepath.Join(d.dir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write image file: %w", err)
	}

	d.logger.Debug("image downloaded",
		zap.String("url", imageURL),
		zap.String("path", path),
		zap.Int("bytes", len(data)))
	return path, nil
}
