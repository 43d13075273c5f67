package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"lpforge/internal/block"
	"lpforge/internal/dom"
	"lpforge/internal/lperr"
)

// AssetsDir is the catalog directory under the output dir.
const AssetsDir = "assets"

// Asset is one downloaded media file. OriginalURL is the reference exactly
// as written in the page.
type Asset struct {
	OriginalURL string          `json:"original_url"`
	AbsoluteURL string          `json:"absolute_url"`
	LocalPath   string          `json:"local_path"`
	LocalRef    string          `json:"local_ref"`
	Kind        block.AssetKind `json:"kind"`
	Size        int64           `json:"size"`
}

type DownloadOptions struct {
	PageURL   string
	OutputDir string
	UserAgent string
	Timeout   time.Duration
	Client    *http.Client
	Log       *zap.Logger
}

// DownloadAssets fetches every primary source and variant referenced by
// refs into OutputDir/assets. Failed downloads are skipped and reported in
// the returned error; the catalog lists what succeeded.
func DownloadAssets(ctx context.Context, refs []block.AssetRef, opts DownloadOptions) ([]Asset, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("assets")
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	dir := filepath.Join(opts.OutputDir, AssetsDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var (
		catalog []Asset
		errs    error
	)
	seen := map[string]bool{}
	for _, job := range collectJobs(refs) {
		if seen[job.src] {
			continue
		}
		seen[job.src] = true
		if err := ctx.Err(); err != nil {
			return catalog, multierr.Append(errs, err)
		}

		asset, err := download(ctx, client, job, opts.PageURL, dir, opts.UserAgent)
		if err != nil {
			log.Warn("Asset download failed", zap.String("src", job.src), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		log.Debug("Asset saved", zap.String("src", job.src), zap.String("path", asset.LocalPath), zap.Int64("size", asset.Size))
		catalog = append(catalog, asset)
	}
	return catalog, errs
}

// ImageMap turns a catalog into build substitutions from the page
// references to the local copies.
func ImageMap(catalog []Asset) map[string]string {
	out := make(map[string]string, len(catalog))
	for _, a := range catalog {
		out[a.OriginalURL] = a.LocalRef
	}
	return out
}

type assetJob struct {
	src  string
	kind block.AssetKind
}

func collectJobs(refs []block.AssetRef) []assetJob {
	var jobs []assetJob
	for _, ref := range refs {
		if downloadable(ref.PrimarySrc) {
			jobs = append(jobs, assetJob{src: ref.PrimarySrc, kind: ref.Kind})
		}
		for _, v := range ref.Variants {
			if downloadable(v.Src) {
				jobs = append(jobs, assetJob{src: v.Src, kind: ref.Kind})
			}
		}
	}
	return jobs
}

func downloadable(src string) bool {
	src = strings.TrimSpace(src)
	return src != "" && !strings.HasPrefix(src, "data:") && !strings.HasPrefix(src, "blob:")
}

func download(ctx context.Context, client *http.Client, job assetJob, pageURL, dir, userAgent string) (Asset, error) {
	abs := dom.ResolveURL(pageURL, job.src)
	u, err := url.Parse(abs)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return Asset{}, lperr.NewFetch(abs, fmt.Errorf("not an absolute http url"))
	}

	name := assetFilename(abs, u.Path, job.kind)
	asset := Asset{
		OriginalURL: job.src,
		AbsoluteURL: abs,
		LocalPath:   filepath.Join(dir, name),
		LocalRef:    AssetsDir + "/" + name,
		Kind:        job.kind,
	}
	if info, err := os.Stat(asset.LocalPath); err == nil {
		asset.Size = info.Size()
		return asset, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, abs, nil)
	if err != nil {
		return Asset{}, lperr.NewFetch(abs, err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return Asset{}, lperr.NewFetch(abs, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Asset{}, lperr.NewFetch(abs, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	out, err := os.Create(asset.LocalPath)
	if err != nil {
		return Asset{}, err
	}
	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(asset.LocalPath)
		return Asset{}, lperr.NewFetch(abs, err)
	}
	asset.Size = n
	return asset, nil
}

func assetFilename(abs, urlPath string, kind block.AssetKind) string {
	ext := strings.ToLower(path.Ext(urlPath))
	if ext == "" || len(ext) > 6 {
		ext = ".jpg"
		if kind == block.AssetVideo {
			ext = ".mp4"
		}
	}
	hash := sha256.Sum256([]byte(abs))
	return hex.EncodeToString(hash[:])[:16] + ext
}
