package imageprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/camdex/camdex-go/internal/conf"
	"github.com/camdex/camdex-go/internal/datastore"
	"github.com/camdex/camdex-go/internal/errors"
	"github.com/camdex/camdex-go/internal/slugify"
	gocache "github.com/patrickmn/go-cache"

	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
)

// Acquisition is the always-present result of an image acquisition. Callers
// never need a missing-image code path: on total search failure the paths
// point at a generated placeholder.
type Acquisition struct {
	LocalImagePath string
	ThumbPath      string
	ImageURL       string
	SourceName     string
	SourceURL      string
	License        string
	Attribution    string // human-readable credit string
	Source         string // datastore.ImageSourceReal or ImageSourcePlaceholder
}

// attributionSidecar is the JSON shape written next to each acquired image.
type attributionSidecar struct {
	CameraSlug   string    `json:"cameraSlug"`
	SourceName   string    `json:"sourceName"`
	SourceURL    string    `json:"sourceUrl"`
	ImageURL     string    `json:"imageUrl"`
	License      string    `json:"license"`
	DownloadedAt time.Time `json:"downloadedAt"`
}

// Acquirer runs the provider chain and owns image persistence.
type Acquirer struct {
	settings  *conf.Settings
	providers []Provider
	client    *http.Client
	userAgent string
	negative  *gocache.Cache
	debug     bool
}

// NewAcquirer creates an Acquirer with the configured provider chain.
func NewAcquirer(settings *conf.Settings) *Acquirer {
	return NewAcquirerWithProviders(settings, BuildChain(settings))
}

// NewAcquirerWithProviders creates an Acquirer with an explicit provider
// list, used by tests and the backfill command.
func NewAcquirerWithProviders(settings *conf.Settings, providers []Provider) *Acquirer {
	return &Acquirer{
		settings:  settings,
		providers: providers,
		client:    newHTTPClient(settings),
		userAgent: buildUserAgent(settings),
		negative:  newNegativeCache(settings),
		debug:     settings.ImageProvider.Debug,
	}
}

// Acquire obtains a representative image for the camera identified by brand,
// model and slug. It never fails: the worst case result is a deterministic
// branded placeholder. Errors along the way are logged and swallowed.
func (a *Acquirer) Acquire(ctx context.Context, brand, model, slug string) Acquisition {
	// Idempotence: an existing real image on disk skips all network work.
	if existing, ok := a.existingAcquisition(slug); ok {
		if a.debug {
			packageLogger.Debug("Existing image found on disk, skipping search",
				"slug", slug)
		}
		return existing
	}

	for _, provider := range a.providers {
		if ctx.Err() != nil {
			break
		}

		cacheKey := negativeCacheKey(provider.Name(), slug)
		if _, missed := a.negative.Get(cacheKey); missed {
			continue
		}

		searchCtx, cancel := context.WithTimeout(ctx,
			time.Duration(a.settings.ImageProvider.TimeoutSeconds)*time.Second)
		result, err := provider.Search(searchCtx, brand, model)
		cancel()

		if err != nil {
			packageLogger.Warn("Provider search failed",
				"provider", provider.Name(),
				"brand", brand,
				"model", model,
				"error", err)
			continue
		}
		if result == nil {
			a.negative.Set(cacheKey, true, gocache.DefaultExpiration)
			continue
		}

		acq, err := a.downloadAndPersist(ctx, slug, result)
		if err != nil {
			packageLogger.Warn("Image download rejected, trying next provider",
				"provider", provider.Name(),
				"brand", brand,
				"model", model,
				"url", result.ImageURL,
				"error", err)
			continue
		}

		packageLogger.Info("Acquired image",
			"slug", slug,
			"provider", provider.Name(),
			"source", acq.SourceName)
		return acq
	}

	return a.synthesizePlaceholder(brand, model, slug)
}

// existingAcquisition reports whether a valid non-placeholder image already
// exists on disk for the slug, reconstructing the reference from the
// attribution sidecar when present.
func (a *Acquirer) existingAcquisition(slug string) (Acquisition, bool) {
	fullPath := a.imagePath(slug)
	if _, err := os.Stat(fullPath); err != nil {
		return Acquisition{}, false
	}

	sidecar, err := a.readSidecar(slug)
	if err != nil || sidecar.License == LicensePlaceholder {
		// Placeholders are always eligible for replacement by a real image.
		return Acquisition{}, false
	}

	return Acquisition{
		LocalImagePath: fullPath,
		ThumbPath:      a.thumbPath(slug),
		ImageURL:       sidecar.ImageURL,
		SourceName:     sidecar.SourceName,
		SourceURL:      sidecar.SourceURL,
		License:        sidecar.License,
		Attribution:    creditLine(sidecar.SourceName, sidecar.License),
		Source:         datastore.ImageSourceReal,
	}, true
}

// downloadAndPersist fetches the image, validates it, and writes the
// normalized full-size image, thumbnail and attribution sidecar.
func (a *Acquirer) downloadAndPersist(ctx context.Context, slug string, result *SearchResult) (Acquisition, error) {
	img, err := a.download(ctx, result.ImageURL)
	if err != nil {
		return Acquisition{}, err
	}

	fullPath := a.imagePath(slug)
	thumbPath := a.thumbPath(slug)
	if err := writeImagePair(img, fullPath, thumbPath,
		a.settings.ImageProvider.MaxImageWidth, a.settings.ImageProvider.ThumbWidth); err != nil {
		return Acquisition{}, err
	}

	sidecar := attributionSidecar{
		CameraSlug:   slug,
		SourceName:   result.SourceName,
		SourceURL:    result.SourceURL,
		ImageURL:     result.ImageURL,
		License:      result.License,
		DownloadedAt: time.Now(),
	}
	if err := a.writeSidecar(slug, sidecar); err != nil {
		return Acquisition{}, err
	}

	return Acquisition{
		LocalImagePath: fullPath,
		ThumbPath:      thumbPath,
		ImageURL:       result.ImageURL,
		SourceName:     result.SourceName,
		SourceURL:      result.SourceURL,
		License:        result.License,
		Attribution:    creditLine(result.SourceName, result.License),
		Source:         datastore.ImageSourceReal,
	}, nil
}

// download fetches the image with a bounded timeout and size limit and
// rejects images that are implausibly small on either side.
func (a *Acquirer) download(ctx context.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, http.NoBody)
	if err != nil {
		return nil, errors.New(err).
			Component(serviceName).
			Category(errors.CategoryImageFetch).
			Context("url", imageURL).
			Build()
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.New(err).
			Component(serviceName).
			Category(errors.CategoryNetwork).
			Context("url", imageURL).
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("unexpected status %d downloading image", resp.StatusCode).
			Component(serviceName).
			Category(errors.CategoryImageFetch).
			Context("url", imageURL).
			Context("status", resp.StatusCode).
			Build()
	}

	limited := io.LimitReader(resp.Body, a.settings.ImageProvider.MaxDownloadBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New(err).
			Component(serviceName).
			Category(errors.CategoryImageFetch).
			Context("url", imageURL).
			Build()
	}
	if int64(len(data)) > a.settings.ImageProvider.MaxDownloadBytes {
		return nil, errors.Newf("image exceeds download limit of %d bytes", a.settings.ImageProvider.MaxDownloadBytes).
			Component(serviceName).
			Category(errors.CategoryImageInvalid).
			Context("url", imageURL).
			Build()
	}

	img, err := decodeImage(data)
	if err != nil {
		return nil, errors.New(err).
			Component(serviceName).
			Category(errors.CategoryImageInvalid).
			Context("url", imageURL).
			Build()
	}

	bounds := img.Bounds()
	minDim := a.settings.ImageProvider.MinDimension
	if bounds.Dx() < minDim || bounds.Dy() < minDim {
		return nil, errors.Newf("image too small: %dx%d, minimum %dpx per side",
			bounds.Dx(), bounds.Dy(), minDim).
			Component(serviceName).
			Category(errors.CategoryImageInvalid).
			Context("url", imageURL).
			Build()
	}

	return img, nil
}

// synthesizePlaceholder generates the deterministic branded placeholder and
// persists it the same way as a real image. Placeholder generation writes
// only to the local filesystem and must not fail in practice; if it somehow
// does, the returned paths still identify where the image belongs so the
// backfill pass retries later.
func (a *Acquirer) synthesizePlaceholder(brand, model, slug string) Acquisition {
	img := renderPlaceholder(brand, model)

	fullPath := a.imagePath(slug)
	thumbPath := a.thumbPath(slug)
	if err := writeImagePair(img, fullPath, thumbPath,
		a.settings.ImageProvider.MaxImageWidth, a.settings.ImageProvider.ThumbWidth); err != nil {
		packageLogger.Error("Failed to persist placeholder image",
			"slug", slug,
			"error", err)
	}

	sidecar := attributionSidecar{
		CameraSlug:   slug,
		SourceName:   "generated",
		License:      LicensePlaceholder,
		DownloadedAt: time.Now(),
	}
	if err := a.writeSidecar(slug, sidecar); err != nil {
		packageLogger.Error("Failed to write placeholder attribution",
			"slug", slug,
			"error", err)
	}

	if a.debug {
		packageLogger.Debug("Synthesized placeholder image",
			"slug", slug,
			"brand", brand,
			"model", model)
	}

	return Acquisition{
		LocalImagePath: fullPath,
		ThumbPath:      thumbPath,
		SourceName:     "generated",
		License:        LicensePlaceholder,
		Attribution:    LicensePlaceholder,
		Source:         datastore.ImageSourcePlaceholder,
	}
}

func (a *Acquirer) imagePath(slug string) string {
	return filepath.ToSlash(filepath.Join(a.settings.Output.ImageDir, slugify.ImageFilename(slug)))
}

func (a *Acquirer) thumbPath(slug string) string {
	return filepath.ToSlash(filepath.Join(a.settings.Output.ThumbDir, slugify.ThumbFilename(slug)))
}

func (a *Acquirer) sidecarPath(slug string) string {
	return filepath.ToSlash(filepath.Join(a.settings.Output.AttributionDir, slugify.AttributionFilename(slug)))
}

// writeSidecar persists the attribution JSON atomically (temp file + rename)
// so readers never observe a partially written attribution.
func (a *Acquirer) writeSidecar(slug string, sidecar attributionSidecar) error {
	path := a.sidecarPath(slug)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating attribution directory: %w", err)
	}

	data, err := json.MarshalIndent(sidecar, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling attribution for %s: %w", slug, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing attribution for %s: %w", slug, err)
	}
	return os.Rename(tmp, path)
}

func (a *Acquirer) readSidecar(slug string) (attributionSidecar, error) {
	var sidecar attributionSidecar
	data, err := os.ReadFile(a.sidecarPath(slug))
	if err != nil {
		return sidecar, err
	}
	err = json.Unmarshal(data, &sidecar)
	return sidecar, err
}

// creditLine builds the human-readable credit string stored on the camera.
func creditLine(sourceName, license string) string {
	if sourceName == "" || sourceName == "generated" {
		return LicensePlaceholder
	}
	return fmt.Sprintf("Photo via %s — %s", sourceName, license)
}
