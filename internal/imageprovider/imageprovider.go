// imageprovider.go: Package imageprovider acquires product images for camera
// records through an ordered chain of source providers, falling back to a
// generated placeholder when every provider fails.
package imageprovider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/camdex/camdex-go/internal/conf"
	"github.com/camdex/camdex-go/internal/logging"
	gocache "github.com/patrickmn/go-cache"
)

// Provider defines the interface for a single image source. Search returns
// nil (not an error) when the source has no image for the camera; errors are
// reserved for transport and parsing failures. Implementations respect their
// own timeout and never block the caller indefinitely.
type Provider interface {
	Name() string
	Search(ctx context.Context, brand, model string) (*SearchResult, error)
}

// SearchResult carries the outcome of a successful provider search.
type SearchResult struct {
	ImageURL   string // direct URL of the image to download
	SourceName string // provider display name for attribution
	SourceURL  string // page the image was found on
	License    string // license text recorded in the attribution
}

// License strings recorded in attributions, by acquisition path.
const (
	LicenseFairUse     = "Fair Use — Educational"
	LicenseCCBYSA      = "CC BY-SA"
	LicensePlaceholder = "Generated placeholder"
)

// serviceName is the service attribute used on this package's loggers.
const serviceName = "imageprovider"

var packageLogger *slog.Logger

func init() {
	var err error
	packageLogger, _, err = logging.NewFileLogger("logs/imageprovider.log", serviceName, slog.LevelInfo)
	if err != nil || packageLogger == nil {
		packageLogger = logging.ForService(serviceName)
	}
}

// buildUserAgent constructs a polite user agent identifying the scraper and
// a contact URL, in the form sources expect from well-behaved robots.
func buildUserAgent(settings *conf.Settings) string {
	version := settings.Version
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("%s/%s (%s) Go-HTTP-Client/%s",
		settings.Main.Name, version, settings.ImageProvider.UserAgentContact, runtime.Version())
}

// newHTTPClient returns the shared client configuration for provider
// requests: bounded timeout, no redirect surprises beyond the default.
func newHTTPClient(settings *conf.Settings) *http.Client {
	return &http.Client{
		Timeout: time.Duration(settings.ImageProvider.TimeoutSeconds) * time.Second,
	}
}

// BuildChain assembles the ordered provider chain from configuration.
// Unknown names were already rejected by conf validation.
func BuildChain(settings *conf.Settings) []Provider {
	client := newHTTPClient(settings)
	userAgent := buildUserAgent(settings)

	providers := make([]Provider, 0, len(settings.ImageProvider.Providers))
	for _, name := range settings.ImageProvider.Providers {
		switch name {
		case "manufacturer":
			providers = append(providers, newManufacturerProvider(client, userAgent, settings.ImageProvider.Debug))
		case "archive":
			providers = append(providers, newArchiveProvider(client, userAgent, settings.ImageProvider.ArchiveAPIEndpoint, settings.ImageProvider.Debug))
		case "retailer":
			providers = append(providers, newRetailerProvider(client, userAgent, settings.ImageProvider.Debug))
		}
	}
	return providers
}

// newNegativeCache returns the cache used to remember provider misses so a
// source that had nothing for a camera is not asked again within the TTL.
func newNegativeCache(settings *conf.Settings) *gocache.Cache {
	ttl := time.Duration(settings.ImageProvider.NegativeCacheTTL) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	return gocache.New(ttl, 2*ttl)
}

func negativeCacheKey(providerName, slug string) string {
	return providerName + "|" + slug
}
