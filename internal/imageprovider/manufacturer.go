// manufacturer.go: image provider scraping manufacturer product-search pages.
package imageprovider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/camdex/camdex-go/internal/errors"
	"golang.org/x/time/rate"
)

const manufacturerProviderName = "manufacturer"

// manufacturerSearchURLs maps lowercase brand names to their product search
// page. Brands without an entry simply miss (nil result), letting the chain
// fall through to the archive and retailer providers.
var manufacturerSearchURLs = map[string]string{
	"canon":      "https://www.usa.canon.com/shop/search?text=%s",
	"nikon":      "https://www.nikonusa.com/search/?q=%s",
	"sony":       "https://electronics.sony.com/search/%s",
	"fujifilm":   "https://fujifilm-x.com/global/search/?q=%s",
	"panasonic":  "https://shop.panasonic.com/search?q=%s",
	"olympus":    "https://explore.omsystem.com/us/en/search?q=%s",
	"leica":      "https://leica-camera.com/en-US/search?search=%s",
	"pentax":     "https://us.ricoh-imaging.com/search?q=%s",
	"hasselblad": "https://www.hasselblad.com/search/?q=%s",
	"sigma":      "https://www.sigmaphoto.com/search?q=%s",
}

type manufacturerProvider struct {
	client    *http.Client
	userAgent string
	debug     bool
	limiter   *rate.Limiter
}

func newManufacturerProvider(client *http.Client, userAgent string, debug bool) *manufacturerProvider {
	return &manufacturerProvider{
		client:    client,
		userAgent: userAgent,
		debug:     debug,
		// One request per 2 seconds keeps us well under any site's radar.
		limiter: rate.NewLimiter(rate.Limit(0.5), 1),
	}
}

func (p *manufacturerProvider) Name() string { return manufacturerProviderName }

// Search looks up the brand's product search page and extracts the first
// plausible product image. A brand without a known storefront is a miss,
// not an error.
func (p *manufacturerProvider) Search(ctx context.Context, brand, model string) (*SearchResult, error) {
	urlTemplate, ok := manufacturerSearchURLs[strings.ToLower(strings.TrimSpace(brand))]
	if !ok {
		return nil, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, errors.New(err).
			Component(serviceName).
			Category(errors.CategoryTimeout).
			Context("provider", manufacturerProviderName).
			Build()
	}

	searchURL := fmt.Sprintf(urlTemplate, url.QueryEscape(model))
	doc, err := fetchDocument(ctx, p.client, p.userAgent, searchURL, manufacturerProviderName)
	if err != nil {
		return nil, err
	}

	imageURL := extractProductImage(doc, searchURL)
	if imageURL == "" {
		if p.debug {
			packageLogger.Debug("No product image on manufacturer page",
				"brand", brand,
				"model", model,
				"url", searchURL)
		}
		return nil, nil
	}

	return &SearchResult{
		ImageURL:   imageURL,
		SourceName: fmt.Sprintf("%s (manufacturer)", brand),
		SourceURL:  searchURL,
		License:    LicenseFairUse,
	}, nil
}

// fetchDocument GETs a page and parses it with goquery. Shared by the
// scraping providers.
func fetchDocument(ctx context.Context, client *http.Client, userAgent, pageURL, providerName string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, errors.New(err).
			Component(serviceName).
			Category(errors.CategoryNetwork).
			Context("provider", providerName).
			Context("url", pageURL).
			Build()
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.New(err).
			Component(serviceName).
			Category(errors.CategoryNetwork).
			Context("provider", providerName).
			Context("url", pageURL).
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("unexpected status %d from %s", resp.StatusCode, providerName).
			Component(serviceName).
			Category(errors.CategoryNetwork).
			Context("provider", providerName).
			Context("url", pageURL).
			Context("status", resp.StatusCode).
			Build()
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.New(err).
			Component(serviceName).
			Category(errors.CategoryImageProvider).
			Context("provider", providerName).
			Context("url", pageURL).
			Build()
	}
	return doc, nil
}

// extractProductImage pulls the most likely product image URL from a page:
// the og:image meta tag first, then the first sufficiently qualified img.
func extractProductImage(doc *goquery.Document, pageURL string) string {
	if content, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		if resolved := resolveURL(pageURL, content); resolved != "" {
			return resolved
		}
	}

	var found string
	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			src, ok = sel.Attr("data-src")
			if !ok {
				return true
			}
		}
		lower := strings.ToLower(src)
		if strings.Contains(lower, "logo") || strings.Contains(lower, "icon") ||
			strings.Contains(lower, "sprite") || strings.HasPrefix(lower, "data:") {
			return true
		}
		if resolved := resolveURL(pageURL, src); resolved != "" {
			found = resolved
			return false
		}
		return true
	})
	return found
}

// resolveURL makes relative image references absolute against the page URL.
func resolveURL(pageURL, ref string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
