// retailer.go: image provider scraping a camera review aggregator's
// product search pages.
package imageprovider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/camdex/camdex-go/internal/errors"
	"golang.org/x/time/rate"
)

const (
	retailerProviderName = "retailer"
	retailerSearchURL    = "https://www.dpreview.com/search?query=%s"
	retailerSourceName   = "DPReview"
)

type retailerProvider struct {
	client    *http.Client
	userAgent string
	debug     bool
	limiter   *rate.Limiter
}

func newRetailerProvider(client *http.Client, userAgent string, debug bool) *retailerProvider {
	return &retailerProvider{
		client:    client,
		userAgent: userAgent,
		debug:     debug,
		limiter:   rate.NewLimiter(rate.Limit(0.5), 1),
	}
}

func (p *retailerProvider) Name() string { return retailerProviderName }

// Search scrapes the aggregator's search page for the first product image.
// Scraped retail and review images are credited as fair use.
func (p *retailerProvider) Search(ctx context.Context, brand, model string) (*SearchResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, errors.New(err).
			Component(serviceName).
			Category(errors.CategoryTimeout).
			Context("provider", retailerProviderName).
			Build()
	}

	query := url.QueryEscape(brand + " " + model)
	searchURL := fmt.Sprintf(retailerSearchURL, query)

	doc, err := fetchDocument(ctx, p.client, p.userAgent, searchURL, retailerProviderName)
	if err != nil {
		return nil, err
	}

	imageURL := extractProductImage(doc, searchURL)
	if imageURL == "" {
		if p.debug {
			packageLogger.Debug("No product image on retailer search page",
				"brand", brand,
				"model", model,
				"url", searchURL)
		}
		return nil, nil
	}

	return &SearchResult{
		ImageURL:   imageURL,
		SourceName: retailerSourceName,
		SourceURL:  searchURL,
		License:    LicenseFairUse,
	}, nil
}
