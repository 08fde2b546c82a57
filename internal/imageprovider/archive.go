// archive.go: image provider querying a community image archive API
// (MediaWiki-style, Wikimedia Commons by default).
package imageprovider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/antonholmquist/jason"
	"github.com/camdex/camdex-go/internal/errors"
	"golang.org/x/time/rate"
)

const archiveProviderName = "archive"

type archiveProvider struct {
	client    *http.Client
	userAgent string
	endpoint  string
	debug     bool
	limiter   *rate.Limiter
}

func newArchiveProvider(client *http.Client, userAgent, endpoint string, debug bool) *archiveProvider {
	return &archiveProvider{
		client:    client,
		userAgent: userAgent,
		endpoint:  endpoint,
		debug:     debug,
		limiter:   rate.NewLimiter(rate.Limit(1), 1),
	}
}

func (p *archiveProvider) Name() string { return archiveProviderName }

// Search runs a file-namespace search against the archive API and returns
// the first result's rendered URL. Community archive images are credited
// under CC BY-SA.
func (p *archiveProvider) Search(ctx context.Context, brand, model string) (*SearchResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, errors.New(err).
			Component(serviceName).
			Category(errors.CategoryTimeout).
			Context("provider", archiveProviderName).
			Build()
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("generator", "search")
	params.Set("gsrsearch", fmt.Sprintf("%s %s camera", brand, model))
	params.Set("gsrnamespace", "6") // File namespace
	params.Set("gsrlimit", "1")
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url")
	params.Set("iiurlwidth", "1280")

	requestURL := p.endpoint + "?" + params.Encode()
	body, err := p.get(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	root, err := jason.NewObjectFromBytes(body)
	if err != nil {
		return nil, errors.New(err).
			Component(serviceName).
			Category(errors.CategoryImageProvider).
			Context("provider", archiveProviderName).
			Context("operation", "parse-response").
			Build()
	}

	pages, err := root.GetObject("query", "pages")
	if err != nil {
		// No "query" object means zero search results.
		if p.debug {
			packageLogger.Debug("Archive search returned no results",
				"brand", brand,
				"model", model)
		}
		return nil, nil
	}

	for _, page := range pages.Map() {
		pageObj, err := page.Object()
		if err != nil {
			continue
		}
		infos, err := pageObj.GetObjectArray("imageinfo")
		if err != nil || len(infos) == 0 {
			continue
		}

		imageURL, err := infos[0].GetString("thumburl")
		if err != nil || imageURL == "" {
			imageURL, err = infos[0].GetString("url")
			if err != nil || imageURL == "" {
				continue
			}
		}
		sourceURL, _ := infos[0].GetString("descriptionurl")

		return &SearchResult{
			ImageURL:   imageURL,
			SourceName: "Community image archive",
			SourceURL:  sourceURL,
			License:    LicenseCCBYSA,
		}, nil
	}

	return nil, nil
}

func (p *archiveProvider) get(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, http.NoBody)
	if err != nil {
		return nil, errors.New(err).
			Component(serviceName).
			Category(errors.CategoryNetwork).
			Context("provider", archiveProviderName).
			Build()
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.New(err).
			Component(serviceName).
			Category(errors.CategoryNetwork).
			Context("provider", archiveProviderName).
			Context("url", requestURL).
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("unexpected status %d from archive API", resp.StatusCode).
			Component(serviceName).
			Category(errors.CategoryNetwork).
			Context("provider", archiveProviderName).
			Context("status", resp.StatusCode).
			Build()
	}

	return io.ReadAll(resp.Body)
}
