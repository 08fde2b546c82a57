package imageprovider

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedClient() *http.Client {
	client := &http.Client{Timeout: 5 * time.Second}
	httpmock.ActivateNonDefault(client)
	return client
}

func TestArchiveProviderParsesAPIResponse(t *testing.T) {
	client := newMockedClient()
	defer httpmock.DeactivateAndReset()

	response := `{
		"query": {
			"pages": {
				"12345": {
					"pageid": 12345,
					"title": "File:Canon EOS R5 front.jpg",
					"imageinfo": [
						{
							"thumburl": "https://upload.example.org/thumb/canon-r5-1280.jpg",
							"url": "https://upload.example.org/canon-r5.jpg",
							"descriptionurl": "https://commons.example.org/wiki/File:Canon_EOS_R5_front.jpg"
						}
					]
				}
			}
		}
	}`
	httpmock.RegisterResponder("GET", `=~^https://commons\.example\.org/w/api\.php`,
		httpmock.NewStringResponder(200, response))

	p := newArchiveProvider(client, "test-agent", "https://commons.example.org/w/api.php", false)
	result, err := p.Search(context.Background(), "Canon", "EOS R5")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "https://upload.example.org/thumb/canon-r5-1280.jpg", result.ImageURL)
	assert.Equal(t, "https://commons.example.org/wiki/File:Canon_EOS_R5_front.jpg", result.SourceURL)
	assert.Equal(t, LicenseCCBYSA, result.License)
}

func TestArchiveProviderNoResultsIsMissNotError(t *testing.T) {
	client := newMockedClient()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", `=~^https://commons\.example\.org/w/api\.php`,
		httpmock.NewStringResponder(200, `{"batchcomplete":""}`))

	p := newArchiveProvider(client, "test-agent", "https://commons.example.org/w/api.php", false)
	result, err := p.Search(context.Background(), "Obscure", "Model X")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestArchiveProviderHTTPErrorIsError(t *testing.T) {
	client := newMockedClient()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", `=~^https://commons\.example\.org/w/api\.php`,
		httpmock.NewStringResponder(503, "service unavailable"))

	p := newArchiveProvider(client, "test-agent", "https://commons.example.org/w/api.php", false)
	_, err := p.Search(context.Background(), "Canon", "EOS R5")
	assert.Error(t, err)
}

func TestRetailerProviderExtractsOgImage(t *testing.T) {
	client := newMockedClient()
	defer httpmock.DeactivateAndReset()

	page := `<!DOCTYPE html>
	<html><head>
		<meta property="og:image" content="https://cdn.example.com/products/nikon-z8.jpg"/>
	</head><body><h1>Search results</h1></body></html>`
	httpmock.RegisterResponder("GET", `=~^https://www\.dpreview\.com/search`,
		httpmock.NewStringResponder(200, page))

	p := newRetailerProvider(client, "test-agent", false)
	result, err := p.Search(context.Background(), "Nikon", "Z8")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "https://cdn.example.com/products/nikon-z8.jpg", result.ImageURL)
	assert.Equal(t, LicenseFairUse, result.License)
}

func TestManufacturerProviderUnknownBrandIsMiss(t *testing.T) {
	client := newMockedClient()
	defer httpmock.DeactivateAndReset()

	p := newManufacturerProvider(client, "test-agent", false)
	result, err := p.Search(context.Background(), "Totally Unknown Brand", "X1")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Zero(t, httpmock.GetTotalCallCount(), "unknown brands must not hit the network")
}

func TestManufacturerProviderFallsBackToFirstImg(t *testing.T) {
	client := newMockedClient()
	defer httpmock.DeactivateAndReset()

	page := `<html><head></head><body>
		<img src="/static/logo.svg"/>
		<img src="/media/products/eos-r5-front.jpg"/>
	</body></html>`
	httpmock.RegisterResponder("GET", `=~^https://www\.usa\.canon\.com/shop/search`,
		httpmock.NewStringResponder(200, page))

	p := newManufacturerProvider(client, "test-agent", false)
	result, err := p.Search(context.Background(), "Canon", "EOS R5")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "https://www.usa.canon.com/media/products/eos-r5-front.jpg", result.ImageURL)
	assert.Contains(t, result.SourceName, "Canon")
}

func TestExtractProductImageSkipsLogosAndDataURIs(t *testing.T) {
	client := newMockedClient()
	defer httpmock.DeactivateAndReset()

	page := `<html><body>
		<img src="data:image/png;base64,AAAA"/>
		<img src="https://cdn.example.com/icons/cart-icon.png"/>
		<img src="https://cdn.example.com/sprite.png"/>
	</body></html>`
	httpmock.RegisterResponder("GET", `=~^https://www\.dpreview\.com/search`,
		httpmock.NewStringResponder(200, page))

	p := newRetailerProvider(client, "test-agent", false)
	result, err := p.Search(context.Background(), "Sony", "A1")
	require.NoError(t, err)
	assert.Nil(t, result, "pages with only chrome images are a miss")
}
