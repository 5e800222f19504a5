/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package fetcher

import (
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
)

// httpCache wraps gregjones/httpcache with a disk-backed store, giving RFC
// 7234-compliant caching (Cache-Control, ETag, Last-Modified) for a
// "possibly remote" backing file system.
type httpCache struct {
	client *http.Client
	mu     sync.RWMutex
	// finalURLs tracks redirect targets for cache-key lookup.
	finalURLs map[string]string
}

func newHTTPCache(cacheDir string) *httpCache {
	cache := diskcache.New(cacheDir)
	transport := httpcache.NewTransport(cache)
	return &httpCache{
		client:    transport.Client(),
		finalURLs: make(map[string]string),
	}
}

func (c *httpCache) fetch(url string) ([]byte, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	c.trackFinalURL(url, resp.Request.URL.String())

	return io.ReadAll(resp.Body)
}

func (c *httpCache) trackFinalURL(originalURL, finalURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finalURLs[originalURL] = finalURL
}

// FinalURL reports the URL a previous fetch of originalURL was ultimately
// served from after redirects, if any fetch has happened yet.
func (c *httpCache) FinalURL(originalURL string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	finalURL, ok := c.finalURLs[originalURL]
	return finalURL, ok
}
