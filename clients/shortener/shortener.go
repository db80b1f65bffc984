package shortener

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// defaultEndpoint is the is.gd simple-format API
const defaultEndpoint = "https://is.gd/create.php"

// Shortener shortens URLs through is.gd, memoizing results to a JSON file so
// repeated digest runs never re-shorten the same URL. The in-process map is
// mutex-guarded; the cache file is guarded with a file lock so concurrent runs
// on the same machine don't clobber each other's writes.
type Shortener struct {
	endpoint   string
	cachePath  string
	httpClient *http.Client
	fileLock   *flock.Flock

	mu    sync.Mutex
	cache map[string]string
}

// NewShortener creates a shortener persisting its cache at cachePath. An empty
// endpoint selects the is.gd API.
func NewShortener(cachePath, endpoint string) *Shortener {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	s := &Shortener{
		endpoint:   endpoint,
		cachePath:  cachePath,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		fileLock:   flock.New(cachePath + ".lock"),
		cache:      map[string]string{},
	}
	s.loadCache()
	return s
}

// Shorten returns the shortened form of rawURL, from cache when available
func (s *Shortener) Shorten(rawURL string) (string, error) {
	s.mu.Lock()
	if short, ok := s.cache[rawURL]; ok {
		s.mu.Unlock()
		return short, nil
	}
	s.mu.Unlock()

	log.Printf("🔗 Shortening URL %s", rawURL)
	resp, err := s.httpClient.Get(fmt.Sprintf("%s?format=simple&url=%s", s.endpoint, url.QueryEscape(rawURL)))
	if err != nil {
		return "", fmt.Errorf("failed to shorten URL: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read shortener response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("shortener returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	short := strings.TrimSpace(string(body))
	s.mu.Lock()
	s.cache[rawURL] = short
	err = s.persistCache()
	s.mu.Unlock()
	if err != nil {
		// the shortened URL is still good; losing one cache write only costs
		// a future request
		log.Printf("⚠️ Failed to persist shortener cache: %v", err)
	}

	return short, nil
}

// loadCache reads the cache file if one exists; a missing or corrupt file
// starts an empty cache
func (s *Shortener) loadCache() {
	data, err := os.ReadFile(s.cachePath)
	if err != nil {
		return
	}
	var cache map[string]string
	if err := json.Unmarshal(data, &cache); err != nil {
		log.Printf("⚠️ Ignoring unreadable shortener cache at %s: %v", s.cachePath, err)
		return
	}
	s.cache = cache
}

// persistCache writes the cache file under the file lock. Caller holds s.mu.
func (s *Shortener) persistCache() error {
	data, err := json.Marshal(s.cache)
	if err != nil {
		return fmt.Errorf("failed to marshal shortener cache: %w", err)
	}

	if err := s.fileLock.Lock(); err != nil {
		return fmt.Errorf("failed to lock shortener cache file: %w", err)
	}
	defer func() {
		if err := s.fileLock.Unlock(); err != nil {
			log.Printf("⚠️ Failed to unlock shortener cache file: %v", err)
		}
	}()

	if err := os.WriteFile(s.cachePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write shortener cache: %w", err)
	}
	return nil
}
