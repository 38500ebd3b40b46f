package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// CachedGenerator wraps a TextGenerator and replays earlier answers for
// identical prompts from a JSON file. It keeps repeated CLI runs and
// evaluation tests from paying for the same request twice.
type CachedGenerator struct {
	realGen       TextGenerator
	cache         map[string]ContentResponse
	cacheFilePath string
	mu            sync.Mutex
}

// NewCachedGenerator creates a CachedGenerator and loads the cache file if present.
func NewCachedGenerator(realGen TextGenerator, cacheFilePath string) (*CachedGenerator, error) {
	c := &CachedGenerator{
		realGen:       realGen,
		cache:         make(map[string]ContentResponse),
		cacheFilePath: cacheFilePath,
	}

	cacheDir := filepath.Dir(cacheFilePath)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	data, err := os.ReadFile(cacheFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache file %s: %w", cacheFilePath, err)
	}

	if err := json.Unmarshal(data, &c.cache); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data from %s: %w", cacheFilePath, err)
	}

	log.Printf("Loaded %d cached responses from %s", len(c.cache), cacheFilePath)
	return c, nil
}

// Model returns the wrapped generator's model.
func (c *CachedGenerator) Model() string {
	return c.realGen.Model()
}

// GenerateContent returns a cached answer when the same prompt was seen before.
// Empty answers and errors are never cached.
func (c *CachedGenerator) GenerateContent(ctx context.Context, p Prompt) (ContentResponse, error) {
	key := cacheKey(c.realGen.Model(), p)

	c.mu.Lock()
	if resp, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return resp, nil
	}
	c.mu.Unlock()

	resp, err := c.realGen.GenerateContent(ctx, p)
	if err != nil {
		return resp, err
	}
	if resp.Content != "" {
		c.mu.Lock()
		c.cache[key] = resp
		c.mu.Unlock()
	}
	return resp, nil
}

// SaveCache persists the current in-memory cache to the file system.
func (c *CachedGenerator) SaveCache() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(c.cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := os.WriteFile(c.cacheFilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", c.cacheFilePath, err)
	}
	return nil
}

// Close saves the cache and closes the wrapped generator when it owns resources.
func (c *CachedGenerator) Close() error {
	if err := c.SaveCache(); err != nil {
		return err
	}
	if closer, ok := c.realGen.(Closer); ok {
		return closer.Close()
	}
	return nil
}

func cacheKey(model string, p Prompt) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(p.System))
	h.Write([]byte{0})
	h.Write([]byte(p.User))
	if p.Schema != nil {
		h.Write([]byte{0})
		h.Write([]byte(p.Schema.String()))
	}
	return hex.EncodeToString(h.Sum(nil))
}
