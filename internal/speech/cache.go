package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/hammamikhairi/brewtimer/internal/logger"
)

// AudioCache keeps synthesized clips in memory and, optionally, on disk.
// Keys are sha256(voice + ":" + text), so switching voices never plays a
// clip recorded with the old one.
//
// The disk directory is always read when set; writeDisk controls whether
// new clips are persisted. Stage labels are a tiny fixed set, so after the
// first run every announcement is served from disk without a network call.
type AudioCache struct {
	log       *logger.Logger
	voice     string
	dir       string // empty disables the disk layer
	writeDisk bool

	mu      sync.RWMutex
	entries map[string][]byte
	hits    int64
	misses  int64
}

// NewAudioCache creates a cache for one voice.
func NewAudioCache(voice, dir string, writeDisk bool, log *logger.Logger) *AudioCache {
	c := &AudioCache{
		log:       log,
		voice:     voice,
		dir:       dir,
		writeDisk: writeDisk,
		entries:   make(map[string][]byte),
	}
	if dir != "" && writeDisk {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("cache: failed to create %s: %v", dir, err)
			c.writeDisk = false
		}
	}
	return c
}

// Get returns the clip for text, looking in memory and then on disk.
// Disk hits are promoted to memory.
func (c *AudioCache) Get(text string) ([]byte, bool) {
	key := c.key(text)

	c.mu.RLock()
	data, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.count(true)
		return data, true
	}

	if c.dir != "" {
		if data, err := os.ReadFile(c.path(key)); err == nil {
			c.mu.Lock()
			c.entries[key] = data
			c.mu.Unlock()
			c.count(true)
			c.log.Debug("cache hit (disk): %s", truncate(text, 40))
			return data, true
		}
	}

	c.count(false)
	return nil, false
}

// Put stores a clip in memory and, when enabled, on disk.
func (c *AudioCache) Put(text string, audio []byte) {
	key := c.key(text)

	c.mu.Lock()
	c.entries[key] = audio
	c.mu.Unlock()

	if c.dir == "" || !c.writeDisk {
		return
	}
	path := c.path(key)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		c.log.Error("cache: disk write failed for %s: %v", path, err)
	}
}

// Has reports whether a clip for text exists in either layer without
// touching the hit counters.
func (c *AudioCache) Has(text string) bool {
	key := c.key(text)

	c.mu.RLock()
	_, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return true
	}
	if c.dir == "" {
		return false
	}
	_, err := os.Stat(c.path(key))
	return err == nil
}

// Len returns the number of clips held in memory.
func (c *AudioCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counts.
func (c *AudioCache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *AudioCache) count(hit bool) {
	c.mu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
}

func (c *AudioCache) key(text string) string {
	h := sha256.Sum256([]byte(c.voice + ":" + text))
	return hex.EncodeToString(h[:])
}

func (c *AudioCache) path(key string) string {
	return filepath.Join(c.dir, key+".wav")
}
