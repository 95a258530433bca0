package ocr

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	bolt "go.etcd.io/bbolt"
)

var textBucket = []byte("ocr_text")

// Cache keeps extracted text in a bbolt file so the same photo is never
// OCR'd twice.
type Cache struct {
	db     *bolt.DB
	logger *slog.Logger
}

// OpenCache opens or creates the cache file at path.
func OpenCache(path string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open ocr cache: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(textBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init ocr cache: %w", err)
	}
	logger.Info("ocr cache opened", "path", path)
	return &Cache{db: db, logger: logger}, nil
}

// Get returns the cached text for key.
func (c *Cache) Get(key string) (string, bool) {
	var txt string
	var ok bool
	err := c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(textBucket).Get([]byte(key)); v != nil {
			txt, ok = string(v), true
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("ocr.cache.read_failed", "error", err)
		return "", false
	}
	return txt, ok
}

func (c *Cache) Put(key, txt string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(textBucket).Put([]byte(key), []byte(txt))
	})
}

// Len reports how many entries are cached.
func (c *Cache) Len() int {
	n := 0
	_ = c.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(textBucket).Stats().KeyN
		return nil
	})
	return n
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// ContentKey identifies an image by content and OCR language.
func ContentKey(data []byte, lang string) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]) + ":" + lang
}
