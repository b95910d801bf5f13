package main

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/aclements/bipv/log"
)

var cacheLogger = log.New("cache")

// A Cache stores gob-encoded values on disk under a hash of the inputs
// that produced them. A Cache with an empty Dir never hits and never
// saves.
type Cache struct {
	Dir string
}

type CacheKey struct {
	dir string
	key string
}

// Key hashes args into a cache key. Every arg must be gob-encodable.
func (c *Cache) Key(args ...any) *CacheKey {
	h := sha256.New()

	enc := gob.NewEncoder(h)
	for _, arg := range args {
		if err := enc.Encode(arg); err != nil {
			panic("error encoding cache key: " + err.Error())
		}
	}

	return &CacheKey{c.Dir, hex.EncodeToString(h.Sum(nil))}
}

func (ck *CacheKey) String() string {
	return ck.key[:12]
}

func (ck *CacheKey) path() string {
	return filepath.Join(ck.dir, ck.key)
}

func (ck *CacheKey) Load(out any) bool {
	if ck.dir == "" {
		return false
	}
	f, err := os.Open(ck.path())
	if err != nil {
		return false
	}
	defer f.Close()
	dec := gob.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		cacheLogger.Warningf("ignoring corrupt cache entry %s: %v", ck, err)
		return false
	}
	cacheLogger.Debugf("cache hit %s", ck)
	return true
}

func (ck *CacheKey) Save(val any) {
	if ck.dir == "" {
		return
	}
	if err := os.MkdirAll(ck.dir, 0777); err != nil {
		cacheLogger.Warningf("error creating %s: %s", ck.dir, err)
		return
	}
	f, err := os.Create(ck.path())
	if err != nil {
		cacheLogger.Warningf("error saving to cache: %s", err)
		return
	}
	defer f.Close()
	enc := gob.NewEncoder(f)
	if err := enc.Encode(val); err != nil {
		panic("error encoding cache value: " + err.Error())
	}
}
