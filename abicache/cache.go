// Package abicache is a bbolt-backed cache of parsed ABI documents, keyed
// by the SHA-256 digest of the document's YAML source, from which
// GetOrParse builds validated registries.
// It never participates in decoding itself: a cache miss always falls
// back to parsing the supplied document text, so callers that never touch
// this package see no behavior difference.
package abicache

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"fmt"
	"sync"
	"time"

	"github.com/thru-labs/thru-go/abi"

	bolt "go.etcd.io/bbolt"
)

var bucketRegistries = []byte("registries")

func init() {
	gob.Register(abi.PrimitiveKind{})
	gob.Register(abi.StructKind{})
	gob.Register(abi.ArrayKind{})
	gob.Register(abi.EnumKind{})
	gob.Register(abi.UnionKind{})
	gob.Register(abi.SizeDiscUnionKind{})
	gob.Register(abi.TypeRefKind{})

	gob.Register(abi.LiteralExpr{})
	gob.Register(abi.FieldRefExpr{})
	gob.Register(abi.BinaryExpr{})
	gob.Register(abi.UnaryExpr{})
	gob.Register(abi.SizeofExpr{})
	gob.Register(abi.AlignofExpr{})
}

// Cache is a single bbolt-backed document cache. The zero value is not
// usable; construct one with Open.
type Cache struct {
	db *bolt.DB
	mu sync.Mutex // serializes lookup and store calls
}

// Open opens (creating if necessary) the bbolt file at path.
func Open(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("abicache: open bbolt: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRegistries)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("abicache: create bucket: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying bbolt file.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func digestOf(documentBytes []byte) [32]byte {
	return sha256.Sum256(documentBytes)
}

// lookup returns the cached document for documentBytes, if present.
func (c *Cache) lookup(digest [32]byte) (*abi.Document, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var doc *abi.Document
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketRegistries).Get(digest[:])
		if v == nil {
			return nil
		}
		decoded := new(abi.Document)
		if err := gob.NewDecoder(bytes.NewReader(v)).Decode(decoded); err != nil {
			return fmt.Errorf("abicache: decode cached document: %w", err)
		}
		doc = decoded
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return doc, doc != nil, nil
}

// store saves doc under digest, overwriting any existing entry.
func (c *Cache) store(digest [32]byte, doc *abi.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("abicache: encode document: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRegistries).Put(digest[:], buf.Bytes())
	})
}

// GetOrParse returns a validated Registry for documentBytes. On a cache
// hit it skips re-parsing the YAML source (the cached, already-validated
// Document is decoded from bbolt and re-validated, which is cheap relative
// to YAML parsing). On a miss it parses and validates documentBytes and
// stores the result before returning.
func (c *Cache) GetOrParse(documentBytes []byte) (*abi.Registry, error) {
	digest := digestOf(documentBytes)

	if doc, ok, err := c.lookup(digest); err != nil {
		return nil, err
	} else if ok {
		return abi.NewRegistry(doc)
	}

	doc, err := abi.ParseDocument(documentBytes)
	if err != nil {
		return nil, err
	}
	reg, err := abi.NewRegistry(doc)
	if err != nil {
		return nil, err
	}
	if err := c.store(digest, doc); err != nil {
		return nil, err
	}
	return reg, nil
}
