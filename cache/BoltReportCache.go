// Package cache stores scan reports keyed by content so unchanged files are
// not rescanned.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reaandrew/migrationlint/core"
	log "github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"
)

const BucketName = "reports"

type ReportCache interface {
	Get(key string) (core.Report, bool)
	Put(key string, report core.Report) error
	Close() error
}

// Key derives a cache key from everything that influences a report: the
// catalog fingerprint, the active configuration, the path and the content.
func Key(fingerprint string, configuration string, path string, content string) string {
	h := sha256.New()
	for _, part := range []string{fingerprint, configuration, path, content} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

type BoltReportCache struct {
	db *bbolt.DB
}

func OpenBoltReportCache(path string) (*BoltReportCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := bbolt.Open(path, 0666, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltReportCache{db: db}, nil
}

func (c *BoltReportCache) Get(key string) (core.Report, bool) {
	var report core.Report
	found := false
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(BucketName)).Get([]byte(key))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &report); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		log.Warnf("Ignoring unreadable cache entry %s: %v", key, err)
		return core.Report{}, false
	}
	return report, found
}

func (c *BoltReportCache) Put(key string, report core.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(BucketName)).Put([]byte(key), data)
	})
}

func (c *BoltReportCache) Close() error {
	return c.db.Close()
}

// NoopReportCache never hits.
type NoopReportCache struct{}

func (NoopReportCache) Get(string) (core.Report, bool) { return core.Report{}, false }

func (NoopReportCache) Put(string, core.Report) error { return nil }

func (NoopReportCache) Close() error { return nil }
