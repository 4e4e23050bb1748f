/* Copyright 2026 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package bolt stores sessions in a BoltDB file, one bucket per
// session.
package bolt

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Comcast/tale/logs"
	"github.com/Comcast/tale/storage"

	bolt "go.etcd.io/bbolt"
)

type Storage struct {
	Debug  bool
	Logger *slog.Logger

	filename string
	db       *bolt.DB
}

func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		filename: filename,
	}, nil
}

func (s *Storage) Open() error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) logf(msg string, args ...interface{}) {
	if s.Debug {
		logs.Or(s.Logger).Debug("BoltDB Storage."+msg, args...)
	}
}

// Session returns the session stored in the bucket named id.  The
// bucket is created on the first Set.
func (s *Storage) Session(ctx context.Context, id string) (storage.Session, error) {
	return &session{
		s:      s,
		bucket: []byte(id),
	}, nil
}

// RemSession deletes the bucket.
func (s *Storage) RemSession(ctx context.Context, id string) error {
	s.logf("RemSession", "id", id)
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(id))
		if err == bolt.ErrBucketNotFound {
			return nil
		}
		return err
	})
}

// SessionIds lists the stored sessions.
func (s *Storage) SessionIds(ctx context.Context) ([]string, error) {
	var acc []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			acc = append(acc, string(name))
			return nil
		})
	})
	return acc, err
}

type session struct {
	s      *Storage
	bucket []byte
}

func (ss *session) Set(ctx context.Context, key string, value interface{}) error {
	js, err := json.Marshal(value)
	if err != nil {
		return err
	}
	ss.s.logf("Set", "session", string(ss.bucket), "key", key, "bytes", len(js))
	return ss.s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(ss.bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), js)
	})
}

func (ss *session) get(key string) ([]byte, error) {
	var js []byte
	err := ss.s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(ss.bucket)
		if b == nil {
			return nil
		}
		if bs := b.Get([]byte(key)); bs != nil {
			// Only valid during the transaction.
			js = append([]byte(nil), bs...)
		}
		return nil
	})
	return js, err
}

func (ss *session) Get(ctx context.Context, key string, into interface{}) (bool, error) {
	js, err := ss.get(key)
	if err != nil || js == nil {
		return false, err
	}
	ss.s.logf("Get", "session", string(ss.bucket), "key", key, "bytes", len(js))
	return true, json.Unmarshal(js, into)
}

func (ss *session) Has(ctx context.Context, key string) (bool, error) {
	js, err := ss.get(key)
	return js != nil, err
}

func (ss *session) Delete(ctx context.Context, key string) error {
	ss.s.logf("Delete", "session", string(ss.bucket), "key", key)
	return ss.s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(ss.bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}
