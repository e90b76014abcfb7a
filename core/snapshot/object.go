package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path"

	"livesync/core/errors"
	"livesync/core/storage"

	"github.com/minio/minio-go/v7"
)

// ObjectName is the name of the snapshot document under the prefix.
const ObjectName = "snapshots.json"

// ObjectStore keeps snapshots as one JSON document in a bucket.
type ObjectStore struct {
	client storage.Client
	bucket string
	key    string
}

// NewObjectStore returns a store writing <prefix>/snapshots.json in bucket.
func NewObjectStore(client storage.Client, bucket, prefix string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket, key: path.Join(prefix, ObjectName)}
}

// Key returns the object name of the snapshot document.
func (s *ObjectStore) Key() string { return s.key }

// EnsureBucket creates the bucket when it does not exist.
func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrapf(err, "failed to check bucket %s", s.bucket)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrapf(err, "failed to create bucket %s", s.bucket)
	}
	return nil
}

// Save uploads entries as the snapshot document.
func (s *ObjectStore) Save(ctx context.Context, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return errors.Wrap(err, "failed to encode snapshots")
	}

	_, err = s.client.PutObject(ctx, s.bucket, s.key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return errors.Wrapf(err, "failed to upload %s", s.key)
	}
	return nil
}

// Load downloads the snapshot document. A missing document is an empty
// snapshot.
func (s *ObjectStore) Load(ctx context.Context) ([]Entry, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to download %s", s.key)
	}
	defer obj.Close()

	// minio reports a missing object on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read %s", s.key)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", s.key)
	}
	return entries, nil
}

// Clear removes the snapshot document. Removing a missing document succeeds.
func (s *ObjectStore) Clear(ctx context.Context) error {
	if err := s.client.RemoveObject(ctx, s.bucket, s.key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrapf(err, "failed to remove %s", s.key)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
