package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"livesync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestObjectStore_Key(t *testing.T) {
	assert.Equal(t, "snapshots/snapshots.json", NewObjectStore(nil, "b", "snapshots").Key())
	assert.Equal(t, "snapshots.json", NewObjectStore(nil, "b", "").Key())
}

func TestObjectStore_Save(t *testing.T) {
	client := new(mocks.Client)
	store := NewObjectStore(client, "livesync", "snaps")

	var uploaded []byte
	client.On("PutObject", mock.Anything, "livesync", "snaps/snapshots.json", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			data, _ := io.ReadAll(args.Get(3).(io.Reader))
			uploaded = data
		}).
		Return(minio.UploadInfo{}, nil)

	err := store.Save(context.Background(), []Entry{{Seq: 0, Name: "x", Kind: "object", Publication: "x", Diff: json.RawMessage(`{"a":1}`)}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"seq":0,"name":"x","kind":"object","publication":"x","diff":{"a":1}}]`, string(uploaded))
	client.AssertExpectations(t)
}

func TestObjectStore_Load(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		getErr  error
		want    int
		wantErr bool
	}{
		{"Document", `[{"seq":0,"name":"x","kind":"object","publication":"x","diff":{"a":1}}]`, nil, 1, false},
		{"Missing", "", minio.ErrorResponse{Code: "NoSuchKey"}, 0, false},
		{"Failure", "", errors.New("connection refused"), 0, true},
		{"Corrupt", `{`, nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mocks.Client)
			store := NewObjectStore(client, "livesync", "snaps")

			var body io.ReadCloser
			if tt.getErr == nil {
				body = io.NopCloser(bytes.NewBufferString(tt.body))
			}
			client.On("GetObject", mock.Anything, "livesync", "snaps/snapshots.json", mock.Anything).Return(body, tt.getErr)

			entries, err := store.Load(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, entries, tt.want)
		})
	}
}

func TestObjectStore_EnsureBucket(t *testing.T) {
	t.Run("Exists", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "livesync").Return(true, nil)

		require.NoError(t, NewObjectStore(client, "livesync", "").EnsureBucket(context.Background()))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Created", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "livesync").Return(false, nil)
		client.On("MakeBucket", mock.Anything, "livesync", mock.Anything).Return(nil)

		require.NoError(t, NewObjectStore(client, "livesync", "").EnsureBucket(context.Background()))
		client.AssertExpectations(t)
	})
}

func TestObjectStore_Clear(t *testing.T) {
	t.Run("Removed", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("RemoveObject", mock.Anything, "livesync", "snaps/snapshots.json", mock.Anything).Return(nil)

		require.NoError(t, NewObjectStore(client, "livesync", "snaps").Clear(context.Background()))
		client.AssertExpectations(t)
	})

	t.Run("Error", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("RemoveObject", mock.Anything, "livesync", "snapshots.json", mock.Anything).Return(errors.New("denied"))

		err := NewObjectStore(client, "livesync", "").Clear(context.Background())
		assert.ErrorContains(t, err, "denied")
	})
}
