package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentshare/internal/infra/config"
)

func TestHostOf(t *testing.T) {
	assert.Equal(t, "minio:9000", hostOf("http://minio:9000"))
	assert.Equal(t, "minio:9000", hostOf("minio:9000"))
	assert.Equal(t, "s3.example.com", hostOf("https://s3.example.com/"))
}

func TestPublicBase(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com", publicBase(" https://cdn.example.com/ ", "minio:9000", false))
	assert.Equal(t, "http://minio:9000", publicBase("", "minio:9000", false))
	assert.Equal(t, "https://minio:9000", publicBase("", "minio:9000", true))
	assert.Equal(t, "http://localhost:9000", publicBase("", "http://localhost:9000/", true))
}

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "http://minio:9000/photos/items/i1/a.jpg", objectURL("http://minio:9000/", "photos", "/items/i1/a.jpg"))
}

func TestNewPhotoStoreRequiresEndpointAndBucket(t *testing.T) {
	_, err := NewPhotoStore(config.S3{Bucket: "photos"}, nil)
	assert.Error(t, err)
	_, err = NewPhotoStore(config.S3{Endpoint: "minio:9000"}, nil)
	assert.Error(t, err)

	store, err := NewPhotoStore(config.S3{Endpoint: "http://minio:9000", Bucket: "photos", AccessKey: "k", SecretKey: "s"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", store.baseURL)
	assert.Contains(t, readOnlyPolicy("photos"), "arn:aws:s3:::photos/*")
}
