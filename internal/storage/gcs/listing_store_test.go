package gcs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

type fakeWriter struct {
	bytes.Buffer
	bucket   *fakeBucket
	object   string
	closeErr error
}

func (w *fakeWriter) Close() error {
	if w.closeErr != nil {
		return w.closeErr
	}
	w.bucket.objects[w.object] = w.Bytes()
	return nil
}

type fakeBucket struct {
	objects  map[string][]byte
	closeErr error
}

func (b *fakeBucket) NewWriter(_ context.Context, object string) io.WriteCloser {
	return &fakeWriter{bucket: b, object: object, closeErr: b.closeErr}
}

func flat(source string, city crawler.City, id string) crawler.Property {
	return crawler.NewProperty(source, city, time.Unix(1700000000, 0)).
		WithData(crawler.PropertyData{Price: 1100, Title: "Flat " + id, ExternalID: id})
}

func TestPublishWritesObjects(t *testing.T) {
	t.Parallel()

	bucket := &fakeBucket{objects: map[string][]byte{}}
	store := New(bucket, Config{Bucket: "flats", Prefix: "/listings/"}, nil)

	records := []crawler.Property{
		flat("immowelt", crawler.Munich, "2k4"),
		crawler.NewProperty("immowelt", crawler.Munich, time.Now()),
		flat("wohnungsboerse", crawler.Kempten, "991"),
	}
	require.NoError(t, store.Publish(context.Background(), records))

	require.Len(t, bucket.objects, 2)
	require.Contains(t, bucket.objects, "listings/Munich/immowelt-2k4.json")
	require.Contains(t, bucket.objects, "listings/Kempten/wohnungsboerse-991.json")

	var payload crawler.Payload
	require.NoError(t, json.Unmarshal(bucket.objects["listings/Kempten/wohnungsboerse-991.json"], &payload))
	require.Equal(t, crawler.Kempten, payload.City)
	require.Equal(t, "991", payload.Data.ExternalID)
}

func TestObjectNameWithoutPrefix(t *testing.T) {
	t.Parallel()

	store := New(&fakeBucket{}, Config{Bucket: "flats"}, nil)
	name, err := store.ObjectName(flat("immoscout", crawler.Lindenberg, "123"))
	require.NoError(t, err)
	require.Equal(t, "Lindenberg/immoscout-123.json", name)

	_, err = store.ObjectName(crawler.NewProperty("immoscout", crawler.Lindenberg, time.Now()))
	require.ErrorIs(t, err, crawler.ErrIncomplete)
}

func TestPublishSurfacesCloseErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("precondition failed")
	store := New(&fakeBucket{objects: map[string][]byte{}, closeErr: boom}, Config{Bucket: "flats"}, nil)
	err := store.Publish(context.Background(), []crawler.Property{flat("immowelt", crawler.Munich, "1")})
	require.ErrorIs(t, err, boom)
}

func TestConnectRequiresBucket(t *testing.T) {
	t.Parallel()

	_, err := Connect(context.Background(), Config{}, nil)
	require.ErrorContains(t, err, "bucket is required")
}
