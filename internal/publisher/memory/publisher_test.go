package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

func TestPublisherStoresBatches(t *testing.T) {
	t.Parallel()

	a := crawler.NewProperty("immowelt", crawler.Munich, time.Unix(1, 0))
	b := crawler.NewProperty("immoscout", crawler.Kempten, time.Unix(2, 0))

	pub := New()
	require.NoError(t, pub.Publish(context.Background(), []crawler.Property{a}))
	require.NoError(t, pub.Publish(context.Background(), nil))
	require.NoError(t, pub.Publish(context.Background(), []crawler.Property{b}))

	require.Len(t, pub.Batches(), 3)
	require.Equal(t, []crawler.Property{a, b}, pub.Records())

	batches := pub.Batches()
	batches[0][0].Source = "modified"
	require.Equal(t, "immowelt", pub.Batches()[0][0].Source, "Batches() must return a copy")
}

func TestPublisherFailWith(t *testing.T) {
	t.Parallel()

	boom := errors.New("broker down")
	pub := New()
	pub.FailWith(boom)
	require.ErrorIs(t, pub.Publish(context.Background(), []crawler.Property{{}}), boom)
	require.Empty(t, pub.Batches())

	pub.FailWith(nil)
	require.NoError(t, pub.Publish(context.Background(), []crawler.Property{{}}))
	require.Len(t, pub.Records(), 1)
}
