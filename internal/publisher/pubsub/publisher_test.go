package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

func fakeServer(t *testing.T) (*pstest.Server, option.ClientOption) {
	t.Helper()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	// Closing a client closes its connection, so topic setup gets its own.
	admin, err := pubsub.NewClient(context.Background(), "flats-project", option.WithGRPCConn(dial(t, srv)))
	require.NoError(t, err)
	_, err = admin.CreateTopic(context.Background(), "flats")
	require.NoError(t, err)
	require.NoError(t, admin.Close())

	return srv, option.WithGRPCConn(dial(t, srv))
}

func dial(t *testing.T, srv *pstest.Server) *grpc.ClientConn {
	t.Helper()

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func flat(city crawler.City, source, id string) crawler.Property {
	return crawler.NewProperty(source, city, time.Unix(1700000000, 0)).
		WithData(crawler.PropertyData{Price: 800, Title: "Flat " + id, ExternalID: id}).
		WithLocation(crawler.Location{Latitude: 48, Longitude: 11, UncertaintyMeters: 50})
}

func TestPublishSendsPayloadWithAttributes(t *testing.T) {
	t.Parallel()

	srv, opt := fakeServer(t)
	pub, err := Connect(context.Background(), Config{ProjectID: "flats-project", TopicID: "flats"}, nil, opt)
	require.NoError(t, err)

	records := []crawler.Property{flat(crawler.Munich, "immowelt", "1"), flat(crawler.Augsburg, "immoscout", "2")}
	require.NoError(t, pub.Publish(context.Background(), records))
	require.NoError(t, pub.Close())

	msgs := srv.Messages()
	require.Len(t, msgs, 2)

	byCity := map[string]*pstest.Message{}
	for _, m := range msgs {
		byCity[m.Attributes[AttrCity]] = m
	}
	require.Contains(t, byCity, "Munich")
	require.Contains(t, byCity, "Augsburg")

	m := byCity["Augsburg"]
	require.Equal(t, "immoscout", m.Attributes[AttrSource])
	require.Equal(t, "flats_Augsburg", m.Attributes[AttrRoutingKey])
	require.Empty(t, m.OrderingKey)

	var payload crawler.Payload
	require.NoError(t, json.Unmarshal(m.Data, &payload))
	require.Equal(t, "2", payload.Data.ExternalID)
	require.NotNil(t, payload.Location)
	require.Equal(t, 50.0, payload.Location.Uncertainty)
}

func TestPublishOrderedUsesCityKey(t *testing.T) {
	t.Parallel()

	srv, opt := fakeServer(t)
	pub, err := Connect(context.Background(), Config{ProjectID: "flats-project", TopicID: "flats", Ordered: true}, nil, opt)
	require.NoError(t, err)

	require.NoError(t, pub.Publish(context.Background(), []crawler.Property{flat(crawler.Kempten, "wggesucht", "wohnungen.5")}))
	require.NoError(t, pub.Close())

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "flats_Kempten", msgs[0].OrderingKey)
}

func TestConnectRequiresTopic(t *testing.T) {
	t.Parallel()

	_, err := Connect(context.Background(), Config{ProjectID: "flats-project"}, nil)
	require.Error(t, err)
}
