package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

func TestPublishUpsertsRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewListingStoreWithPool(mock, "", nil)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	located := crawler.NewProperty("immowelt", crawler.Munich, now).
		WithData(crawler.PropertyData{Price: 1450, SquareMeters: 72, Rooms: 3, Address: "Schwabing", Title: "Altbau", ExternalID: "2abc"}).
		WithLocation(crawler.Location{Latitude: 48.16, Longitude: 11.58, UncertaintyMeters: 420})
	unlocated := crawler.NewProperty("wggesucht", crawler.Munich, now).
		WithData(crawler.PropertyData{Price: 800, Title: "Wohnung auf WG Gesucht", ExternalID: "wohnungen.9"})
	incomplete := crawler.NewProperty("immowelt", crawler.Munich, now)

	locatedPayload, err := json.Marshal(crawler.NewPayload(located))
	require.NoError(t, err)
	unlocatedPayload, err := json.Marshal(crawler.NewPayload(unlocated))
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO listings").
		WithArgs(
			"immowelt-2abc", "immowelt", "Munich", now,
			1450.0, 72.0, 3.0, "Schwabing", "Altbau", "2abc",
			48.16, 11.58, 420.0,
			locatedPayload,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO listings").
		WithArgs(
			"wggesucht-wohnungen.9", "wggesucht", "Munich", now,
			800.0, 0.0, 0.0, "", "Wohnung auf WG Gesucht", "wohnungen.9",
			nil, nil, nil,
			unlocatedPayload,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Publish(context.Background(), []crawler.Property{located, incomplete, unlocated}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishSurfacesExecErrors(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewListingStoreWithPool(mock, "flats", nil)
	require.NoError(t, err)

	boom := errors.New("relation does not exist")
	mock.ExpectExec("INSERT INTO flats").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(),
		).
		WillReturnError(boom)

	record := crawler.NewProperty("immoscout", crawler.Kempten, time.Unix(1, 0)).
		WithData(crawler.PropertyData{ExternalID: "123"})
	err = store.Publish(context.Background(), []crawler.Property{record})
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "immoscout-123")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewListingStoreWithPool(mock, "listings", nil)
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS listings").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewListingStoreValidation(t *testing.T) {
	t.Parallel()

	_, err := NewListingStoreWithPool(nil, "listings", nil)
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	_, err = NewListingStoreWithPool(mock, "listings; DROP TABLE x", nil)
	require.ErrorContains(t, err, "invalid table name")

	_, err = NewListingStore(context.Background(), Config{}, nil)
	require.ErrorContains(t, err, "dsn is required")
}
