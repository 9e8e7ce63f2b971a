// Package local_test tests the local filesystem listing store.
package local_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
	"github.com/JakeFAU/flat-crawler/internal/storage/local"
)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		store, err := local.New(local.Config{BaseDir: t.TempDir()}, nil)
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("CreatesMissingDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "flats")
		_, err := local.New(local.Config{BaseDir: dir}, nil)
		require.NoError(t, err)
		assert.DirExists(t, dir)
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{}, nil)
		assert.Error(t, err)
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

		_, err := local.New(local.Config{BaseDir: file}, nil)
		assert.Error(t, err)
	})

	t.Run("BaseDirNotWritable", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores directory permissions")
		}
		tempDir := t.TempDir()
		// #nosec G302 -- directory permissions adjusted intentionally for test coverage.
		require.NoError(t, os.Chmod(tempDir, 0o500))
		t.Cleanup(func() {
			// #nosec G302 -- reverting permissions to allow cleanup in the test environment.
			_ = os.Chmod(tempDir, 0o700)
		})

		_, err := local.New(local.Config{BaseDir: tempDir}, nil)
		assert.Error(t, err)
	})
}

func TestPublish(t *testing.T) {
	tempDir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: tempDir}, nil)
	require.NoError(t, err)

	captured := time.Unix(1700000000, 0)

	t.Run("WritesPayloadPerRecord", func(t *testing.T) {
		record := crawler.NewProperty("immowelt", crawler.Augsburg, captured).
			WithData(crawler.PropertyData{Price: 980, Title: "Altbau", ExternalID: "2ab"})
		require.NoError(t, store.Publish(context.Background(), []crawler.Property{record}))

		// #nosec G304 -- test reads from the controlled temp directory.
		raw, err := os.ReadFile(filepath.Join(tempDir, "Augsburg", "immowelt-2ab.json"))
		require.NoError(t, err)
		var payload crawler.Payload
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Equal(t, "2ab", payload.Data.ExternalID)
		assert.Equal(t, int64(1700000000), payload.Date)
	})

	t.Run("SkipsIncompleteRecords", func(t *testing.T) {
		record := crawler.NewProperty("immowelt", crawler.Lindenberg, captured)
		require.NoError(t, store.Publish(context.Background(), []crawler.Property{record}))
		assert.NoDirExists(t, filepath.Join(tempDir, "Lindenberg"))
	})

	t.Run("SeparatorsInIdsStayInCityDir", func(t *testing.T) {
		record := crawler.NewProperty("wggesucht", crawler.Munich, captured).
			WithData(crawler.PropertyData{ExternalID: "../../etc/passwd"})
		path, err := store.Path(record)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tempDir, "Munich", "wggesucht-.._.._etc_passwd.json"), path)
	})

	t.Run("TraversingCityIsRejected", func(t *testing.T) {
		record := crawler.NewProperty("wggesucht", crawler.City(".."), captured).
			WithData(crawler.PropertyData{ExternalID: "1"})
		_, err := store.Path(record)
		assert.ErrorContains(t, err, "path traversal")
	})
}
