package credentials

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Thamike9/MQTT-Sensor/internal/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "config.txt"), testLogger())
}

func testLogger() logger.Logger {
	return logger.New("[test]", logger.LogLevelDebug, io.Discard)
}

func TestLoadMissingFileKeepsCurrent(t *testing.T) {
	store := newTestStore(t)

	rec, found := store.Load(Defaults())

	assert.False(t, found)
	assert.Equal(t, Defaults(), rec)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	saved := Record{
		BrokerAddress:  "broker.lan",
		BrokerUser:     "alice",
		BrokerPassword: "hunter2",
		PublishTopic:   "home/livingroom/aht20",
		DeviceID:       "node-07",
	}
	err := store.Save(saved)
	assert.NoError(t, err)

	rec, found := store.Load(Defaults())
	assert.True(t, found)
	assert.Equal(t, saved, rec)
}

func TestSaveWritesFiveLinesInOrder(t *testing.T) {
	store := newTestStore(t)

	err := store.Save(Record{
		BrokerAddress:  "broker.lan",
		BrokerUser:     "alice",
		BrokerPassword: "hunter2",
		PublishTopic:   "home/aht20",
		DeviceID:       "node-07",
	})
	assert.NoError(t, err)

	data, err := os.ReadFile(store.path)
	assert.NoError(t, err)
	assert.Equal(t, "broker.lan\nalice\nhunter2\nhome/aht20\nnode-07\n", string(data))
}

func TestRoundTripAtExactCapacity(t *testing.T) {
	store := newTestStore(t)

	saved := Record{
		BrokerAddress:  strings.Repeat("s", BrokerAddressCapacity),
		BrokerUser:     strings.Repeat("u", BrokerUserCapacity),
		BrokerPassword: strings.Repeat("p", BrokerPasswordCapacity),
		PublishTopic:   strings.Repeat("t", PublishTopicCapacity),
		DeviceID:       strings.Repeat("d", DeviceIDCapacity),
	}
	err := store.Save(saved)
	assert.NoError(t, err)

	rec, found := store.Load(Record{})
	assert.True(t, found)
	assert.Equal(t, saved, rec)
}

func TestLoadTruncatesOverlongFields(t *testing.T) {
	store := newTestStore(t)

	err := store.Save(Record{
		BrokerAddress:  strings.Repeat("s", BrokerAddressCapacity+1),
		BrokerUser:     strings.Repeat("u", BrokerUserCapacity+1),
		BrokerPassword: strings.Repeat("p", BrokerPasswordCapacity+1),
		PublishTopic:   strings.Repeat("t", PublishTopicCapacity+1),
		DeviceID:       strings.Repeat("d", DeviceIDCapacity+1),
	})
	assert.NoError(t, err)

	rec, found := store.Load(Record{})
	assert.True(t, found)
	assert.Equal(t, strings.Repeat("s", BrokerAddressCapacity), rec.BrokerAddress)
	assert.Equal(t, strings.Repeat("u", BrokerUserCapacity), rec.BrokerUser)
	assert.Equal(t, strings.Repeat("p", BrokerPasswordCapacity), rec.BrokerPassword)
	assert.Equal(t, strings.Repeat("t", PublishTopicCapacity), rec.PublishTopic)
	assert.Equal(t, strings.Repeat("d", DeviceIDCapacity), rec.DeviceID)
}

func TestLoadShortFileCarriesOverRemainingFields(t *testing.T) {
	store := newTestStore(t)

	err := os.WriteFile(store.path, []byte("broker.lan\nalice\n"), 0644)
	assert.NoError(t, err)

	current := Record{
		BrokerAddress:  "old.broker",
		BrokerUser:     "old-user",
		BrokerPassword: "old-pass",
		PublishTopic:   "old/topic",
		DeviceID:       "old-id",
	}
	rec, found := store.Load(current)

	assert.True(t, found)
	assert.Equal(t, "broker.lan", rec.BrokerAddress)
	assert.Equal(t, "alice", rec.BrokerUser)
	assert.Equal(t, "old-pass", rec.BrokerPassword)
	assert.Equal(t, "old/topic", rec.PublishTopic)
	assert.Equal(t, "old-id", rec.DeviceID)
}

func TestLoadStrictReportsPartialRecord(t *testing.T) {
	store := newTestStore(t)

	err := os.WriteFile(store.path, []byte("broker.lan\nalice\n"), 0644)
	assert.NoError(t, err)

	rec, found, err := store.LoadStrict(Defaults())
	assert.True(t, found)
	assert.ErrorIs(t, err, ErrPartialRecord)
	assert.Equal(t, "broker.lan", rec.BrokerAddress)
	assert.Equal(t, Defaults().BrokerPassword, rec.BrokerPassword)
}

func TestLoadStrictFullFileNoError(t *testing.T) {
	store := newTestStore(t)

	err := store.Save(Defaults())
	assert.NoError(t, err)

	_, found, err := store.LoadStrict(Record{})
	assert.True(t, found)
	assert.NoError(t, err)
}

func TestLoadEmptyLineAssignsEmptyField(t *testing.T) {
	store := newTestStore(t)

	err := os.WriteFile(store.path, []byte("broker.lan\n\nhunter2\nhome/aht20\nnode-07\n"), 0644)
	assert.NoError(t, err)

	rec, found := store.Load(Defaults())
	assert.True(t, found)
	assert.Equal(t, "", rec.BrokerUser)
	assert.Equal(t, "hunter2", rec.BrokerPassword)
}

func TestSaveFailsWhenDirectoryMissing(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing", "config.txt"), testLogger())

	err := store.Save(Defaults())
	assert.Error(t, err)
}

func TestMountCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	store := NewStore(filepath.Join(dir, "config.txt"), testLogger())

	err := store.Mount()
	assert.NoError(t, err)

	info, err := os.Stat(dir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestMountReformatsObstructedPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	err := os.WriteFile(dir, []byte("not a directory"), 0644)
	assert.NoError(t, err)

	store := NewStore(filepath.Join(dir, "config.txt"), testLogger())
	err = store.Mount()
	assert.NoError(t, err)

	info, err := os.Stat(dir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())
}
