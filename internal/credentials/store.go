package credentials

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Thamike9/MQTT-Sensor/internal/logger"
)

// ErrPartialRecord reports that the file held fewer than five lines. Load
// swallows it and keeps the carry-over behavior; callers that want to
// detect a damaged file use LoadStrict.
var ErrPartialRecord = errors.New("credentials: partial record")

// Store persists a Record as five newline-terminated lines in fixed order:
// broker address, user, password, topic, device id.
type Store struct {
	path   string
	logger logger.Logger
}

func NewStore(path string, log logger.Logger) *Store {
	return &Store{
		path:   path,
		logger: log,
	}
}

// Mount makes sure the directory behind the store exists. On failure it
// clears the path and retries once before giving up.
func (s *Store) Mount() error {
	dir := filepath.Dir(s.path)
	err := os.MkdirAll(dir, 0755)
	if err == nil {
		return nil
	}
	s.logger.Warn("Failed to mount config store, formatting: %v", err)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("format config store: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mount config store: %w", err)
	}
	return nil
}

// Load reads the persisted record into a copy of current. A missing or
// unreadable file leaves current untouched and reports found=false. A file
// with fewer than five lines fills only the fields it has; the rest keep
// the values they arrived with.
func (s *Store) Load(current Record) (Record, bool) {
	rec, found, _ := s.load(current)
	return rec, found
}

// LoadStrict behaves like Load and additionally reports ErrPartialRecord
// when the file held fewer than five lines.
func (s *Store) LoadStrict(current Record) (Record, bool, error) {
	return s.load(current)
}

func (s *Store) load(current Record) (Record, bool, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		s.logger.Info("Config file does not exist. Using default settings.")
		return current, false, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		s.logger.Error("Failed to open config file for reading: %v", err)
		return current, false, nil
	}
	defer f.Close()

	fields := []struct {
		dst *string
		cap int
	}{
		{&current.BrokerAddress, BrokerAddressCapacity},
		{&current.BrokerUser, BrokerUserCapacity},
		{&current.BrokerPassword, BrokerPasswordCapacity},
		{&current.PublishTopic, PublishTopicCapacity},
		{&current.DeviceID, DeviceIDCapacity},
	}

	read := 0
	scanner := bufio.NewScanner(f)
	for _, field := range fields {
		if !scanner.Scan() {
			break
		}
		*field.dst = truncate(scanner.Text(), field.cap)
		read++
	}

	s.logger.Info("Config loaded from %v.", s.path)
	current.Dump(s.logger)

	if read < len(fields) {
		s.logger.Warn("Config file is truncated: %v of %v fields present.", read, len(fields))
		return current, true, ErrPartialRecord
	}
	return current, true, nil
}

// Save writes the record back to the file. It fails only when the file
// cannot be opened for writing.
func (s *Store) Save(rec Record) error {
	f, err := os.Create(s.path)
	if err != nil {
		s.logger.Error("Failed to open config file for writing: %v", err)
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	fmt.Fprintln(f, rec.BrokerAddress)
	fmt.Fprintln(f, rec.BrokerUser)
	fmt.Fprintln(f, rec.BrokerPassword)
	fmt.Fprintln(f, rec.PublishTopic)
	fmt.Fprintln(f, rec.DeviceID)

	s.logger.Info("Config saved to %v.", s.path)
	return nil
}
