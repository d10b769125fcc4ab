package credstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fieldtrace/evidence-cli/internal/metrics"
	"github.com/sirupsen/logrus"
)

// FileStore persists credentials as a single JSON document on disk,
// readable only by the owning user.
type FileStore struct {
	path   string
	logger *logrus.Logger
}

// NewFileStore creates a file-backed credential store at path.
func NewFileStore(path string, logger *logrus.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) Save(_ context.Context, creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		metrics.RecordCredStoreOperation("file", "save", "failure")
		return err
	}

	doc := map[string]string{KeyAuthToken: creds.Token}
	if creds.SessionID != "" {
		doc[KeySessionID] = creds.SessionID
	}
	if creds.Profile != nil {
		profileJSON, err := json.Marshal(creds.Profile)
		if err != nil {
			metrics.RecordCredStoreOperation("file", "save", "failure")
			return err
		}
		doc[KeyUserData] = string(profileJSON)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		metrics.RecordCredStoreOperation("file", "save", "failure")
		return err
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		metrics.RecordCredStoreOperation("file", "save", "failure")
		return err
	}

	metrics.RecordCredStoreOperation("file", "save", "success")
	return nil
}

func (s *FileStore) Load(_ context.Context) Credentials {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).Warn("Failed to read credential file, treating as signed out")
			metrics.RecordCredStoreOperation("file", "load", "failure")
		}
		return Credentials{}
	}

	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.WithError(err).Warn("Corrupt credential file, treating as signed out")
		metrics.RecordCredStoreOperation("file", "load", "failure")
		return Credentials{}
	}

	creds := Credentials{
		Token:     doc[KeyAuthToken],
		SessionID: doc[KeySessionID],
	}
	if raw, ok := doc[KeyUserData]; ok && raw != "" {
		var profile Profile
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			s.logger.WithError(err).Warn("Corrupt stored profile, ignoring")
		} else {
			creds.Profile = &profile
		}
	}

	metrics.RecordCredStoreOperation("file", "load", "success")
	return creds
}

func (s *FileStore) Clear(_ context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		metrics.RecordCredStoreOperation("file", "clear", "failure")
		return err
	}
	metrics.RecordCredStoreOperation("file", "clear", "success")
	return nil
}
