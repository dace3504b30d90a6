package regression

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/coinsight/coinsight-go/internal/utils"
)

// Store owns the process-wide regression model: loaded lazily exactly once
// from the artifact path, read-only afterwards. Any load failure, including
// a corrupted artifact, surfaces as ModelUnavailableError on every Get.
type Store struct {
	path   string
	logger *logrus.Logger

	once  sync.Once
	model *Model
	err   error
}

func NewStore(path string, logger *logrus.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Get returns the loaded model, loading it on first use.
func (s *Store) Get() (*Model, error) {
	s.once.Do(func() {
		s.model, s.err = Load(s.path)
		if s.err != nil {
			s.logger.WithError(s.err).Warn("Regression model not available")
			return
		}
		s.logger.WithFields(logrus.Fields{
			"path":       s.path,
			"features":   len(s.model.FeatureColumns),
			"trained_at": s.model.TrainedAt,
		}).Info("Loaded regression model")
	})
	return s.model, s.err
}

// Load reads and validates a model artifact.
func Load(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.NewModelUnavailableError(path, err)
	}

	var model Model
	if err := json.Unmarshal(raw, &model); err != nil {
		return nil, utils.NewModelUnavailableError(path, err)
	}
	if err := model.validate(); err != nil {
		return nil, utils.NewModelUnavailableError(path, err)
	}
	return &model, nil
}

// Save writes the model artifact atomically (temp file + rename) so a
// crashed writer never leaves a truncated artifact behind.
func Save(path string, model *Model) error {
	if err := model.validate(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "model-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// validate checks the artifact parts are present and mutually consistent.
func (m *Model) validate() error {
	k := len(m.FeatureColumns)
	if k == 0 {
		return errors.New("artifact has no feature columns")
	}
	if len(m.Coefficients) != k || len(m.Means) != k || len(m.Stds) != k {
		return errors.New("artifact scaler/coefficient lengths do not match feature columns")
	}
	return nil
}
