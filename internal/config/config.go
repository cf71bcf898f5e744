package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/studio1767/s3sync/internal/engine"
	"github.com/studio1767/s3sync/internal/filter"
)

type ErrBadConfig struct {
	msg string
}

func (e *ErrBadConfig) Error() string {
	return e.msg
}

// Settings is the on-disk configuration. BandwidthLimitKBs is
// advisory only: it is carried for hosts that want it but nothing in
// the engine enforces it.
type Settings struct {
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`

	SyncIntervalMinutes uint `yaml:"sync_interval_minutes"`
	DeleteEnabled       bool `yaml:"delete_enabled"`
	BandwidthLimitKBs   uint `yaml:"bandwidth_limit_kbs"`

	ExcludePatterns   []string `yaml:"exclude_patterns"`
	IncludePatterns   []string `yaml:"include_patterns"`
	IncludeExtensions []string `yaml:"include_extensions"`
	ExcludeExtensions []string `yaml:"exclude_extensions"`
	MinSizeBytes      int64    `yaml:"min_size_bytes"`
	MaxSizeBytes      int64    `yaml:"max_size_bytes"`

	TransferRetries  uint `yaml:"transfer_retries"`
	RetryWaitSeconds uint `yaml:"retry_wait_seconds"`

	Encryption struct {
		RecipientsFile string `yaml:"recipients_file"`
		IdentitiesFile string `yaml:"identities_file"`
	} `yaml:"encryption"`

	Folders []FolderConfig `yaml:"folders"`
}

// FolderConfig is one tracked folder.
type FolderConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
}

func Default() *Settings {
	s := Settings{
		Region:           "us-east-1",
		Profile:          "default",
		MinSizeBytes:     -1,
		MaxSizeBytes:     -1,
		TransferRetries:  2,
		RetryWaitSeconds: 2,
	}
	return &s
}

// Load reads the settings file, creating it with defaults on first
// run.
func Load(path string) (*Settings, error) {

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			settings := Default()
			if err := settings.Save(path); err != nil {
				return nil, err
			}
			return settings, nil
		}
		return nil, err
	}

	settings := Default()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	if err := settings.validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes the settings file, creating parent directories as
// needed.
func (s *Settings) Save(path string) error {

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func (s *Settings) validate() error {
	for idx, folder := range s.Folders {
		if folder.Path == "" {
			return &ErrBadConfig{msg: fmt.Sprintf("folder %d: missing path", idx)}
		}
		if folder.Bucket == "" {
			return &ErrBadConfig{msg: fmt.Sprintf("folder %d: missing bucket", idx)}
		}
	}
	if s.MaxSizeBytes >= 0 && s.MinSizeBytes > s.MaxSizeBytes {
		return &ErrBadConfig{msg: "min_size_bytes is larger than max_size_bytes"}
	}
	return nil
}

// BuildFilter assembles the file filter from the configured patterns,
// extensions and size bounds.
func (s *Settings) BuildFilter() (*filter.Filter, error) {

	f := filter.New()

	if len(s.IncludePatterns) > 0 {
		if err := f.ParsePatterns(strings.Join(s.IncludePatterns, "\n")); err != nil {
			return nil, err
		}
	}
	if len(s.ExcludePatterns) > 0 {
		lines := make([]string, 0, len(s.ExcludePatterns))
		for _, pattern := range s.ExcludePatterns {
			if !strings.HasPrefix(pattern, "!") {
				pattern = "!" + pattern
			}
			lines = append(lines, pattern)
		}
		if err := f.ParsePatterns(strings.Join(lines, "\n")); err != nil {
			return nil, err
		}
	}

	var exts []string
	exts = append(exts, s.IncludeExtensions...)
	for _, ext := range s.ExcludeExtensions {
		if !strings.HasPrefix(ext, "!") {
			ext = "!" + ext
		}
		exts = append(exts, ext)
	}
	if len(exts) > 0 {
		if err := f.ParseExtensions(strings.Join(exts, ",")); err != nil {
			return nil, err
		}
	}

	if s.MinSizeBytes >= 0 {
		f.SetMinSize(s.MinSizeBytes)
	}
	if s.MaxSizeBytes >= 0 {
		f.SetMaxSize(s.MaxSizeBytes)
	}

	return f, nil
}

// SyncInterval is the scheduler interval; zero means manual only.
func (s *Settings) SyncInterval() time.Duration {
	return time.Duration(s.SyncIntervalMinutes) * time.Minute
}

// RetryWait is the pause between transfer attempts.
func (s *Settings) RetryWait() time.Duration {
	return time.Duration(s.RetryWaitSeconds) * time.Second
}

// ToFolders converts the folder configs into engine folders, all in
// the Pending state.
func (s *Settings) ToFolders() []engine.Folder {
	folders := make([]engine.Folder, 0, len(s.Folders))
	for _, fc := range s.Folders {
		folders = append(folders, engine.Folder{
			Path:    fc.Path,
			Enabled: fc.Enabled,
			Bucket:  fc.Bucket,
			Prefix:  fc.Prefix,
			Status:  engine.Pending,
		})
	}
	return folders
}
