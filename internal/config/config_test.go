package config_test

import (
	"io"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Kuraiyume/Akari/internal/config"
)

type ConfigTestSuite struct {
	suite.Suite
}

type mockFS struct {
	files map[string]string
}

func (m mockFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m.files[path]; !ok {
		return nil, os.ErrNotExist
	}
	return nil, nil
}

func (m mockFS) Open(path string) (*os.File, error) {
	content, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	tmp, err := os.CreateTemp("", "mock-*") // caller cleans up in t.Cleanup
	if err != nil {
		return nil, err
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return nil, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, err
	}
	return tmp, nil
}

func (s *ConfigTestSuite) load(content string) (*config.Config, error) {
	const path = "/etc/akari/config.yaml"
	provider := config.NewWithFS(mockFS{files: map[string]string{path: content}}, path)
	return provider.Load()
}

func (s *ConfigTestSuite) TestLoadFullConfig() {
	cfg, err := s.load(`
domains: example.com, example.org
record_types: a,mx , txt
timeout: 2.5
nameserver: 8.8.8.8
ipinfo_token: sekrit
threads: 4
qps: 50
`)
	s.Require().NoError(err)

	s.Equal([]string{"example.com", "example.org"}, cfg.DomainList())
	s.Equal([]string{"A", "MX", "TXT"}, cfg.TypeList())
	s.Equal(2500*time.Millisecond, cfg.TimeoutDuration())
	s.Equal("8.8.8.8", cfg.Nameserver)
	s.Equal("sekrit", cfg.IPInfoToken)
	s.Equal(4, cfg.Workers)
	s.Equal(50, cfg.QPS)
}

func (s *ConfigTestSuite) TestLoadAppliesDefaults() {
	cfg, err := s.load(`domains: example.com`)
	s.Require().NoError(err)

	s.Equal(config.DefaultTimeout, cfg.Timeout)
	s.Equal(config.DefaultWorkers, cfg.Workers)
	s.Empty(cfg.TypeList(), "empty type list means the default set")
}

func (s *ConfigTestSuite) TestLoadMissingFile() {
	provider := config.NewWithFS(mockFS{}, "/nope/config.yaml")
	_, err := provider.Load()
	s.ErrorIs(err, config.ErrNoConfig)
}

func (s *ConfigTestSuite) TestLoadMalformedYAML() {
	_, err := s.load("domains: [unclosed")
	s.Error(err)
	s.NotErrorIs(err, config.ErrNoConfig)
}

func (s *ConfigTestSuite) TestValidation() {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no domains",
			content: `timeout: 5`,
			wantErr: "domains cannot be empty",
		},
		{
			name: "negative timeout",
			content: `
domains: example.com
timeout: -1
`,
			wantErr: "timeout must be positive",
		},
		{
			name: "negative threads",
			content: `
domains: example.com
threads: -2
`,
			wantErr: "threads must be at least 1",
		},
		{
			name: "negative qps",
			content: `
domains: example.com
qps: -1
`,
			wantErr: "qps cannot be negative",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.load(tc.content)
			s.Require().Error(err)
			s.ErrorIs(err, config.ErrInvalidConfig)
			s.ErrorContains(err, tc.wantErr)
		})
	}
}

func (s *ConfigTestSuite) TestDefault() {
	cfg := config.Default()
	s.Equal(config.DefaultTimeout, cfg.Timeout)
	s.Equal(config.DefaultWorkers, cfg.Workers)
	s.Equal(5*time.Second, cfg.TimeoutDuration())
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}
