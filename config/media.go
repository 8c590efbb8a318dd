package config

import "strings"

// MediaConfig contains hosted media CDN (Cloudinary) configuration.
// Uploads are disabled when the credentials are absent.
type MediaConfig struct {
	CloudName string `env:"CLOUD_NAME"`
	APIKey    string `env:"API_KEY"`
	APISecret string `env:"API_SECRET"`

	// Folder is the remote folder uploads land in.
	Folder string `env:"FOLDER" envDefault:"portfolio"`

	// BaseURL overrides the upload API endpoint; used in tests.
	BaseURL string `env:"BASE_URL" envDefault:""`
}

// Sanitize normalises media configuration values.
func (m *MediaConfig) Sanitize() {
	m.CloudName = strings.TrimSpace(m.CloudName)
	m.APIKey = strings.TrimSpace(m.APIKey)
	m.Folder = strings.TrimSpace(m.Folder)
}

// IsConfigured reports whether uploads can be performed.
func (m *MediaConfig) IsConfigured() bool {
	return m.CloudName != "" && m.APIKey != "" && m.APISecret != ""
}
