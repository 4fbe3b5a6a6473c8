package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalidLanguageSettings is returned when a language settings document is inconsistent.
var ErrInvalidLanguageSettings = errors.New("invalid language settings")

// Supported language settings formats.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// LanguageSetting is one language the installation serves content in.
type LanguageSetting struct {
	Code string `toml:"code" yaml:"code"`
	Name string `toml:"name" yaml:"name"`
}

// SiteLanguage configures a language for one site, including where to look
// when content is missing in it.
type SiteLanguage struct {
	Code      string   `toml:"code"      yaml:"code"`
	Name      string   `toml:"name"      yaml:"name"`
	Fallbacks []string `toml:"fallbacks" yaml:"fallbacks"`
}

// LanguageSettings groups the configured languages and the per site fallback chains.
// Sites are keyed by the decimal site id.
type LanguageSettings struct {
	Default          string                    `toml:"default"           yaml:"default"`
	Languages        []LanguageSetting         `toml:"languages"         yaml:"languages"`
	Sites            map[string][]SiteLanguage `toml:"sites"             yaml:"sites"`
	DefaultFallbacks []string                  `toml:"default_fallbacks" yaml:"default_fallbacks"`
}

// SiteKey formats a site id the way Sites is keyed.
func SiteKey(site int) string {
	return strconv.Itoa(site)
}

// DefaultLanguageSettings is used when no settings file is configured.
func DefaultLanguageSettings(code string) *LanguageSettings {
	if code == "" {
		code = "en"
	}

	return &LanguageSettings{
		Default:   code,
		Languages: []LanguageSetting{{Code: code, Name: strings.ToUpper(code)}},
	}
}

// LoadLanguageSettings reads a TOML or YAML settings file, picking the format from its extension.
func LoadLanguageSettings(path string) (*LanguageSettings, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read language settings %s: %w", path, err)
	}

	var format string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		format = FormatTOML
	case ".yaml", ".yml":
		format = FormatYAML
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrInvalidLanguageSettings, filepath.Ext(path))
	}

	return ParseLanguageSettings(content, format)
}

// ParseLanguageSettings decodes and validates a settings document.
func ParseLanguageSettings(content []byte, format string) (*LanguageSettings, error) {
	settings := &LanguageSettings{}

	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(bytes.NewReader(content)).Decode(settings); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidLanguageSettings, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(content, settings); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidLanguageSettings, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidLanguageSettings, format)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// Validate checks that languages are unique and the default is one of them.
// An empty default is set to the first language.
func (s *LanguageSettings) Validate() error {
	if len(s.Languages) == 0 {
		return fmt.Errorf("%w: no languages configured", ErrInvalidLanguageSettings)
	}

	seen := map[string]bool{}
	for _, lang := range s.Languages {
		if lang.Code == "" {
			return fmt.Errorf("%w: language without code", ErrInvalidLanguageSettings)
		}
		if seen[lang.Code] {
			return fmt.Errorf("%w: duplicate language %q", ErrInvalidLanguageSettings, lang.Code)
		}
		seen[lang.Code] = true
	}

	if s.Default == "" {
		s.Default = s.Languages[0].Code
	}
	if !seen[s.Default] {
		return fmt.Errorf("%w: default language %q is not configured", ErrInvalidLanguageSettings, s.Default)
	}

	for key, siteLanguages := range s.Sites {
		if _, err := strconv.Atoi(key); err != nil {
			return fmt.Errorf("%w: site key %q is not numeric", ErrInvalidLanguageSettings, key)
		}
		for _, lang := range siteLanguages {
			if lang.Code == "" {
				return fmt.Errorf("%w: site %s has a language without code", ErrInvalidLanguageSettings, key)
			}
		}
	}

	return nil
}
