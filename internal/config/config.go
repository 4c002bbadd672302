package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Extraction providers.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderFixture   = "fixture"
)

// PDF engines.
const (
	PDFEngineFPDF     = "fpdf"
	PDFEngineChromium = "chromium"
)

// Config holds application configuration.
type Config struct {
	// Provider selects the extraction backend: "gemini", "anthropic" or "fixture".
	Provider string `json:"provider"`

	// Model overrides the provider's default model name.
	Model string `json:"model,omitempty"`

	// APIKey for the extraction provider. Usually left empty and taken from the
	// environment (GEMINI_API_KEY / API_KEY / ANTHROPIC_API_KEY), which .env files may populate.
	APIKey string `json:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint (proxies, tests).
	BaseURL string `json:"base_url,omitempty"`

	// FixturePath is the cards JSON file served by the "fixture" provider.
	FixturePath string `json:"fixture_path,omitempty"`

	// RetryMaxAttempts caps extraction attempts on rate-limit failures.
	RetryMaxAttempts int `json:"retry_max_attempts"`

	// RetryBaseDelayMS is the first backoff delay; each further retry doubles it.
	RetryBaseDelayMS int `json:"retry_base_delay_ms"`

	// BoardSize is the canonical pixel size of cached board artifacts.
	BoardSize int `json:"board_size"`

	// BoardFont is an optional TTF/OTF path used to rasterize piece glyphs.
	// Fonts without chess symbols fall back to piece letters.
	BoardFont string `json:"board_font,omitempty"`

	// PDFEngine selects the PDF target: "fpdf" draws the document directly,
	// "chromium" prints the HTML print view with headless Chromium.
	PDFEngine string `json:"pdf_engine"`

	// ChromePath points at the Chromium binary for the chromium engine.
	ChromePath string `json:"chrome_path,omitempty"`

	// AllowedOrigins lists origins permitted to call the web API cross-origin.
	AllowedOrigins []string `json:"allowed_origins,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// Known types: "board", "cards", "session". Unknown type names are logged as warnings.
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:         ProviderGemini,
		RetryMaxAttempts: 3,
		RetryBaseDelayMS: 3000,
		BoardSize:        600,
		PDFEngine:        PDFEngineFPDF,
	}
}

// RetryBaseDelay returns RetryBaseDelayMS as a duration.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMS) * time.Millisecond
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.chessgenie.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.chessgenie) and repo (.chessgenie) directories.
// Repo config is found by walking upward from startDir to find the nearest .chessgenie/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .chessgenie/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".chessgenie", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadEnv loads KEY=VALUE pairs from any .env files found in dirs.
// Variables already present in the environment are never overwritten.
func LoadEnv(dirs ...string) error {
	files := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			files = append(files, path)
		}
	}
	if len(files) == 0 {
		return nil
	}
	return godotenv.Load(files...)
}

// ApplyEnv fills settings that are conventionally supplied through the environment.
func ApplyEnv(cfg *Config) *Config {
	if p := strings.TrimSpace(os.Getenv("CHESSGENIE_PROVIDER")); p != "" {
		cfg.Provider = p
	}
	if cfg.APIKey == "" {
		switch cfg.Provider {
		case ProviderAnthropic:
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		default:
			cfg.APIKey = firstEnv("GEMINI_API_KEY", "API_KEY")
		}
	}
	if cfg.ChromePath == "" {
		cfg.ChromePath = os.Getenv("CHROME_BIN")
	}
	return cfg
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.Provider = pickString(overlay.Provider, base.Provider)
	result.Model = pickString(overlay.Model, base.Model)
	result.APIKey = pickString(overlay.APIKey, base.APIKey)
	result.BaseURL = pickString(overlay.BaseURL, base.BaseURL)
	result.FixturePath = pickString(overlay.FixturePath, base.FixturePath)
	result.BoardFont = pickString(overlay.BoardFont, base.BoardFont)
	result.PDFEngine = pickString(overlay.PDFEngine, base.PDFEngine)
	result.ChromePath = pickString(overlay.ChromePath, base.ChromePath)

	result.RetryMaxAttempts = overlay.RetryMaxAttempts
	if result.RetryMaxAttempts == 0 {
		result.RetryMaxAttempts = base.RetryMaxAttempts
	}

	result.RetryBaseDelayMS = overlay.RetryBaseDelayMS
	if result.RetryBaseDelayMS == 0 {
		result.RetryBaseDelayMS = base.RetryBaseDelayMS
	}

	result.BoardSize = overlay.BoardSize
	if result.BoardSize == 0 {
		result.BoardSize = base.BoardSize
	}

	// Arrays: merge and deduplicate
	result.AllowedOrigins = mergeStringSlice(base.AllowedOrigins, overlay.AllowedOrigins)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func pickString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
