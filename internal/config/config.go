package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var policyYAML []byte

type Config struct {
	Detector DetectorConfig
	Policy   PolicyConfig
	Database DatabaseConfig
	Gallery  GalleryConfig
}

type DetectorConfig struct {
	URL     string        // face detection/embedding service, defaults to http://localhost:8000
	Dim     int           // embedding dimensionality, defaults to 512
	Timeout time.Duration // per-call inference timeout
}

// PolicyConfig controls identity matching and enrollment behavior.
// Defaults come from the embedded policy.yaml; environment variables
// override individual values. Threshold and match policy materially
// affect which students are marked present, so they are explicit
// configuration rather than constants.
type PolicyConfig struct {
	MatchThreshold  float64 `yaml:"match_threshold"`   // minimum cosine similarity for a match
	MatchPolicy     string  `yaml:"match_policy"`      // "first" (roster order) or "best" (max similarity)
	EnrollMinPhotos int     `yaml:"enroll_min_photos"` // minimum usable enrollment photos
	ResolutionFloor int     `yaml:"resolution_floor"`  // photos narrower than this are upscaled
	UpscaleFactor   int     `yaml:"upscale_factor"`
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type GalleryConfig struct {
	Dir string // directory for annotated class photos, defaults to ./uploads
}

// Match policy names. "first" resolves to the first roster entry above the
// threshold in traversal order; "best" resolves to the highest similarity.
const (
	MatchPolicyFirst = "first"
	MatchPolicyBest  = "best"
)

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func Load() *Config {
	var policy PolicyConfig
	if err := yaml.Unmarshal(policyYAML, &policy); err != nil {
		// Embedded file, so this should never happen in practice.
		panic("failed to unmarshal embedded policy.yaml: " + err.Error())
	}

	policy.MatchThreshold = envFloat("MATCH_THRESHOLD", policy.MatchThreshold)
	policy.EnrollMinPhotos = envInt("ENROLL_MIN_PHOTOS", policy.EnrollMinPhotos)
	policy.ResolutionFloor = envInt("RESOLUTION_FLOOR", policy.ResolutionFloor)
	policy.UpscaleFactor = envInt("UPSCALE_FACTOR", policy.UpscaleFactor)
	if p := os.Getenv("MATCH_POLICY"); p == MatchPolicyFirst || p == MatchPolicyBest {
		policy.MatchPolicy = p
	}

	galleryDir := os.Getenv("GALLERY_DIR")
	if galleryDir == "" {
		galleryDir = "uploads"
	}

	return &Config{
		Detector: DetectorConfig{
			URL:     os.Getenv("DETECTOR_URL"),
			Dim:     envInt("DETECTOR_DIM", 512),
			Timeout: time.Duration(envInt("DETECTOR_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Policy: policy,
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Gallery: GalleryConfig{
			Dir: galleryDir,
		},
	}
}
