package profile

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/AnyUserName/pixbatch/internal/encoder"
)

// Bounds of the configuration surface.
const (
	MinTargetSizeKB = 50
	MaxTargetSizeKB = 5000
	MinQuality      = 0.1
	MaxQuality      = 1.0
	QualityStep     = 0.1
)

// TargetSizePresets are the quick-pick target sizes in KiB.
var TargetSizePresets = []int{100, 200, 500, 1000, 2000}

var ErrInvalid = errors.New("invalid profile")

// Profile is the set of operation parameters a batch runs with.
type Profile struct {
	Name         string         `yaml:"name" json:"name"`
	TargetSizeKB int            `yaml:"target_size_kb" json:"target_size_kb"`
	Quality      float64        `yaml:"quality" json:"quality"` // initial quality 0.1-1.0
	Format       encoder.Format `yaml:"format" json:"format"`   // conversion target
	Lossless     bool           `yaml:"lossless" json:"lossless,omitempty"`
	Width        int            `yaml:"width" json:"width,omitempty"`
	Height       int            `yaml:"height" json:"height,omitempty"`
	LockAspect   bool           `yaml:"lock_aspect" json:"lock_aspect"`
}

// profilesMu guards profiles, which config files extend at startup.
var profilesMu sync.RWMutex

// Built-in profiles.
var profiles = map[string]Profile{
	"default": {
		Name:         "default",
		TargetSizeKB: 500,
		Quality:      0.8,
		Format:       encoder.FormatPNG,
		LockAspect:   true,
	},
	"web": {
		Name:         "web",
		TargetSizeKB: 200,
		Quality:      0.8,
		Format:       encoder.FormatWebP,
		Width:        1920,
		Height:       1080,
		LockAspect:   true,
	},
	"thumbnail": {
		Name:         "thumbnail",
		TargetSizeKB: 100,
		Quality:      0.7,
		Format:       encoder.FormatJPEG,
		Width:        320,
		Height:       320,
		LockAspect:   true,
	},
	"archive": {
		Name:         "archive",
		TargetSizeKB: 2000,
		Quality:      1.0,
		Format:       encoder.FormatWebP,
		Lossless:     true,
		LockAspect:   true,
	},
}

// Get returns a profile by name. Falls back to default if unknown.
func Get(name string) Profile {
	profilesMu.RLock()
	defer profilesMu.RUnlock()
	if p, ok := profiles[name]; ok {
		return p
	}
	p := profiles["default"]
	p.Name = name // preserve requested name
	return p
}

// Register adds or replaces a named profile, e.g. from a config file.
func Register(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	profilesMu.Lock()
	profiles[p.Name] = p
	profilesMu.Unlock()
	return nil
}

// Names returns the registered profile names, sorted.
func Names() []string {
	profilesMu.RLock()
	defer profilesMu.RUnlock()
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks every field against the configuration surface bounds.
// Width/Height of zero mean "not configured".
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalid)
	}
	if p.TargetSizeKB < MinTargetSizeKB || p.TargetSizeKB > MaxTargetSizeKB {
		return fmt.Errorf("%w: target size %d KB outside %d-%d",
			ErrInvalid, p.TargetSizeKB, MinTargetSizeKB, MaxTargetSizeKB)
	}
	if p.Quality < MinQuality-1e-9 || p.Quality > MaxQuality+1e-9 {
		return fmt.Errorf("%w: quality %.2f outside %.1f-%.1f",
			ErrInvalid, p.Quality, MinQuality, MaxQuality)
	}
	if !onStep(p.Quality) {
		return fmt.Errorf("%w: quality %.2f is not a multiple of %.1f", ErrInvalid, p.Quality, QualityStep)
	}
	if _, err := encoder.ParseFormat(string(p.Format)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if p.Width < 0 || p.Height < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrInvalid, p.Width, p.Height)
	}
	return nil
}

func onStep(q float64) bool {
	steps := q / QualityStep
	return math.Abs(steps-math.Round(steps)) < 1e-6
}

// SizeKB converts bytes to KiB, rounding half up. Every size shown to the
// user goes through this one function.
func SizeKB(bytes int64) int64 {
	return int64(math.Round(float64(bytes) / 1024))
}

// RatioPercent is round((1 - out/in) * 100); zero when in is zero.
func RatioPercent(in, out int64) int {
	if in <= 0 {
		return 0
	}
	return int(math.Round((1 - float64(out)/float64(in)) * 100))
}
