package platform

import (
	"sort"

	"github.com/pkg/errors"
)

// Platform describes an output profile for rendered shorts
type Platform interface {
	// GetName returns the platform name
	GetName() string

	// GetDimensions returns the output frame size
	GetDimensions() (width, height int)

	// GetMaxDuration returns the maximum clip length in seconds
	GetMaxDuration() int

	GetVideoCodec() string
	GetAudioCodec() string
	GetVideoBitrate() string
	GetAudioBitrate() string

	// GetOutputFormat returns the container, e.g. "mp4"
	GetOutputFormat() string
}

var platforms = make(map[string]Platform)

// Register adds a platform to the registry
func Register(p Platform) {
	platforms[p.GetName()] = p
}

// Get returns a platform by name
func Get(name string) (Platform, error) {
	p, ok := platforms[name]
	if !ok {
		return nil, errors.Errorf("unsupported platform: %s", name)
	}
	return p, nil
}

// GetSupportedPlatforms returns the registered platform names, sorted
func GetSupportedPlatforms() []string {
	names := make([]string, 0, len(platforms))
	for name := range platforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
