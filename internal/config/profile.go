package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"timesheet-ai/internal/timesheet"
)

// Profile is a saved column mapping and settings for a recurring export,
// stored as TOML:
//
//	[mapping]
//	description = "Popis"
//	time_start = "Od"
//	time_end = "Do"
//
//	[settings]
//	max_chunk_minutes = 30
type Profile struct {
	Mapping  timesheet.Mapping  `toml:"mapping"`
	Settings timesheet.Settings `toml:"settings"`
}

// LoadProfile reads a profile. Settings missing from the file keep the
// values of defaults; unknown keys are rejected.
func LoadProfile(path string, defaults timesheet.Settings) (Profile, error) {
	p := Profile{Settings: defaults}

	path = expandHome(path)
	if _, err := os.Stat(path); err != nil {
		return p, fmt.Errorf("profile %s: %w", path, err)
	}

	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return p, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return p, fmt.Errorf("profile %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	// field names are case-insensitive on the command line as well
	if len(p.Mapping) > 0 {
		normalized := make(timesheet.Mapping, len(p.Mapping))
		for field, column := range p.Mapping {
			normalized[strings.ToLower(strings.TrimSpace(field))] = column
		}
		p.Mapping = normalized
	}

	if err := p.Settings.Validate(); err != nil {
		return p, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
