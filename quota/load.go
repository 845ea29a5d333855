package quota

import (
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables overriding file values
const EnvPrefix = "QLIMIT"

// File is the document read by Load and Parse
type File struct {
	Limiters map[string]Quota `yaml:"limiters"`
}

// Names returns the limiter names in sorted order
func (f *File) Names() []string {
	return slices.Sorted(maps.Keys(f.Limiters))
}

// Lookup returns the quota for the named limiter
func (f *File) Lookup(name string) (Quota, error) {
	q, ok := f.Limiters[name]
	if !ok {
		return Quota{}, NewUnknownLimiterError(name)
	}
	return q, nil
}

// Validate validates every quota in the file
func (f *File) Validate() error {
	for _, name := range f.Names() {
		if err := f.Limiters[name].Validate(); err != nil {
			if ce, ok := err.(*ConfigError); ok {
				ce.Limiter = name
			}
			return err
		}
	}
	return nil
}

// Load reads quotas from a YAML file, applies environment overrides and
// validates the result.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewReadFailedError(path, err)
	}
	return parse(data, path)
}

// Parse reads quotas from YAML data, applies environment overrides and
// validates the result.
//
// Durations use Go syntax ("250ms", "1m"):
//
//	limiters:
//	  api:
//	    concurrency: 4
//	    interval: 1s
//	    rate: 10
//	    max_delay: 250ms
func Parse(data []byte) (*File, error) {
	return parse(data, "<data>")
}

func parse(data []byte, source string) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, NewParseFailedError(source, err)
	}
	if f.Limiters == nil {
		f.Limiters = make(map[string]Quota)
	}

	if err := f.ApplyEnvOverrides(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	return &f, nil
}

// ApplyEnvOverrides overrides quota fields from variables named
// QLIMIT_<LIMITER>_<FIELD>, where LIMITER is the upper-cased limiter name with
// '-' and '.' replaced by '_' and FIELD is one of CONCURRENCY, INTERVAL, RATE
// or MAX_DELAY. Only limiters present in the file are considered.
func (f *File) ApplyEnvOverrides(lookup func(string) (string, bool)) error {
	for _, name := range f.Names() {
		q := f.Limiters[name]
		prefix := EnvPrefix + "_" + envName(name) + "_"

		if val, ok := lookup(prefix + "CONCURRENCY"); ok {
			n, err := strconv.Atoi(val)
			if err != nil {
				return NewEnvOverrideError(prefix+"CONCURRENCY", val, err)
			}
			q.Concurrency = n
		}
		if val, ok := lookup(prefix + "INTERVAL"); ok {
			d, err := time.ParseDuration(val)
			if err != nil {
				return NewEnvOverrideError(prefix+"INTERVAL", val, err)
			}
			q.Interval = d
		}
		if val, ok := lookup(prefix + "RATE"); ok {
			r, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return NewEnvOverrideError(prefix+"RATE", val, err)
			}
			q.Rate = r
		}
		if val, ok := lookup(prefix + "MAX_DELAY"); ok {
			d, err := time.ParseDuration(val)
			if err != nil {
				return NewEnvOverrideError(prefix+"MAX_DELAY", val, err)
			}
			q.MaxDelay = d
		}

		f.Limiters[name] = q
	}
	return nil
}

func envName(name string) string {
	r := strings.NewReplacer("-", "_", ".", "_", ":", "_", "@", "_", "+", "_")
	return strings.ToUpper(r.Replace(name))
}
