package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// LoadFiles reads dotenv files in order. Later files override earlier ones.
// Missing optional files are skipped.
func LoadFiles(paths []string, optional bool) (map[string]string, error) {
	result := make(map[string]string)
	for _, path := range paths {
		if path == "" {
			continue
		}
		vars, err := LoadDotEnv(path)
		if err != nil {
			if optional && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		for k, v := range vars {
			result[k] = v
		}
	}
	return result, nil
}

func MergeVariables(sources ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// LoadSystemEnv returns the OS environment variables starting with prefix,
// with the prefix removed. An empty prefix returns everything.
func LoadSystemEnv(prefix string) map[string]string {
	result := make(map[string]string)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if len(key) > len(prefix) && strings.HasPrefix(key, prefix) {
			result[key[len(prefix):]] = value
		}
	}
	return result
}
