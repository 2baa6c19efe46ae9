package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SecretProvider resolves secret references to their plaintext values.
// Keys that cannot be found are omitted from the result.
type SecretProvider interface {
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}

// EnvVarProvider resolves each reference as the name of another environment
// variable.
type EnvVarProvider struct{}

func NewEnvVarProvider() *EnvVarProvider {
	return &EnvVarProvider{}
}

func (p *EnvVarProvider) GetParametersBatch(_ context.Context, keys []string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := os.LookupEnv(key); ok {
			result[key] = val
		}
	}
	return result, nil
}

// FileProvider resolves each reference as a file name under Dir, the layout
// of Docker and Kubernetes mounted secrets. Surrounding whitespace is
// trimmed.
type FileProvider struct {
	Dir string
}

// NewFileProvider creates a provider reading from dir, "/run/secrets" when
// empty.
func NewFileProvider(dir string) *FileProvider {
	if dir == "" {
		dir = "/run/secrets"
	}
	return &FileProvider{Dir: dir}
}

func (p *FileProvider) GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// References are file names; anything escaping Dir is rejected.
		if !filepath.IsLocal(key) {
			return nil, fmt.Errorf("secret reference %q is not a local file name", key)
		}
		raw, err := os.ReadFile(filepath.Join(p.Dir, key))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading secret %q: %w", key, err)
		}
		result[key] = strings.TrimSpace(string(raw))
	}
	return result, nil
}
