package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/goccy/go-yaml"
	"github.com/lattesec/log"
	"github.com/lattesec/luatrace/internal/helpers/mirror"
)

func MustFn[T any](fn func(T) error, err error) func(T) error {
	if err != nil {
		panic(err)
	}
	return fn
}

// WithDefaults fills every zero field of the config from def. Register it
// first: it never overrides a value that is already set.
func WithDefaults[T Configurable](def T) func(T) error {
	return func(cfg T) error {
		if err := mergo.Merge(cfg, def); err != nil {
			return fmt.Errorf("failed to apply defaults: %w", err)
		}
		return nil
	}
}

// FromYAML merges pth.yml then pth.yaml into the config, skipping files
// that do not exist.
func FromYAML[T Configurable](pth string) (func(T) error, error) {
	pth = filepath.Clean(pth)
	if pth == "." {
		return nil, ErrInvalidConfigFilename
	}

	if ext := filepath.Ext(pth); ext != "" {
		if ext == ".yaml" || ext == ".yml" {
			pth = strings.TrimSuffix(pth, ext)
		} else {
			log.Warn().
				WithMeta("scope", "env").
				WithMeta("path", pth).
				Msg("invalid config extension").Send()
			return nil, ErrInvalidConfigFilename
		}
	}

	return func(cfg T) error {
		if err := mirror.IsStructPointer(cfg); err != nil {
			return err
		}

		for _, ext := range [2]string{".yml", ".yaml"} {
			cfgPath := pth + ext

			data, err := os.ReadFile(cfgPath)
			if err != nil {
				if os.IsNotExist(err) {
					log.Debug().
						WithMeta("scope", "env").
						WithMeta("path", cfgPath).
						Msg("not found").Send()
					continue
				}

				log.Error().
					WithMeta("scope", "env").
					WithMeta("path", cfgPath).
					Msgf("failed to read config file: %v", err).Send()
				return err
			}

			// decode over cfg: keys the file sets win, even zero values,
			// and keys it omits keep what earlier sources put there
			if err := yaml.Unmarshal(data, cfg); err != nil {
				log.Warn().
					WithMeta("scope", "env").
					WithMeta("path", cfgPath).
					Msgf("failed to parse: %v", err).Send()
				return fmt.Errorf("failed to parse config from %s: %w", cfgPath, err)
			}

			log.Info().
				WithMeta("scope", "env").
				WithMeta("path", cfgPath).
				Msgf("loaded config from %s", cfgPath).Send()
		}
		return nil
	}, nil
}

// FromYAMLConfigs merges filename from every config directory, lowest
// priority first.
func FromYAMLConfigs[T Configurable](filename string) (func(T) error, error) {
	return fromYAMLDirs[T](filename, resolvePaths)
}

func fromYAMLDirs[T Configurable](filename string, dirs func() []string) (func(T) error, error) {
	filename = filepath.Clean(filename)
	if filename == "." || filepath.Base(filename) != filename {
		return nil, ErrInvalidConfigFilename
	}

	return func(cfg T) error {
		for _, dir := range dirs() {
			exec, err := FromYAML[T](filepath.Join(dir, filename))
			if err != nil {
				return err
			}

			if err := exec(cfg); err != nil {
				return err
			}
		}
		return nil
	}, nil
}
