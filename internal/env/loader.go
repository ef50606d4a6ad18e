package env

import (
	"errors"
	"fmt"

	"github.com/lattesec/log"

	"github.com/lattesec/luatrace/internal/helpers/mirror"
)

var (
	ErrInvalidConfigFilename = errors.New("invalid config filename")
	ErrNotPointerConfig      = errors.New("config type must be a pointer")
)

// Configurable is a config struct pointer that can check itself once every
// source has been merged into it.
type Configurable interface {
	Validate() error
}

// Loader applies its callbacks to a config in registration order, so
// later callbacks override earlier ones.
type Loader[T Configurable] struct {
	callbacks []func(T) error
}

func NewLoader[T Configurable]() *Loader[T] {
	return &Loader[T]{}
}

func (l *Loader[T]) RegisterCallback(fn func(T) error) {
	l.callbacks = append(l.callbacks, fn)
}

// Load runs every callback against cfg, then validates it.
func (l *Loader[T]) Load(cfg T) error {
	for i, fn := range l.callbacks {
		if err := fn(cfg); err != nil {
			return fmt.Errorf("config source %d: %w", i, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		log.Warn().
			WithMeta("scope", "env").
			Msgf("invalid config: %v", err).Send()
		return fmt.Errorf("invalid config: %w", err)
	}

	log.Debug().WithMeta("scope", "env").Msgf("config loaded: %#v", cfg).Send()
	return nil
}

// New loads into a freshly allocated config. T must be a pointer type.
func (l *Loader[T]) New() (T, error) {
	cfg, ok := mirror.Fresh[T]().(T)
	if !ok {
		return cfg, ErrNotPointerConfig
	}
	if err := l.Load(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
