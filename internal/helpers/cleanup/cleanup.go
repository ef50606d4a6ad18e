// Package cleanup collects shutdown hooks. Hooks run last-registered first,
// each behind a panic guard.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/lattesec/luatrace/internal/helpers/nopanic"
	"github.com/lattesec/luatrace/pkg/log"
)

type CleanupFunc func() error

type hook struct {
	id   uint64
	name string
	fn   CleanupFunc
}

// Stack is an ordered set of hooks. The zero value is ready to use.
type Stack struct {
	mu     sync.Mutex
	nextID uint64
	hooks  []hook
}

// Register adds fn and returns an id for Unregister.
func (s *Stack) Register(name string, fn CleanupFunc) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.hooks = append(s.hooks, hook{id: s.nextID, name: name, fn: fn})
	return s.nextID
}

func (s *Stack) Unregister(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.hooks {
		if h.id == id {
			s.hooks = append(s.hooks[:i], s.hooks[i+1:]...)
			return
		}
	}
}

func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hooks)
}

// Run drains the stack and runs every hook, newest first. A failing or
// panicking hook does not stop the rest.
func (s *Stack) Run() error {
	s.mu.Lock()
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		name := fmt.Sprintf("cleanup %q", h.name)
		if err := nopanic.Recover(name, h.fn); err != nil {
			log.Errorf("%s failed: %v\n", name, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	onExit  Stack
	onError Stack
)

// Register registers a cleanup function
// that is called on exit
func Register(name string, fn CleanupFunc) uint64 { return onExit.Register(name, fn) }

func Unregister(id uint64) { onExit.Unregister(id) }

// RegisterError registers an error cleanup function
// that is called on error exit
func RegisterError(name string, fn CleanupFunc) uint64 { return onError.Register(name, fn) }

func UnregisterError(id uint64) { onError.Unregister(id) }

func RunCleanup() error { return onExit.Run() }

func RunErrorCleanup() error { return onError.Run() }

// Watch returns a context that is cancelled on SIGINT or SIGTERM. The
// error hooks run when the signal arrives; the caller still runs RunCleanup
// on its way out.
func Watch(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			log.Warnf("received %s, shutting down\n", sig)
			_ = RunErrorCleanup()
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
