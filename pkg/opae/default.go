package opae

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// ConfigFileEnv names the environment variable holding the runtime
// configuration file passed to the native driver's initializer.
const ConfigFileEnv = "LIBOPAE_CFGFILE"

var (
	defaultOnce    sync.Once
	defaultRuntime *Runtime
	defaultErr     error
)

// Default returns the process wide runtime backed by the native driver. The
// driver is created and initialized on first use only; the outcome, success
// or failure, is kept for the life of the process. Code that needs the
// native runtime must treat an error here as fatal.
func Default() (*Runtime, error) {
	defaultOnce.Do(func() {
		log := zap.L().Named("opae")
		drv, err := NativeDriver()
		if err != nil {
			defaultErr = err
			log.Warn("Native OPAE driver not available", zap.Error(err))
			return
		}
		rt := NewRuntime(drv, WithLogger(log))
		if err := rt.Initialize(os.Getenv(ConfigFileEnv)); err != nil {
			defaultErr = err
			log.Error("Failed to initialize native OPAE driver", zap.Error(err))
			return
		}
		log.Info("Native OPAE driver initialized")
		defaultRuntime = rt
	})
	return defaultRuntime, defaultErr
}

// Discover selects the first accelerator through the default runtime.
func Discover() (*Platform, error) {
	rt, err := Default()
	if err != nil {
		return nil, fmt.Errorf("default runtime: %w", err)
	}
	return rt.Discover()
}

// Open selects the first accelerator matching f through the default runtime.
func Open(f Filter) (*Platform, error) {
	rt, err := Default()
	if err != nil {
		return nil, fmt.Errorf("default runtime: %w", err)
	}
	return rt.Open(f)
}
