package run

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/relex/gotils/logger"
	"github.com/relex/log-filter/defs"
	"github.com/relex/log-filter/plugin"
	"github.com/relex/log-filter/util"
	"golang.org/x/time/rate"
)

// Reloader re-reads the config file and passes the new filter category to a running filter
//
// Only the filter section is reloaded. Changes of input and output take effect on restart.
type Reloader struct {
	logger      logger.Logger
	configPath  string
	handle      *plugin.Handle
	loadingLock sync.Mutex
	numReload   int
}

// NewReloader creates a Reloader for the filter created from the config file at path
func NewReloader(parentLogger logger.Logger, configPath string, handle *plugin.Handle) *Reloader {
	return &Reloader{
		logger:      parentLogger.WithField(defs.LabelComponent, "Reloader"),
		configPath:  configPath,
		handle:      handle,
		loadingLock: sync.Mutex{},
		numReload:   0,
	}
}

// Reload reconfigures the filter from the current config file
//
// On error the filter keeps its previous configuration.
func (reloader *Reloader) Reload() error {
	reloader.loadingLock.Lock()
	defer reloader.loadingLock.Unlock()

	reloader.numReload++
	rlogger := reloader.logger.WithField("numReload", reloader.numReload)

	if err := reloader.reconfigure(); err != nil {
		reloadFailureCounter.Inc()
		rlogger.Error("failed to reload: ", err)
		return err
	}
	reloadSuccessCounter.Inc()
	rlogger.Info("reloaded")
	return nil
}

func (reloader *Reloader) reconfigure() error {
	config, err := LoadConfigFile(reloader.configPath)
	if err != nil {
		return err
	}
	text, err := util.MarshalYaml(config.Filter)
	if err != nil {
		return fmt.Errorf("failed to serialize filter category: %w", err)
	}
	return reloader.handle.Reconfigure(text)
}

// ListenSignal reloads on each SIGHUP in background until the returned function is called
//
// Signals arriving within defs.ReloadMinInterval after the previous reload are ignored.
func (reloader *Reloader) ListenSignal() func() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGHUP)
	stop := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		limiter := rate.NewLimiter(rate.Every(defs.ReloadMinInterval), 1)
		for {
			select {
			case <-c:
				if !limiter.Allow() {
					reloader.logger.Warn("ignored SIGHUP received too soon after previous reload")
					continue
				}
				reloader.logger.Info("Reloading config...")
				_ = reloader.Reload()
			case <-stop:
				return
			}
		}
	}()

	return func() {
		signal.Stop(c)
		close(stop)
		<-stopped
	}
}
