package config

import (
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/pkg/logger"
)

// Watch re-reads the config file whenever it changes and hands every valid
// result to onChange. Invalid edits are logged and ignored. It is a no-op
// when no config file was found.
func (l *Loader) Watch(log *zap.Logger, onChange func(*Config)) bool {
	if l.v.ConfigFileUsed() == "" {
		return false
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			log.Warn("Ignoring invalid configuration change",
				zap.String("file", e.Name),
				zap.Error(err),
			)
			return
		}
		log.Info("Configuration reloaded", zap.String("file", e.Name))
		onChange(cfg)
	})
	l.v.WatchConfig()
	return true
}

// LevelUpdater returns an onChange callback that applies app.log_level to level
func LevelUpdater(level zap.AtomicLevel) func(*Config) {
	return func(cfg *Config) {
		level.SetLevel(logger.ParseLevel(cfg.App.LogLevel))
	}
}
