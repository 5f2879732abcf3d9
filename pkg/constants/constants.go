package constants

import (
	"exptv-finder/pkg/config"
	"sync"
)

var (
	globalConfig *config.Config
	configOnce   sync.Once
	configError  error
)

func GetConfig() (*config.Config, error) {
	configOnce.Do(func() {
		globalConfig, configError = config.Load()
	})
	return globalConfig, configError
}

const (
	// ExitUnresolved is the finder's exit status when no asset could be
	// determined; ExitPlaylistFailed is the writer's.
	ExitUnresolved     = 2
	ExitPlaylistFailed = 1
)
