package storage

import (
	"csmc-bot/config"
)

// Cfg is the loaded configuration, set once at boot.
var Cfg *config.Config
