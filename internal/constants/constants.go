package constants

import "time"

const (
	AppName            = "habitpal"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/habitpal"
	DefaultDBPath      = "~/.config/habitpal/habitpal.db"
	DefaultConfigFile  = "~/.config/habitpal/habitpal.yaml"
	EnvPrefix          = "HABITPAL_"
	Version            = "v0.3.0"

	// DateFormat is the standard day identifier format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitpal-"
	BackupFileSuffix = ".db"

	// Server constants
	DefaultListenAddr      = "127.0.0.1:8420"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	ServerLockfileName     = "habitpal-server.lock"

	// Account defaults
	DefaultTimezone   = "UTC"
	DefaultPetName    = "Pet"
	StartingCoins     = 0
	MaxPurchaseAmount = 99

	// Mongo collection names
	CollectionAccounts = "accounts"
	CollectionGoals    = "goals"
	CollectionMeta     = "meta"
)
