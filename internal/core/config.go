package core

import "time"

type AppConfig interface {
	GetRuntimePath() string
	GetDatabasePath() string
	GetAPIURL() string
	GetCallTimeout() time.Duration
	GetProbeTimeout() time.Duration
	GetDebounceWindow() time.Duration
	GetTopK() int
	GetPageSize() int
}

type TelegramConfig interface {
	GetTelegramToken() string
	GetTelegramOwnerID() int64
}
