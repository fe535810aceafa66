package config

import "os"

func IsDebug() bool {
	return os.Getenv("STOREDASH_DEBUG") == "1"
}
