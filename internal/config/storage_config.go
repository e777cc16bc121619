package config

import "strings"

type StorageBackend string

const (
	StorageMemory StorageBackend = "memory"
	StorageFile   StorageBackend = "file"
	StorageRedis  StorageBackend = "redis"
)

type StorageConfig interface {
	GetStorageBackend() StorageBackend
	GetDataFolder() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetSessionKeyPrefix() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetStorageBackend() StorageBackend {
	switch b := StorageBackend(strings.ToLower(GetEnv("STORAGE_BACKEND", string(StorageMemory)))); b {
	case StorageFile, StorageRedis:
		return b
	default:
		return StorageMemory
	}
}

func (Storage) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Storage) GetRedisDB() int {
	return GetEnvInt("REDIS_DB", 0)
}

func (Storage) GetSessionKeyPrefix() string {
	return GetEnv("SESSION_KEY_PREFIX", "atelier")
}
