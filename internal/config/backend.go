package config

// ConfigBackend abstracts where persisted settings live. The YAML file
// backend is the only implementation; tests substitute a map.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}
