package config

type Config interface {
	EnvConfig
	ClientConfig
	IdPConfig
}

type EnvConfig interface {
	GetEnv() string
	GetAppName() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
	Client
	IdP
}

func New() Config {
	return mainConfig{}
}
