package types

type Config struct {
	Name     string          `yaml:"name" json:"name" validate:"required"`
	Logger   *LoggerConfig   `yaml:"logger" json:"logger" validate:"required"`
	Chain    *ChainConfig    `yaml:"chain" json:"chain" validate:"required"`
	Handlers *HandlersConfig `yaml:"handlers" json:"handlers" validate:"required"`
	Server   *ServerConfig   `yaml:"server" json:"server"`
}

type LoggerConfig struct {
	Type   string      `yaml:"type" json:"type"`
	Level  string      `yaml:"level" json:"level" validate:"required"`
	Config interface{} `yaml:"config" json:"config"`
}

type ChainConfig struct {
	Order  string `yaml:"order" json:"order" validate:"oneof=fifo lifo"`
	Passes int    `yaml:"passes" json:"passes" validate:"min=1"`
}

type HandlersConfig struct {
	Recovery  *HandlerItemConfig `yaml:"recovery" json:"recovery"`
	Logging   *HandlerItemConfig `yaml:"logging" json:"logging"`
	Metrics   *HandlerItemConfig `yaml:"metrics" json:"metrics"`
	Tracing   *HandlerItemConfig `yaml:"tracing" json:"tracing"`
	Timeout   *HandlerItemConfig `yaml:"timeout" json:"timeout"`
	RateLimit *HandlerItemConfig `yaml:"rate_limit" json:"rate_limit"`
}

// HandlerItemConfig configures one built-in handler. A zero Weight selects
// the handler's default weight.
type HandlerItemConfig struct {
	Enabled bool                   `yaml:"enabled" json:"enabled"`
	Weight  int                    `yaml:"weight" json:"weight" validate:"min=0"`
	Params  map[string]interface{} `yaml:"params" json:"params"`
}

type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port" validate:"min=1,max=65535"`
}
