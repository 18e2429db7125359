package logger

import (
	"sync"

	"github.com/saiset-co/sai-handle/types"
)

var customLoggerCreators sync.Map

func RegisterLogger(loggerName string, creator types.LoggerCreator) {
	customLoggerCreators.Store(loggerName, creator)
}

// NewLogger builds the logger named by config.Type, falling back to the zap
// default when no type is set.
func NewLogger(config *types.LoggerConfig) (types.Logger, error) {
	if config == nil {
		return nil, types.ErrLoggerConfigIsNil
	}

	loggerName := "default"
	if config.Type != "" {
		loggerName = config.Type
	}

	switch loggerName {
	case "default":
		return NewDefaultLogger(config)
	case "nop":
		return NewNop(), nil
	default:
		if creator, exists := customLoggerCreators.Load(loggerName); exists {
			return creator.(types.LoggerCreator)(config.Config)
		}
		return nil, types.Errorf(types.ErrLoggerTypeUnknown, "logger type: %s", loggerName)
	}
}
