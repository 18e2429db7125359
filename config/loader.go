package config

import (
	"context"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/saiset-co/sai-handle/types"
)

type Loader struct {
	validator *validator.Validate
}

func NewLoader() *Loader {
	return &Loader{
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (l *Loader) LoadFromFile(configPath string) (*types.Config, error) {
	if configPath == "" {
		return nil, types.ErrConfigNotFound
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, types.WrapError(types.ErrConfigNotFound, "file not found: "+configPath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, err := l.ReadFileWithTimeout(ctx, configPath)
	if err != nil {
		return nil, types.WrapError(err, "failed to read config file")
	}

	return l.Load(data)
}

// Load parses YAML over Defaults and validates the result.
func (l *Loader) Load(data []byte) (*types.Config, error) {
	config := l.Defaults()

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, types.Errorf(types.ErrConfigParseFailed, "%v", err)
	}

	if err := l.validator.Struct(config); err != nil {
		return nil, types.Errorf(types.ErrConfigValidateFailed, "%v", err)
	}

	return config, nil
}

func (l *Loader) ReadFileWithTimeout(ctx context.Context, filepath string) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}

	resultChan := make(chan result, 1)

	go func() {
		data, err := os.ReadFile(filepath)
		resultChan <- result{data: data, err: err}
	}()

	select {
	case res := <-resultChan:
		return res.data, res.err
	case <-ctx.Done():
		return nil, types.WrapError(ctx.Err(), "file read timeout")
	}
}

func (l *Loader) Defaults() *types.Config {
	return &types.Config{
		Name: "sai-handle",
		Logger: &types.LoggerConfig{
			Level: "info",
		},
		Chain: &types.ChainConfig{
			Order:  "fifo",
			Passes: 1,
		},
		Server: &types.ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Handlers: &types.HandlersConfig{
			Recovery: &types.HandlerItemConfig{
				Enabled: true,
				Weight:  10,
				Params: map[string]interface{}{
					"stack_trace": true,
				},
			},
			Logging: &types.HandlerItemConfig{
				Enabled: true,
				Weight:  20,
				Params: map[string]interface{}{
					"log_level": "info",
				},
			},
			Metrics: &types.HandlerItemConfig{
				Enabled: false,
				Weight:  30,
				Params: map[string]interface{}{
					"namespace": "sai_handle",
					"chain":     "default",
				},
			},
			Tracing: &types.HandlerItemConfig{
				Enabled: false,
				Weight:  40,
				Params: map[string]interface{}{
					"span_name": "chain.traverse",
				},
			},
			Timeout: &types.HandlerItemConfig{
				Enabled: false,
				Weight:  50,
				Params: map[string]interface{}{
					"timeout_ms": 30000,
				},
			},
			RateLimit: &types.HandlerItemConfig{
				Enabled: false,
				Weight:  60,
				Params: map[string]interface{}{
					"requests_per_second": 100,
					"burst":               20,
				},
			},
		},
	}
}
