package config

import (
	"context"
	"encoding/json"

	"blinkcode-go/bus"
	"blinkcode-go/errcode"
	"blinkcode-go/types"
	"blinkcode-go/x/jsonx"
)

// -----------------------------------------------------------------------------
// String constants (live in flash, not RAM)
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	configPrefix = "config"
	keyBlink     = "blink"
	CtxDeviceKey = "device" // context key used for device ID
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Devices lists the embedded device IDs.
func Devices() []string {
	out := make([]string, 0, len(embeddedConfigs))
	for k := range embeddedConfigs {
		out = append(out, k)
	}
	return out
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// Load resolves and validates the blink config of device without touching
// the bus.
func Load(device string) (types.DeviceConfig, map[string]json.RawMessage, error) {
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return types.DeviceConfig{}, nil, errcode.Wrap(errcode.InvalidParams, serviceName, "no embedded config for device: "+device)
	}
	var sections map[string]json.RawMessage
	if err := jsonx.DecodeJSON(raw, &sections); err != nil {
		return types.DeviceConfig{}, nil, errcode.Wrap(errcode.InvalidParams, serviceName, "embedded config is not a JSON object")
	}
	var cfg types.DeviceConfig
	if b, ok := sections[keyBlink]; ok {
		if err := jsonx.DecodeJSON(b, &cfg); err != nil {
			return types.DeviceConfig{}, nil, errcode.Wrap(errcode.InvalidParams, serviceName, "blink: "+err.Error())
		}
	}
	if cfg.Name == "" {
		cfg.Name = device
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return types.DeviceConfig{}, nil, err
	}
	return cfg, sections, nil
}

// publishConfig publishes the device config as retained messages:
// config/blink carries a validated types.DeviceConfig, every other section
// its decoded JSON value.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errcode.Wrap(errcode.InvalidParams, serviceName, "missing device ID in context")
	}

	cfg, sections, err := Load(device)
	if err != nil {
		return err
	}
	conn.Publish(conn.NewMessage(bus.T(configPrefix, keyBlink), cfg, true))

	for k, raw := range sections {
		if k == keyBlink {
			continue
		}
		var v any
		if err := jsonx.DecodeJSON(raw, &v); err != nil {
			println("[config] skipping section", k, err.Error())
			continue
		}
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config] publish failed:", err.Error())
		}
	}()
}
