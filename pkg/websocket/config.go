package websocket

import (
	"errors"
	"time"

	"AidLink/pkg/logger"
	"AidLink/pkg/util"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// envBinding 环境变量到配置字段的映射，非法值保留默认
type envBinding struct {
	key   string
	apply func(c *Config, raw string) error
}

func positiveInt(set func(c *Config, v int)) func(*Config, string) error {
	return func(c *Config, raw string) error {
		v, err := cast.ToIntE(raw)
		if err != nil {
			return err
		}
		if v <= 0 {
			return errors.New("must be positive")
		}
		set(c, v)
		return nil
	}
}

func seconds(set func(c *Config, d time.Duration)) func(*Config, string) error {
	return positiveInt(func(c *Config, v int) { set(c, time.Duration(v)*time.Second) })
}

func boolean(set func(c *Config, v bool)) func(*Config, string) error {
	return func(c *Config, raw string) error {
		v, err := cast.ToBoolE(raw)
		if err != nil {
			return err
		}
		set(c, v)
		return nil
	}
}

var envBindings = []envBinding{
	{EnvWebSocketMaxConnections, positiveInt(func(c *Config, v int) { c.MaxConnections = int64(v) })},
	{EnvWebSocketHeartbeatInterval, seconds(func(c *Config, d time.Duration) { c.HeartbeatInterval = d })},
	{EnvWebSocketConnectionTimeout, seconds(func(c *Config, d time.Duration) { c.ConnectionTimeout = d })},
	{EnvWebSocketMessageBufferSize, positiveInt(func(c *Config, v int) { c.MessageBufferSize = v })},
	{EnvWebSocketMessageQueueSize, positiveInt(func(c *Config, v int) { c.MessageQueueSize = v })},
	{EnvWebSocketShardCount, positiveInt(func(c *Config, v int) { c.ShardCount = v })},
	{EnvWebSocketReadBufferSize, positiveInt(func(c *Config, v int) { c.ReadBufferSize = v })},
	{EnvWebSocketWriteBufferSize, positiveInt(func(c *Config, v int) { c.WriteBufferSize = v })},
	{EnvWebSocketMaxMessageSize, positiveInt(func(c *Config, v int) { c.MaxMessageSize = v })},
	{EnvWebSocketSendTimeoutMs, positiveInt(func(c *Config, v int) { c.SendTimeout = time.Duration(v) * time.Millisecond })},
	{EnvWebSocketEnableCompression, boolean(func(c *Config, v bool) { c.EnableCompression = v })},
	{EnvWebSocketDropOnFull, boolean(func(c *Config, v bool) { c.DropOnFull = v })},
	{EnvWebSocketCloseOnBackpressure, boolean(func(c *Config, v bool) { c.CloseOnBackpressure = v })},
	{EnvWebSocketCompressionLevel, func(c *Config, raw string) error {
		v, err := cast.ToIntE(raw)
		if err != nil {
			return err
		}
		c.CompressionLevel = v
		return nil
	}},
}

// LoadConfigFromEnv 在默认配置上叠加 WEBSOCKET_* 环境变量
func LoadConfigFromEnv() *Config {
	config := DefaultConfig()
	for _, b := range envBindings {
		raw := util.GetEnv(b.key)
		if raw == "" {
			continue
		}
		if err := b.apply(config, raw); err != nil {
			logger.Warn("ignore invalid websocket setting", zap.String("key", b.key), zap.String("value", raw), zap.Error(err))
		}
	}
	return config
}

// ValidateConfig 一次性返回全部问题
func ValidateConfig(config *Config) error {
	if config == nil {
		return errors.New("websocket config must not be nil")
	}
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}
	check(config.MaxConnections > 0, "max connections must be > 0")
	check(config.HeartbeatInterval > 0, "heartbeat interval must be > 0")
	check(config.ConnectionTimeout > 0, "connection timeout must be > 0")
	check(config.HeartbeatInterval < config.ConnectionTimeout, "heartbeat interval must be shorter than connection timeout")
	check(config.MessageBufferSize > 0 && config.MessageQueueSize > 0, "buffer and queue sizes must be > 0")
	check(config.ShardCount > 0, "shard count must be > 0")
	check(config.CompressionLevel >= -2 && config.CompressionLevel <= 9, "compression level must be within -2..9")
	check(config.ReadBufferSize > 0 && config.WriteBufferSize > 0, "read/write buffer size must be > 0")
	check(config.MaxMessageSize > 0, "max message size must be > 0")
	check(!config.CloseOnBackpressure || config.DropOnFull || config.SendTimeout > 0,
		"send timeout is required when closing on backpressure")
	return errors.Join(errs...)
}

// Summary 对外暴露的配置摘要
func (c *Config) Summary() map[string]interface{} {
	return map[string]interface{}{
		"max_connections":    c.MaxConnections,
		"heartbeat_interval": c.HeartbeatInterval.String(),
		"connection_timeout": c.ConnectionTimeout.String(),
		"shard_count":        c.ShardCount,
		"drop_on_full":       c.DropOnFull,
		"send_timeout":       c.SendTimeout.String(),
	}
}
