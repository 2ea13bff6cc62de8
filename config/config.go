// Package config loads the typing engine's configuration from a YAML
// file and TYPIST_-prefixed environment variables, following the
// teacher's viper Load/setDefaults/validateConfig shape.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/typist/humantype/internal/core"
	"github.com/typist/humantype/internal/engine"
	"github.com/typist/humantype/internal/executor"
	"github.com/typist/humantype/internal/helper"
)

// Config is the fully-resolved, validated configuration for one
// typist run.
type Config struct {
	Typing   core.TypingOptions `mapstructure:"typing"`
	Executor ExecutorConfig     `mapstructure:"executor"`
	Helper   HelperConfig       `mapstructure:"helper"`
	History  HistoryConfig      `mapstructure:"history"`
}

// ExecutorConfig mirrors executor.Config with mapstructure tags, since
// the executor package itself stays free of viper/mapstructure.
type ExecutorConfig struct {
	MinKeyDelayMs               int `mapstructure:"min_key_delay_ms"`
	BackspaceSettleMs           int `mapstructure:"backspace_settle_ms"`
	NavigationSettleMs          int `mapstructure:"navigation_settle_ms"`
	PreSequenceSettleMs         int `mapstructure:"pre_sequence_settle_ms"`
	PostSequenceSettleMs        int `mapstructure:"post_sequence_settle_ms"`
	CtrlNavSettleMs             int `mapstructure:"ctrl_nav_settle_ms"`
	MaxBackspacesBeforePause    int `mapstructure:"max_backspaces_before_pause"`
	BackspaceBurstPauseMs       int `mapstructure:"backspace_burst_pause_ms"`
	DoubleCharBackspaceSettleMs int `mapstructure:"double_char_backspace_settle_ms"`
	CorrectionMinDelayMs        int `mapstructure:"correction_min_delay_ms"`
}

// HelperConfig locates the keystroke-helper binary and its timeouts.
type HelperConfig struct {
	Path               string `mapstructure:"path"`
	HandshakeTimeoutMs int    `mapstructure:"handshake_timeout_ms"`
	AckTimeoutMs       int    `mapstructure:"ack_timeout_ms"`
}

// HistoryConfig controls the optional ambient audit log.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

// Load reads configPath (YAML) layered under defaults and
// TYPIST_-prefixed environment overrides, then validates the result.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	setDefaults()

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.SetEnvPrefix("TYPIST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("typing.wpm", 65.0)
	viper.SetDefault("typing.variance", 0.3)
	viper.SetDefault("typing.error_rate", 0.04)
	viper.SetDefault("typing.correction_delay", 0.35)
	viper.SetDefault("typing.advanced.typo_double_weight", 1.0)
	viper.SetDefault("typing.advanced.typo_transpose_weight", 1.0)
	viper.SetDefault("typing.advanced.typo_nearby_key_weight", 2.0)
	viper.SetDefault("typing.advanced.fix_session_probability", 0.3)
	viper.SetDefault("typing.advanced.final_verify_via_clipboard", false)
	viper.SetDefault("typing.advanced.final_rewrite_on_mismatch", true)
	viper.SetDefault("typing.advanced.final_verify_max_attempts", 2)

	def := executor.DefaultConfig()
	viper.SetDefault("executor.min_key_delay_ms", def.MinKeyDelayMs)
	viper.SetDefault("executor.backspace_settle_ms", def.BackspaceSettleMs)
	viper.SetDefault("executor.navigation_settle_ms", def.NavigationSettleMs)
	viper.SetDefault("executor.pre_sequence_settle_ms", def.PreSequenceSettleMs)
	viper.SetDefault("executor.post_sequence_settle_ms", def.PostSequenceSettleMs)
	viper.SetDefault("executor.ctrl_nav_settle_ms", def.CtrlNavSettleMs)
	viper.SetDefault("executor.max_backspaces_before_pause", def.MaxBackspacesBeforePause)
	viper.SetDefault("executor.backspace_burst_pause_ms", def.BackspaceBurstPauseMs)
	viper.SetDefault("executor.double_char_backspace_settle_ms", def.DoubleCharBackspaceSettleMs)
	viper.SetDefault("executor.correction_min_delay_ms", def.CorrectionMinDelayMs)

	viper.SetDefault("helper.path", "keyhelper")
	viper.SetDefault("helper.handshake_timeout_ms", 2000)
	viper.SetDefault("helper.ack_timeout_ms", 2000)

	viper.SetDefault("history.enabled", false)
	viper.SetDefault("history.db_path", "data/typist.db")
}

func validateConfig(cfg *Config) error {
	if err := cfg.Typing.Validate(); err != nil {
		return err
	}
	if cfg.Helper.Path == "" {
		return fmt.Errorf("helper.path is required")
	}
	if cfg.History.Enabled && cfg.History.DBPath == "" {
		return fmt.Errorf("history.db_path is required when history.enabled is true")
	}
	return nil
}

// EngineConfig translates the resolved Config into engine.Config.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		HelperPath: c.Helper.Path,
		ExecutorCfg: executor.Config{
			MinKeyDelayMs:               int64(c.Executor.MinKeyDelayMs),
			BackspaceSettleMs:           int64(c.Executor.BackspaceSettleMs),
			NavigationSettleMs:          int64(c.Executor.NavigationSettleMs),
			PreSequenceSettleMs:         int64(c.Executor.PreSequenceSettleMs),
			PostSequenceSettleMs:        int64(c.Executor.PostSequenceSettleMs),
			CtrlNavSettleMs:             int64(c.Executor.CtrlNavSettleMs),
			MaxBackspacesBeforePause:    c.Executor.MaxBackspacesBeforePause,
			BackspaceBurstPauseMs:       int64(c.Executor.BackspaceBurstPauseMs),
			DoubleCharBackspaceSettleMs: int64(c.Executor.DoubleCharBackspaceSettleMs),
			CorrectionMinDelayMs:        int64(c.Executor.CorrectionMinDelayMs),
		},
		ClientCfg: helper.ClientConfig{
			HandshakeTimeout: msDuration(c.Helper.HandshakeTimeoutMs),
			AckTimeout:       msDuration(c.Helper.AckTimeoutMs),
		},
	}
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
