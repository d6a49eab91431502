// Package config loads the YAML server configuration file and overlays it
// onto orchestrator.DefaultConfig(), following the same
// read-file-then-yaml.Unmarshal shape as giztoy's pkg/cli config loader,
// but for a single static file rather than a home-directory context store.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/voxcortex/pkg/orchestrator"
)

// FileConfig is the on-disk shape. Every field is optional; an absent field
// leaves the corresponding orchestrator.DefaultConfig() value untouched.
// Durations are parsed with time.ParseDuration ("50ms", "30s", ...).
type FileConfig struct {
	ListenAddr string `yaml:"listen_addr,omitempty"`

	STTMinBlobBytes     int      `yaml:"stt_min_blob_bytes,omitempty"`
	DecisionDebounce    string   `yaml:"decision_debounce,omitempty"`
	STTJobQueueCap      int      `yaml:"stt_job_queue_cap,omitempty"`
	TextStreamQueueCap  int      `yaml:"text_stream_queue_cap,omitempty"`
	AudioOutputQueueCap int      `yaml:"audio_output_queue_cap,omitempty"`
	Backchannel         []string `yaml:"backchannel,omitempty"`
	LLMRequestTimeout   string   `yaml:"llm_request_timeout,omitempty"`
	ToolCancelGrace     string   `yaml:"tool_cancel_grace,omitempty"`
	MaxHistoryTurns     int      `yaml:"max_history_turns,omitempty"`
}

// DefaultListenAddr is used when a config file omits listen_addr.
const DefaultListenAddr = ":8080"

// Result is the loaded, resolved configuration: the orchestrator knobs plus
// the server-level settings that don't belong on orchestrator.Config.
type Result struct {
	ListenAddr   string
	Orchestrator orchestrator.Config
}

// Load reads path and overlays it onto the defaults. A missing file is not
// an error: it yields the defaults plus DefaultListenAddr, so a fresh
// checkout runs with zero configuration.
func Load(path string) (Result, error) {
	res := Result{
		ListenAddr:   DefaultListenAddr,
		Orchestrator: orchestrator.DefaultConfig(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return res, nil
		}
		return res, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var f FileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return res, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := res.overlay(&f); err != nil {
		return res, fmt.Errorf("config: %s: %w", path, err)
	}
	return res, nil
}

func (r *Result) overlay(f *FileConfig) error {
	if f.ListenAddr != "" {
		r.ListenAddr = f.ListenAddr
	}
	if f.STTMinBlobBytes > 0 {
		r.Orchestrator.STTMinBlobBytes = f.STTMinBlobBytes
	}
	if f.STTJobQueueCap > 0 {
		r.Orchestrator.STTJobQueueCap = f.STTJobQueueCap
	}
	if f.TextStreamQueueCap > 0 {
		r.Orchestrator.TextStreamQueueCap = f.TextStreamQueueCap
	}
	if f.AudioOutputQueueCap > 0 {
		r.Orchestrator.AudioOutputQueueCap = f.AudioOutputQueueCap
	}
	if f.MaxHistoryTurns > 0 {
		r.Orchestrator.MaxHistoryTurns = f.MaxHistoryTurns
	}
	if len(f.Backchannel) > 0 {
		set := make(map[string]struct{}, len(f.Backchannel))
		for _, w := range f.Backchannel {
			set[w] = struct{}{}
		}
		r.Orchestrator.Backchannel = set
	}

	var err error
	if r.Orchestrator.DecisionDebounce, err = parseDuration(f.DecisionDebounce, r.Orchestrator.DecisionDebounce); err != nil {
		return fmt.Errorf("decision_debounce: %w", err)
	}
	if r.Orchestrator.LLMRequestTimeout, err = parseDuration(f.LLMRequestTimeout, r.Orchestrator.LLMRequestTimeout); err != nil {
		return fmt.Errorf("llm_request_timeout: %w", err)
	}
	if r.Orchestrator.ToolCancelGrace, err = parseDuration(f.ToolCancelGrace, r.Orchestrator.ToolCancelGrace); err != nil {
		return fmt.Errorf("tool_cancel_grace: %w", err)
	}
	return nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}
