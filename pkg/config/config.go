package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// Config global configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Redis         RedisConfig         `yaml:"redis"`
	MySQL         MySQLConfig         `yaml:"mysql"`
	Blob          BlobConfig          `yaml:"blob"`
	Queue         QueueConfig         `yaml:"queue"`
	Services      []ServiceConfig     `yaml:"services"`
	Monitor       MonitorConfig       `yaml:"monitor"`
	WorkerScaler  WorkerScalerConfig  `yaml:"worker_scaler"`
	GatewayScaler GatewayScalerConfig `yaml:"gateway_scaler"`
	Deploy        DeployConfig        `yaml:"deploy"`
	Logger        LoggerConfig        `yaml:"logger"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

// RedisConfig Redis configuration
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MySQLConfig MySQL configuration (optional request/scaling-event archive)
type MySQLConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// BlobConfig blob store configuration
type BlobConfig struct {
	TTL int `yaml:"ttl"` // blob retention in seconds, 0 means keep forever
}

// QueueConfig queue substrate configuration
type QueueConfig struct {
	ResultQueue string `yaml:"result_queue"` // unified results queue name
	Concurrency int    `yaml:"concurrency"`  // result consumer concurrency
	TaskTimeout int    `yaml:"task_timeout"` // job timeout (seconds)
}

// ServiceConfig registers one processing algorithm
type ServiceConfig struct {
	Name        string `yaml:"name"`        // algorithm name, e.g. grayscale
	Queue       string `yaml:"queue"`       // input queue name
	Deployment  string `yaml:"deployment"`  // worker deployment name for scaling
	Description string `yaml:"description"`
	MaxThreads  int    `yaml:"max_threads"` // parameter bound, default 16
	MaxPasses   int    `yaml:"max_passes"`  // parameter bound, default 10
}

// MonitorConfig queue monitor configuration
type MonitorConfig struct {
	Interval int `yaml:"interval"` // sampling interval (seconds)
}

// WorkerScalerConfig per-algorithm worker scaling configuration
type WorkerScalerConfig struct {
	Enabled            bool    `yaml:"enabled"`
	MinInstances       int     `yaml:"min_instances"`
	MaxInstances       int     `yaml:"max_instances"`
	ScaleUpThreshold   float64 `yaml:"scale_up_threshold"`   // messages per instance
	ScaleDownThreshold float64 `yaml:"scale_down_threshold"` // messages per instance
	CheckInterval      int     `yaml:"check_interval"`       // seconds
	Cooldown           int     `yaml:"cooldown"`             // seconds
}

// GatewayScalerConfig load-based gateway scaling configuration
type GatewayScalerConfig struct {
	Enabled           bool    `yaml:"enabled"`
	Deployment        string  `yaml:"deployment"` // gateway deployment name for scaling
	MinInstances      int     `yaml:"min_instances"`
	MaxInstances      int     `yaml:"max_instances"`
	LoadThresholdUp   float64 `yaml:"load_threshold_up"`
	LoadThresholdDown float64 `yaml:"load_threshold_down"`
	CheckInterval     int     `yaml:"check_interval"` // seconds
	Cooldown          int     `yaml:"cooldown"`       // seconds, typically longer than worker tier
}

// DeployConfig deployment substrate configuration
type DeployConfig struct {
	Provider  string `yaml:"provider"`  // log, k8s
	Namespace string `yaml:"namespace"` // k8s namespace
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path string `yaml:"path"`
}

// Init initializes configuration
func Init() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return err
	}

	GlobalConfig = &cfg
	return nil
}

// ApplyDefaults fills zero values with operational defaults
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Queue.ResultQueue == "" {
		cfg.Queue.ResultQueue = "results"
	}
	if cfg.Queue.Concurrency <= 0 {
		cfg.Queue.Concurrency = 10
	}
	if cfg.Queue.TaskTimeout <= 0 {
		cfg.Queue.TaskTimeout = 300
	}
	if cfg.Monitor.Interval <= 0 {
		cfg.Monitor.Interval = 30
	}
	if cfg.WorkerScaler.MinInstances <= 0 {
		cfg.WorkerScaler.MinInstances = 1
	}
	if cfg.WorkerScaler.MaxInstances <= 0 {
		cfg.WorkerScaler.MaxInstances = 5
	}
	if cfg.WorkerScaler.ScaleUpThreshold <= 0 {
		cfg.WorkerScaler.ScaleUpThreshold = 10
	}
	if cfg.WorkerScaler.ScaleDownThreshold <= 0 {
		cfg.WorkerScaler.ScaleDownThreshold = 2
	}
	if cfg.WorkerScaler.CheckInterval <= 0 {
		cfg.WorkerScaler.CheckInterval = 30
	}
	if cfg.WorkerScaler.Cooldown <= 0 {
		cfg.WorkerScaler.Cooldown = 120
	}
	if cfg.GatewayScaler.MinInstances <= 0 {
		cfg.GatewayScaler.MinInstances = 1
	}
	if cfg.GatewayScaler.MaxInstances <= 0 {
		cfg.GatewayScaler.MaxInstances = 3
	}
	if cfg.GatewayScaler.LoadThresholdUp <= 0 {
		cfg.GatewayScaler.LoadThresholdUp = 80
	}
	if cfg.GatewayScaler.LoadThresholdDown <= 0 {
		cfg.GatewayScaler.LoadThresholdDown = 30
	}
	if cfg.GatewayScaler.CheckInterval <= 0 {
		cfg.GatewayScaler.CheckInterval = 30
	}
	if cfg.GatewayScaler.Cooldown <= 0 {
		cfg.GatewayScaler.Cooldown = 180
	}
	if cfg.GatewayScaler.Deployment == "" {
		cfg.GatewayScaler.Deployment = "pixelgate"
	}
	if cfg.Deploy.Provider == "" {
		cfg.Deploy.Provider = "log"
	}
	for i := range cfg.Services {
		if cfg.Services[i].MaxThreads <= 0 {
			cfg.Services[i].MaxThreads = 16
		}
		if cfg.Services[i].MaxPasses <= 0 {
			cfg.Services[i].MaxPasses = 10
		}
		if cfg.Services[i].Deployment == "" {
			cfg.Services[i].Deployment = cfg.Services[i].Name + "-worker"
		}
	}
}

// Validate rejects configurations the gateway cannot run with
func Validate(cfg *Config) error {
	if len(cfg.Services) == 0 {
		return fmt.Errorf("config: at least one service must be registered")
	}
	seen := make(map[string]bool, len(cfg.Services))
	for _, svc := range cfg.Services {
		if svc.Name == "" || svc.Queue == "" {
			return fmt.Errorf("config: service name and queue are required")
		}
		if seen[svc.Name] {
			return fmt.Errorf("config: duplicate service %q", svc.Name)
		}
		seen[svc.Name] = true
		if svc.Queue == cfg.Queue.ResultQueue {
			return fmt.Errorf("config: service %q input queue collides with result queue %q", svc.Name, cfg.Queue.ResultQueue)
		}
	}
	if cfg.WorkerScaler.MinInstances > cfg.WorkerScaler.MaxInstances {
		return fmt.Errorf("config: worker_scaler min_instances > max_instances")
	}
	if cfg.GatewayScaler.MinInstances > cfg.GatewayScaler.MaxInstances {
		return fmt.Errorf("config: gateway_scaler min_instances > max_instances")
	}
	return nil
}

// MonitorIntervalDuration returns the monitor sampling interval
func (c *Config) MonitorIntervalDuration() time.Duration {
	return time.Duration(c.Monitor.Interval) * time.Second
}
