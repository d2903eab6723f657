// Package config loads and hot-reloads the load balancer's YAML
// configuration: the server pool, the two listening ports, the observer
// periods, the shared-store address, and the geo-IP settings (§6).
// Adapted from the teacher's internal/config/config.go loader + fsnotify
// watcher.
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config is the full load balancer configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Admin   AdminConfig   `yaml:"admin"`
	Pool    []Backend     `yaml:"pool"`
	Observe ObserveConfig `yaml:"observe"`
	Store   StoreConfig   `yaml:"store"`
	GeoIP   GeoIPConfig   `yaml:"geoip"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig is the request-serving listener (§6, default port 5000).
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AdminConfig is the metrics scrape listener, always a separate port from
// Server (§6, default port 8000).
type AdminConfig struct {
	Addr string `yaml:"addr"`
}

// Backend is one {name, url, weight} pool entry (§6). Order in the YAML
// list is significant.
type Backend struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Weight int    `yaml:"weight"`
}

// ObserveConfig holds the metrics-poll and health-probe periods (§6) plus
// the optional container-stats poller.
type ObserveConfig struct {
	MetricsPollSeconds   int  `yaml:"metrics_poll_seconds"`
	HealthProbeSeconds   int  `yaml:"health_probe_seconds"`
	ContainerStatsPoll   bool `yaml:"container_stats_poll"`
	ContainerStatsPeriod int  `yaml:"container_stats_poll_seconds"`
}

// StoreConfig is the shared key-value store address (§6). Empty means
// "no remote store configured" — the selection engine runs entirely on
// its local fallback.
type StoreConfig struct {
	Addr string `yaml:"addr"`
}

// GeoIPConfig is the geo-IP database path and the dev-mode fallback public
// IP private/loopback clients are remapped to (§6).
type GeoIPConfig struct {
	DatabasePath string `yaml:"database_path"`
	FallbackIP   string `yaml:"fallback_ip"`
	Enabled      bool   `yaml:"enabled"`
}

// LoggingConfig holds the logging level and encoder settings read from the
// YAML. cmd/loadbalancer always builds zap's production logger and does not
// apply these values.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // json|console
}

// ---------------------------------------------------------------------------
// Loader + file watcher
// ---------------------------------------------------------------------------

// Watcher emits new configs when the file changes on disk.
type Watcher struct {
	updates chan *Config
	done    chan struct{}
	once    sync.Once
	fsw     *fsnotify.Watcher
}

func (w *Watcher) Updates() <-chan *Config { return w.updates }

func (w *Watcher) Close() {
	w.once.Do(func() {
		close(w.done)
		w.fsw.Close()
	})
}

// LoadAndWatch reads the config file, starts watching for changes, and
// returns the initial config plus a Watcher whose channel delivers reloads.
func LoadAndWatch(path string, log *zap.SugaredLogger) (*Config, *Watcher, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		return nil, nil, fmt.Errorf("watch config file: %w", err)
	}

	w := &Watcher{
		updates: make(chan *Config, 1),
		done:    make(chan struct{}),
		fsw:     fsw,
	}

	go func() {
		var debounce <-chan time.Time
		for {
			select {
			case <-w.done:
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					debounce = time.After(200 * time.Millisecond)
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				log.Warnw("fsnotify error", "err", err)
			case <-debounce:
				debounce = nil
				newCfg, err := load(path)
				if err != nil {
					log.Warnw("config reload failed, keeping old config", "err", err)
					continue
				}
				select {
				case w.updates <- newCfg:
				default:
				}
			}
		}
	}()

	return cfg, w, nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5000"
	}
	if cfg.Admin.Addr == "" {
		cfg.Admin.Addr = ":8000"
	}
	if cfg.Server.Addr == cfg.Admin.Addr {
		return fmt.Errorf("server.addr and admin.addr must be distinct (scrape endpoint lives on a separate port)")
	}
	if cfg.Observe.MetricsPollSeconds == 0 {
		cfg.Observe.MetricsPollSeconds = 5
	}
	if cfg.Observe.HealthProbeSeconds == 0 {
		cfg.Observe.HealthProbeSeconds = 10
	}
	if cfg.Observe.ContainerStatsPeriod == 0 {
		cfg.Observe.ContainerStatsPeriod = 5
	}

	if len(cfg.Pool) == 0 {
		return fmt.Errorf("pool: at least one backend required")
	}
	seen := make(map[string]bool, len(cfg.Pool))
	for i := range cfg.Pool {
		b := &cfg.Pool[i]
		if b.URL == "" {
			return fmt.Errorf("pool[%d]: url is required", i)
		}
		if b.Name == "" {
			b.Name = b.URL
		}
		if seen[b.Name] {
			return fmt.Errorf("pool[%d]: duplicate backend name %q", i, b.Name)
		}
		seen[b.Name] = true
		if b.Weight <= 0 {
			b.Weight = 1
		}
	}

	if cfg.GeoIP.Enabled && cfg.GeoIP.DatabasePath == "" {
		return fmt.Errorf("geoip: enabled but database_path is empty")
	}

	return nil
}
