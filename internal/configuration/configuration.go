package configuration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendSqlite = "sqlite"
	BackendMongo  = "mongo"

	defaultListenPort      = 8080
	defaultPageSize        = 15
	defaultReloadDelayMs   = 1000
	defaultNotificationTTL = 5
	defaultSqlitePath      = "work-orders-cache.db"
)

type Configurator struct {
	ConfigPath string
	Data       *Config
	Ctx        context.Context
	Mu         *sync.Mutex
	Started    bool
}

type Config struct {
	RemoteURL              string         `yaml:"remote_url"`
	ListenPort             int            `yaml:"listen_port"`
	PageSize               int            `yaml:"page_size"`
	ReloadDelayMs          int            `yaml:"reload_delay_ms"`
	NotificationTTLSeconds int            `yaml:"notification_ttl_seconds"`
	Offline                bool           `yaml:"offline"`
	Timezone               string         `yaml:"timezone"`
	Cache                  CacheSettings  `yaml:"cache"`
	RefreshSchedule        string         `yaml:"refresh_schedule"`
	SyncWindows            []Window       `yaml:"sync_windows"`
	Location               *time.Location `yaml:"-"`
}

type CacheSettings struct {
	Backend    string `yaml:"backend"`
	SqlitePath string `yaml:"sqlite_path"`
}

// Window is a daily [StartHour, EndHour) range in the configured timezone.
// A window with EndHour before StartHour runs past midnight.
type Window struct {
	StartHour uint32 `yaml:"start_hour"`
	EndHour   uint32 `yaml:"end_hour"`
}

func (c Config) ReloadDelay() time.Duration {
	return time.Duration(c.ReloadDelayMs) * time.Millisecond
}

func (c Config) NotificationTTL() time.Duration {
	return time.Duration(c.NotificationTTLSeconds) * time.Second
}

func NewConfigurator(ctx context.Context, filepath string) *Configurator {
	return &Configurator{
		ConfigPath: filepath,
		Data:       &Config{},
		Ctx:        ctx,
		Mu:         &sync.Mutex{},
		Started:    false,
	}
}

// Run loads the file once and then follows writes to it. Only the first
// load can fail; later invalid versions are logged and ignored.
func (c *Configurator) Run() error {
	if err := c.updateConfig(); err != nil {
		return err
	}
	go c.mainProcess()
	return nil
}

// Get returns a copy of the current configuration.
func (c *Configurator) Get() Config {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	return *c.Data
}

func (c *Configurator) mainProcess() {
	path := filepath.Dir(c.ConfigPath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WARNING: config watcher is not started: %s", err)
		return
	}
	defer watcher.Close()
	if err = watcher.Add(path); err != nil {
		log.Printf("WARNING: config watcher is not started: %s", err)
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) {
				if filepath.Clean(event.Name) == filepath.Clean(c.ConfigPath) {
					c.updateConfig()
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("WARNING: %s", err)
		case <-c.Ctx.Done():
			return
		}
	}
}

func (c *Configurator) updateConfig() error {
	log.Println("Config processing...")
	c.Mu.Lock()
	defer c.Mu.Unlock()
	conf, err := c.readConfig()
	if err == nil {
		err = c.validateConfig(&conf)
	}
	if err != nil && !c.Started {
		return fmt.Errorf("config %s: %w", c.ConfigPath, err)
	} else if err != nil {
		log.Printf("WARNING: Given config is invalid, config update ignoring: %s", err)
		return nil
	}
	c.Data = &conf
	c.Started = true
	log.Println("Configuration updated succesfully!")
	return nil
}

func (c *Configurator) readConfig() (config Config, err error) {
	file, err := os.ReadFile(c.ConfigPath)
	if err != nil {
		return
	}
	err = yaml.Unmarshal(file, &config)
	if err != nil {
		return
	}
	applyEnv(&config)
	applyDefaults(&config)
	return
}

func applyDefaults(conf *Config) {
	if conf.ListenPort == 0 {
		conf.ListenPort = defaultListenPort
	}
	if conf.PageSize == 0 {
		conf.PageSize = defaultPageSize
	}
	if conf.ReloadDelayMs == 0 {
		conf.ReloadDelayMs = defaultReloadDelayMs
	}
	if conf.NotificationTTLSeconds == 0 {
		conf.NotificationTTLSeconds = defaultNotificationTTL
	}
	if conf.Timezone == "" {
		conf.Timezone = "Local"
	}
	if conf.Cache.Backend == "" {
		conf.Cache.Backend = BackendMemory
	}
	if conf.Cache.Backend == BackendSqlite && conf.Cache.SqlitePath == "" {
		conf.Cache.SqlitePath = defaultSqlitePath
	}
}

func applyEnv(conf *Config) {
	envOverride(&conf.RemoteURL, "REMOTE_URL")
	envOverride(&conf.Cache.Backend, "CACHE_BACKEND")
	envOverride(&conf.Cache.SqlitePath, "SQLITE_PATH")
	envOverride(&conf.Timezone, "TIMEZONE")
	envOverrideInt(&conf.ListenPort, "LISTEN_PORT")
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Printf("WARNING: invalid %s '%s': %v", envKey, val, err)
			return
		}
		*field = parsed
	}
}

func (c *Configurator) validateConfig(conf *Config) error {
	errStr := ""

	if u, err := url.Parse(conf.RemoteURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errStr += "remote_url must be an absolute http(s) url; "
	}
	if conf.ListenPort < 1 || conf.ListenPort > 65535 {
		errStr += "listen_port must be in range from 1 to 65535; "
	}
	if conf.PageSize < 1 {
		errStr += "page_size must be greater then 0; "
	}
	if conf.ReloadDelayMs < 0 {
		errStr += "reload_delay_ms can't be negative; "
	}
	if conf.NotificationTTLSeconds < 0 {
		errStr += "notification_ttl_seconds can't be negative; "
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		errStr += fmt.Sprintf("unknown timezone [%s]; ", conf.Timezone)
	} else {
		conf.Location = loc
	}

	switch strings.ToLower(conf.Cache.Backend) {
	case BackendMemory, BackendMongo:
	case BackendSqlite:
		if conf.Cache.SqlitePath == "" {
			errStr += "cache.sqlite_path must be set for the sqlite backend; "
		}
	default:
		errStr += fmt.Sprintf("unknown cache.backend [%s], use memory, sqlite or mongo; ", conf.Cache.Backend)
	}
	conf.Cache.Backend = strings.ToLower(conf.Cache.Backend)

	if conf.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(conf.RefreshSchedule); err != nil {
			errStr += fmt.Sprintf("invalid refresh_schedule [%s]: %s; ", conf.RefreshSchedule, err)
		}
	}

	for _, interval := range conf.SyncWindows {
		if interval.StartHour >= 24 {
			errStr += "start_hour must be uint in range from 0 to 23; "
		}
		if interval.EndHour > 24 {
			errStr += "end_hour must be uint in range from 1 to 24; "
		}
		if interval.StartHour == interval.EndHour {
			errStr += "start_hour and end_hour must differ; "
		}
	}

	if errStr != "" {
		return errors.New(errStr)
	} else {
		return nil
	}
}
