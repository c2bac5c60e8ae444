package configuration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const (
	configFile = "../../config.yml"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestConfigSuccees(t *testing.T) {

	t.Run("succees read config", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		configurator := NewConfigurator(ctx, configFile)
		if err := configurator.Run(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		conf := configurator.Get()
		if conf.PageSize != 15 {
			t.Errorf("wrong page_size in config file %s: want 15, got %v", configFile, conf.PageSize)
		}
		if conf.ReloadDelay() != time.Second {
			t.Errorf("wrong reload delay: want 1s, got %v", conf.ReloadDelay())
		}
		if conf.NotificationTTL() != 5*time.Second {
			t.Errorf("wrong notification ttl: want 5s, got %v", conf.NotificationTTL())
		}
		if conf.Location == nil {
			t.Errorf("location must be resolved")
		}
	})

	t.Run("defaults and env overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		writeConfig(t, path, "remote_url: https://script.example.com/exec\ntimezone: Asia/Kuala_Lumpur\n")
		t.Setenv("CACHE_BACKEND", "sqlite")
		t.Setenv("LISTEN_PORT", "9090")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		configurator := NewConfigurator(ctx, path)
		if err := configurator.Run(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		conf := configurator.Get()
		if conf.ListenPort != 9090 || conf.PageSize != 15 || conf.ReloadDelayMs != 1000 {
			t.Errorf("unexpected config %+v", conf)
		}
		if conf.Cache.Backend != BackendSqlite || conf.Cache.SqlitePath != defaultSqlitePath {
			t.Errorf("unexpected cache settings %+v", conf.Cache)
		}
		if conf.Location.String() != "Asia/Kuala_Lumpur" {
			t.Errorf("unexpected location %s", conf.Location)
		}
	})
}

func TestConfigInvalid(t *testing.T) {
	cases := map[string]string{
		"missing remote url": "listen_port: 8080\n",
		"bad backend":        "remote_url: https://x.example.com\ncache:\n  backend: redis\n",
		"bad schedule":       "remote_url: https://x.example.com\nrefresh_schedule: every now and then\n",
		"empty window":       "remote_url: https://x.example.com\nsync_windows:\n  - start_hour: 8\n    end_hour: 8\n",
		"bad window hour":    "remote_url: https://x.example.com\nsync_windows:\n  - start_hour: 25\n    end_hour: 8\n",
		"bad timezone":       "remote_url: https://x.example.com\ntimezone: Mars/Olympus\n",
		"not yaml":           "remote_url: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yml")
			writeConfig(t, path, body)
			configurator := NewConfigurator(context.Background(), path)
			if err := configurator.Run(); err == nil {
				t.Errorf("expected start-up to fail")
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		configurator := NewConfigurator(context.Background(), filepath.Join(t.TempDir(), "none.yml"))
		if err := configurator.Run(); err == nil {
			t.Errorf("expected start-up to fail")
		}
	})
}

func TestConfigOvernightWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	writeConfig(t, path, "remote_url: https://x.example.com\nsync_windows:\n  - start_hour: 22\n    end_hour: 6\n")

	configurator := NewConfigurator(context.Background(), path)
	if err := configurator.Run(); err != nil {
		t.Fatalf("overnight window rejected: %v", err)
	}
	if w := configurator.Get().SyncWindows; len(w) != 1 || w[0].StartHour != 22 || w[0].EndHour != 6 {
		t.Errorf("unexpected windows %+v", w)
	}
}

func TestConfigHotReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	writeConfig(t, path, "remote_url: https://x.example.com\npage_size: 10\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	configurator := NewConfigurator(ctx, path)
	if err := configurator.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	writeConfig(t, path, "remote_url: https://x.example.com\npage_size: -1\n")
	time.Sleep(500 * time.Millisecond)
	if got := configurator.Get().PageSize; got != 10 {
		t.Fatalf("invalid update must be ignored, page_size=%d", got)
	}

	writeConfig(t, path, "remote_url: https://x.example.com\npage_size: 25\n")
	deadline := time.Now().Add(2 * time.Second)
	for configurator.Get().PageSize != 25 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if got := configurator.Get().PageSize; got != 25 {
		t.Errorf("valid update must be applied, page_size=%d", got)
	}
}
