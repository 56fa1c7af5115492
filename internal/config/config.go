// Package config binds the client's flags, WORDCHAIN_* environment variables
// and an optional .env file into one Config.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/DoyleJ11/wordchain-client/internal/engine"
	"github.com/DoyleJ11/wordchain-client/internal/store"
)

const EnvPrefix = "WORDCHAIN"

var (
	ErrServerURL = errors.New("server must be an http(s) url")
	ErrListen    = errors.New("listen must be host:port")
	ErrDuration  = errors.New("durations must be positive")
)

type Config struct {
	Server         string
	Listen         string
	StorePath      string
	StoreDSN       string
	Profile        string
	ReconnectDelay time.Duration
	BannerTTL      time.Duration
	DialTimeout    time.Duration
	WriteTimeout   time.Duration
	AutoResume     bool
	Layout         string
	LogLevel       string
	LogFormat      string
}

// Register adds every flag to fs and then applies any WORDCHAIN_* value the
// user did not pass on the command line. envFile is loaded first when it
// exists; variables already set in the environment win.
func Register(fs *pflag.FlagSet, cfg *Config, envFile string) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Server, "server", "s", "http://localhost:8000", "game server base url (env: WORDCHAIN_SERVER)")
	fs.StringVarP(&cfg.Listen, "listen", "l", "127.0.0.1:7070", "renderer bridge address (env: WORDCHAIN_LISTEN)")
	fs.StringVar(&cfg.StorePath, "store-path", "", "session file, defaults to the user config dir (env: WORDCHAIN_STORE_PATH)")
	fs.StringVar(&cfg.StoreDSN, "store-dsn", "", "postgres dsn; overrides --store-path (env: WORDCHAIN_STORE_DSN)")
	fs.StringVar(&cfg.Profile, "profile", "default", "namespace for the saved session (env: WORDCHAIN_PROFILE)")
	fs.DurationVar(&cfg.ReconnectDelay, "reconnect-delay", 3*time.Second, "wait before reconnecting (env: WORDCHAIN_RECONNECT_DELAY)")
	fs.DurationVar(&cfg.BannerTTL, "banner-ttl", 3*time.Second, "how long transient messages stay visible (env: WORDCHAIN_BANNER_TTL)")
	fs.DurationVar(&cfg.DialTimeout, "dial-timeout", 5*time.Second, "websocket handshake timeout (env: WORDCHAIN_DIAL_TIMEOUT)")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", 3*time.Second, "per-message send timeout (env: WORDCHAIN_WRITE_TIMEOUT)")
	fs.BoolVar(&cfg.AutoResume, "auto-resume", true, "reconnect to the saved room at startup (env: WORDCHAIN_AUTO_RESUME)")
	fs.StringVar(&cfg.Layout, "layout", "rows", "hand layout: rows or fan (env: WORDCHAIN_LAYOUT)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "debug, info, warn or error (env: WORDCHAIN_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", "json", "json or console (env: WORDCHAIN_LOG_FORMAT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrServerURL, c.Server)
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("%w: %q", ErrListen, c.Listen)
	}
	durations := []struct {
		flag string
		d    time.Duration
	}{
		{"reconnect-delay", c.ReconnectDelay},
		{"banner-ttl", c.BannerTTL},
		{"dial-timeout", c.DialTimeout},
		{"write-timeout", c.WriteTimeout},
	}
	for _, o := range durations {
		if o.d <= 0 {
			return fmt.Errorf("%w: --%s=%s", ErrDuration, o.flag, o.d)
		}
	}
	if _, err := engine.LayoutByName(c.Layout); err != nil {
		return err
	}
	return nil
}

// ResolvedStorePath is StorePath or the per-profile default.
func (c *Config) ResolvedStorePath() string {
	if c.StorePath != "" {
		return c.StorePath
	}
	return store.DefaultPath(c.Profile)
}
