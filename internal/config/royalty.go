package config

import (
	"errors"
	"log"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RoyaltyConfig holds the global split rates applied to every sale.
// Author and publisher rates are the defaults used when the entity has no rate of its own.
type RoyaltyConfig struct {
	PlatformFeeRate float64 `mapstructure:"platformFeeRate"`
	AuthorRate      float64 `mapstructure:"authorRate"`
	PublisherRate   float64 `mapstructure:"publisherRate"`
}

func DefaultRoyaltyConfig() RoyaltyConfig {
	return RoyaltyConfig{
		PlatformFeeRate: 0.10,
		AuthorRate:      0.15,
		PublisherRate:   0.20,
	}
}

var (
	ErrRoyaltyRateOutOfRange = errors.New("royalty rates must be within [0,1]")
	ErrRoyaltyRatesExceedOne = errors.New("royalty rates must not sum above 1")
)

type RoyaltyConfigHolder struct {
	current atomic.Value // holds RoyaltyConfig
}

// NewStaticRoyaltyConfigHolder returns a holder that never reloads.
func NewStaticRoyaltyConfigHolder(cfg RoyaltyConfig) (*RoyaltyConfigHolder, error) {
	if err := ValidateRoyaltyConfig(cfg); err != nil {
		return nil, err
	}
	holder := &RoyaltyConfigHolder{}
	holder.current.Store(cfg)
	return holder, nil
}

// NewRoyaltyConfigHolder reads royalty.yml (or the explicit path) and watches it for changes.
// Invalid reloads are ignored and the previous rates stay active.
func NewRoyaltyConfigHolder(path string) (*RoyaltyConfigHolder, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(filepath.Clean(path))
	} else {
		v.SetConfigName("royalty")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/folio")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRoyaltyConfig()
	v.SetDefault("royalty.platformFeeRate", defaults.PlatformFeeRate)
	v.SetDefault("royalty.authorRate", defaults.AuthorRate)
	v.SetDefault("royalty.publisherRate", defaults.PublisherRate)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg RoyaltyConfig
	if err := v.UnmarshalKey("royalty", &cfg); err != nil {
		return nil, err
	}
	if err := ValidateRoyaltyConfig(cfg); err != nil {
		return nil, err
	}

	holder := &RoyaltyConfigHolder{}
	holder.current.Store(cfg)

	if fileLoaded {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated RoyaltyConfig
			if err := v.UnmarshalKey("royalty", &updated); err != nil {
				log.Printf("[royalty-config] reload failed: %v", err)
				return
			}
			if err := ValidateRoyaltyConfig(updated); err != nil {
				log.Printf("[royalty-config] invalid config ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[royalty-config] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

func (h *RoyaltyConfigHolder) Get() RoyaltyConfig {
	return h.current.Load().(RoyaltyConfig)
}

func ValidateRoyaltyConfig(cfg RoyaltyConfig) error {
	for _, rate := range []float64{cfg.PlatformFeeRate, cfg.AuthorRate, cfg.PublisherRate} {
		if rate < 0 || rate > 1 {
			return ErrRoyaltyRateOutOfRange
		}
	}
	if cfg.PlatformFeeRate+cfg.AuthorRate+cfg.PublisherRate > 1+1e-9 {
		return ErrRoyaltyRatesExceedOne
	}
	return nil
}
