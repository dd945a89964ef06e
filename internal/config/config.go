package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/ptbn2ofx/internal/model"
)

// EnvPrefix prefixes environment variables that override settings, e.g. PTBN2OFX_ACCOUNT.
const EnvPrefix = "PTBN2OFX"

// DefaultFile is read when no config file is given and it exists in the working directory.
const DefaultFile = "ptbn2ofx.yaml"

// ErrInvalidSettings wraps every validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings describe the account a Partners Banka export belongs to.
type Settings struct {
	Currency    string `yaml:"currency" mapstructure:"currency"`
	Bank        string `yaml:"bank" mapstructure:"bank"`
	Account     string `yaml:"account" mapstructure:"account"`
	AccountType string `yaml:"account_type" mapstructure:"account_type"`
	Charset     string `yaml:"charset" mapstructure:"charset"`
	OFXVersion  string `yaml:"ofx_version" mapstructure:"ofx_version"`
	Org         string `yaml:"org" mapstructure:"org"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Settings {
	return &Settings{
		Currency:    "CZK",
		Bank:        "PTBNCZPP",
		Account:     "",
		AccountType: string(model.AccountTypeChecking),
		Charset:     "utf-8",
		OFXVersion:  "203",
		Org:         "Partners Banka",
	}
}

// Load reads a settings file. Keys missing from the file keep their defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return s, nil
}

// Save writes settings to a YAML file.
func Save(path string, s *Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// binding ties a settings key to the command-line flag that overrides it.
type binding struct {
	key  string
	flag string
	get  func(*Settings) string
}

var bindings = []binding{
	{"currency", "currency", func(s *Settings) string { return s.Currency }},
	{"bank", "bank", func(s *Settings) string { return s.Bank }},
	{"account", "account", func(s *Settings) string { return s.Account }},
	{"account_type", "account-type", func(s *Settings) string { return s.AccountType }},
	{"charset", "charset", func(s *Settings) string { return s.Charset }},
	{"ofx_version", "ofx-version", func(s *Settings) string { return s.OFXVersion }},
	{"org", "org", func(s *Settings) string { return s.Org }},
}

// Build resolves settings from defaults, the config file at path, PTBN2OFX_*
// environment variables and changed flags, later sources winning. An empty
// path falls back to DefaultFile when it exists. flags may be nil.
func Build(path string, flags *pflag.FlagSet) (*Settings, error) {
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}

	base := Default()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		base = loaded
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, b := range bindings {
		v.SetDefault(b.key, b.get(base))
		if flags == nil {
			continue
		}
		if f := flags.Lookup(b.flag); f != nil {
			if err := v.BindPFlag(b.key, f); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", b.flag, err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks values that would otherwise only fail when the OFX file is written.
func (s *Settings) Validate() error {
	var problems []string
	if len(s.Currency) != 3 {
		problems = append(problems, fmt.Sprintf("currency %q is not an ISO 4217 code", s.Currency))
	}
	if s.Bank == "" {
		problems = append(problems, "bank is empty")
	}
	if !model.AccountType(s.AccountType).Valid() {
		problems = append(problems, fmt.Sprintf("account type %q is not one of CHECKING, SAVINGS, MONEYMRKT, CREDITLINE, CD", s.AccountType))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
	}
	return nil
}
