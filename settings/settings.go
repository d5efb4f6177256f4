package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/compository/app/common"
	"github.com/compository/app/holo"
)

const (
	AdminURLKey           = `admin_url`
	AppURLKey             = `app_url`
	CompositoryDnaHashKey = `compository_dna_hash`
	LookupAttemptsKey     = `lookup_attempts`
	LookupDelayKey        = `lookup_delay`
	RequestTimeoutKey     = `request_timeout`
	DownloadDirKey        = `download_dir`

	envPrefix = `COMPOSITORY`

	DefaultAdminURL           = `ws://localhost:22000`
	DefaultAppURL             = `ws://localhost:22001`
	DefaultCompositoryDnaHash = `uhC0kdDuxWUdQwEGkRRZ64L00ZlCi7qwVYdWLDQ52z0L2vO8rDWkj`
	DefaultLookupAttempts     = 3
	DefaultLookupDelay        = time.Second
	DefaultRequestTimeout     = 30 * time.Second
)

var (
	ErrBadEndpoint = errors.New("endpoint must be a ws:// or wss:// url")

	Global *Settings
)

type Settings struct {
	AdminURL           string        `mapstructure:"admin_url" yaml:"admin_url"`
	AppURL             string        `mapstructure:"app_url" yaml:"app_url"`
	CompositoryDnaHash string        `mapstructure:"compository_dna_hash" yaml:"compository_dna_hash"`
	LookupAttempts     int           `mapstructure:"lookup_attempts" yaml:"lookup_attempts"`
	LookupDelay        time.Duration `mapstructure:"lookup_delay" yaml:"lookup_delay"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	DownloadDir        string        `mapstructure:"download_dir" yaml:"download_dir"`

	Source string `mapstructure:"-" yaml:"-"`
}

// Loader layers defaults, the settings file, environment and bound flags, in rising priority.
type Loader struct {
	config *viper.Viper
}

func NewLoader() *Loader {
	config := viper.New()
	config.SetDefault(AdminURLKey, DefaultAdminURL)
	config.SetDefault(AppURLKey, DefaultAppURL)
	config.SetDefault(CompositoryDnaHashKey, DefaultCompositoryDnaHash)
	config.SetDefault(LookupAttemptsKey, DefaultLookupAttempts)
	config.SetDefault(LookupDelayKey, DefaultLookupDelay)
	config.SetDefault(RequestTimeoutKey, DefaultRequestTimeout)
	config.SetDefault(DownloadDirKey, common.Home.DownloadsDir())
	config.SetEnvPrefix(envPrefix)
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	config.AutomaticEnv()
	return &Loader{config: config}
}

func (it *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag to bind for %q", key)
	}
	return it.config.BindPFlag(key, flag)
}

func loadDotenv(filenames ...string) {
	for _, filename := range filenames {
		err := godotenv.Load(filename)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			common.Uncritical("dotenv "+filename, err)
		}
	}
}

// Load reads settings from filename, or from the product home when filename is empty.
// A missing file is not an error.
func (it *Loader) Load(filename string) (*Settings, error) {
	loadDotenv(".env", filepath.Join(common.Home.Home(), ".env"))

	if len(filename) == 0 {
		filename = common.Home.SettingsFile()
	}
	it.config.SetConfigFile(filename)
	it.config.SetConfigType("yaml")
	source := filename
	if err := it.config.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read settings %s: %w", filename, err)
		}
		source = "defaults"
	}

	result := &Settings{}
	if err := it.config.Unmarshal(result); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	result.Source = source
	if err := result.Validate(); err != nil {
		return nil, err
	}
	common.Debug("settings loaded from %s", source)
	return result, nil
}

// SummonSettings loads settings from the default location and makes them Global.
func SummonSettings() (*Settings, error) {
	result, err := NewLoader().Load("")
	if err != nil {
		return nil, err
	}
	Global = result
	return result, nil
}

func validEndpoint(url string) bool {
	return strings.HasPrefix(url, "ws://") || strings.HasPrefix(url, "wss://")
}

func (it *Settings) Validate() error {
	if !validEndpoint(it.AdminURL) {
		return fmt.Errorf("%s %q: %w", AdminURLKey, it.AdminURL, ErrBadEndpoint)
	}
	if !validEndpoint(it.AppURL) {
		return fmt.Errorf("%s %q: %w", AppURLKey, it.AppURL, ErrBadEndpoint)
	}
	if _, err := holo.ParseKind(holo.KindDna, it.CompositoryDnaHash); err != nil {
		return fmt.Errorf("%s: %w", CompositoryDnaHashKey, err)
	}
	if it.LookupAttempts < 1 {
		it.LookupAttempts = 1
	}
	if it.LookupDelay < 0 {
		it.LookupDelay = 0
	}
	if it.RequestTimeout < 0 {
		it.RequestTimeout = 0
	}
	return nil
}

func Defaults() *Settings {
	return &Settings{
		AdminURL:           DefaultAdminURL,
		AppURL:             DefaultAppURL,
		CompositoryDnaHash: DefaultCompositoryDnaHash,
		LookupAttempts:     DefaultLookupAttempts,
		LookupDelay:        DefaultLookupDelay,
		RequestTimeout:     DefaultRequestTimeout,
		DownloadDir:        common.Home.DownloadsDir(),
	}
}

type document struct {
	AdminURL           string `yaml:"admin_url"`
	AppURL             string `yaml:"app_url"`
	CompositoryDnaHash string `yaml:"compository_dna_hash"`
	LookupAttempts     int    `yaml:"lookup_attempts"`
	LookupDelay        string `yaml:"lookup_delay"`
	RequestTimeout     string `yaml:"request_timeout"`
	DownloadDir        string `yaml:"download_dir"`
}

// AsYaml renders settings in the same shape the settings file uses.
func (it *Settings) AsYaml() ([]byte, error) {
	return yaml.Marshal(&document{
		AdminURL:           it.AdminURL,
		AppURL:             it.AppURL,
		CompositoryDnaHash: it.CompositoryDnaHash,
		LookupAttempts:     it.LookupAttempts,
		LookupDelay:        it.LookupDelay.String(),
		RequestTimeout:     it.RequestTimeout.String(),
		DownloadDir:        it.DownloadDir,
	})
}

// WriteFile stores settings as yaml, refusing to overwrite unless force is set.
func (it *Settings) WriteFile(filename string, force bool) error {
	if _, err := os.Stat(filename); err == nil && !force {
		return fmt.Errorf("settings file %s already exists", filename)
	}
	content, err := it.AsYaml()
	if err != nil {
		return err
	}
	if _, err := common.EnsureDirectory(filepath.Dir(filename)); err != nil {
		return err
	}
	return os.WriteFile(filename, content, 0o640)
}
