package gmcdump

import (
	"fmt"
	"os"

	"github.com/mdouchement/gmcdump/gmc"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Debug     bool     `yaml:"debug"`
	Port      string   `yaml:"port"` // Empty means USB bridge auto-detection.
	Timeout   Duration `yaml:"timeout"`
	FlashSize int      `yaml:"flash_size"`
	BlockSize int      `yaml:"block_size"`
}

func DefaultConfig() Config {
	return Config{
		Timeout:   Duration{gmc.DefaultTimeout},
		FlashSize: gmc.DefaultFlashSize,
		BlockSize: gmc.DefaultBlockSize,
	}
}

func Load(path string) (Config, error) {
	c := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return c, err
	}
	defer f.Close()

	codec := yaml.NewDecoder(f)
	err = codec.Decode(&c)
	if err != nil {
		return c, err
	}

	return c, c.validate()
}

// LoadOrDefault loads the configfile, falling back to the defaults when it
// does not exist.
func LoadOrDefault(path string) (Config, error) {
	c, err := Load(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return c, err
}

func (c Config) validate() error {
	if c.Timeout.Duration <= 0 {
		return fmt.Errorf("timeout: must be positive, got %s", c.Timeout)
	}
	if c.FlashSize <= 0 {
		return fmt.Errorf("flash_size: must be positive, got %d", c.FlashSize)
	}
	if c.BlockSize <= 0 || c.BlockSize > gmc.MaxFlashReadLen {
		return fmt.Errorf("block_size: must be in range [1,%d], got %d", gmc.MaxFlashReadLen, c.BlockSize)
	}
	return nil
}
