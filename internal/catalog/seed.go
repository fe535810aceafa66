package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/sandevgo/storedash/internal/core"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the on-disk format of a reference catalog.
type Seed struct {
	Products []core.Product `yaml:"products"`
	Rules    core.RuleTable `yaml:"rules"`
}

func DefaultSeed() (*Seed, error) {
	return ParseSeed(defaultSeed)
}

func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if len(s.Products) == 0 {
		return nil, fmt.Errorf("%w: seed has no products", ErrCorrupt)
	}
	return &s, nil
}

func ReadSeed(r io.Reader) (*Seed, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(data)
}

func ReadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSeed(f)
}

// Store validates the seed by building a store from it.
func (s *Seed) Store() (*Store, error) {
	return New(s.Products, s.Rules)
}
