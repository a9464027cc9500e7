package register

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/modalkit/internal/input/key"
)

// persistedRegister is the YAML form of a Payload.
type persistedRegister struct {
	Text string `yaml:"text"`
	Wise string `yaml:"wise"`
	Keys string `yaml:"keys,omitempty"`
}

// persistedData is the root of a register file.
type persistedData struct {
	Version   int                          `yaml:"version"`
	SavedAt   time.Time                    `yaml:"saved_at"`
	Registers map[string]persistedRegister `yaml:"registers"`
}

const currentVersion = 1

// Save writes the shared registers to path.
// The file is written atomically using a temporary file and rename.
func Save(shared *Shared, path string) error {
	snapshot := shared.Snapshot()

	data := persistedData{
		Version:   currentVersion,
		SavedAt:   time.Now().UTC(),
		Registers: make(map[string]persistedRegister, len(snapshot)),
	}
	for name, p := range snapshot {
		if p.IsEmpty() {
			continue
		}
		reg := persistedRegister{Text: p.Text, Wise: p.Wise.String()}
		if p.Keys != nil {
			reg.Keys = p.Keys.String()
		}
		data.Registers[string(name)] = reg
	}

	out, err := yaml.Marshal(&data)
	if err != nil {
		return fmt.Errorf("failed to marshal registers: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, out, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads a register file into shared, replacing its content.
// A missing file is not an error.
func Load(shared *Shared, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read registers file: %w", err)
	}

	var data persistedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to unmarshal registers: %w", err)
	}
	if data.Version > currentVersion {
		return fmt.Errorf("unsupported registers file version: %d (max supported: %d)",
			data.Version, currentVersion)
	}

	regs := make(map[rune]Payload, len(data.Registers))
	for name, reg := range data.Registers {
		runes := []rune(name)
		if len(runes) != 1 || !IsShared(runes[0]) || IsAppend(runes[0]) {
			continue
		}
		wise, ok := ParseWise(reg.Wise)
		if !ok {
			return fmt.Errorf("register %q: unknown wise-type %q", name, reg.Wise)
		}
		p := Payload{Text: reg.Text, Wise: wise}
		if reg.Keys != "" {
			keys, err := key.Decode(reg.Keys)
			if err != nil {
				return fmt.Errorf("register %q: %w", name, err)
			}
			p.Keys = keys
		}
		regs[runes[0]] = p
	}

	shared.Replace(regs)
	return nil
}
