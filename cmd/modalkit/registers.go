package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/modalkit/internal/input"
	"github.com/dshills/modalkit/internal/input/register"
)

var (
	regFile string
	regJSON bool
)

var registersCmd = &cobra.Command{
	Use:   "registers [NAMES]",
	Short: "List the persisted registers",
	Long: `Print the registers saved in the register file, in the format of
:registers. NAMES restricts the listing to the given register names.

Examples:
  modalkit registers
  modalkit registers abq --file ~/.local/state/modalkit/registers.yaml

  # As JSON
  modalkit registers --json | jq '.registers[].name'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := regFile
		if path == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path = cfg.Registers.Path
		}
		if path == "" {
			return errors.New("no register file: set registers.path or use --file")
		}

		shared := register.NewShared()
		if err := register.Load(shared, path); err != nil {
			return err
		}
		names := ""
		if len(args) == 1 {
			names = args[0]
		}

		store := register.NewStore(shared)
		out := cmd.OutOrStdout()
		if regJSON {
			data, err := registersJSON(store, names)
			if err != nil {
				return err
			}
			_, err = out.Write(pretty.Pretty(data))
			return err
		}
		fmt.Fprintln(out, "Type Name Content")
		for _, line := range input.FormatRegisters(store, names) {
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

// registersJSON encodes the non-empty registers as
// {"registers": [{"name", "wise", "text", "keys"}...]}.
func registersJSON(store *register.Store, names string) ([]byte, error) {
	data := []byte(`{"registers":[]}`)
	for _, en := range store.All() {
		if names != "" && !strings.ContainsRune(names, en.Name) {
			continue
		}
		entry := map[string]any{
			"name": string(en.Name),
			"wise": en.Payload.Wise.String(),
			"text": en.Payload.Text,
		}
		if en.Payload.Keys != nil {
			entry["keys"] = en.Payload.Keys.String()
		}
		var err error
		if data, err = sjson.SetBytes(data, "registers.-1", entry); err != nil {
			return nil, fmt.Errorf("encoding register %q: %w", en.Name, err)
		}
	}
	return data, nil
}

func init() {
	registersCmd.Flags().BoolVar(&regJSON, "json", false, "print JSON")
	registersCmd.Flags().StringVarP(&regFile, "file", "f", "", "register file (default: registers.path of the config)")
	rootCmd.AddCommand(registersCmd)
}
