package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/modalkit/internal/input/register"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("MODALKIT_CONFIG", filepath.Join(t.TempDir(), "none.toml"))
	cfgFile, logLevel, regFile, regJSON = "", "", "", false
	runKeys, runQuiet, runStdin, runDiff = nil, false, false, false

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestKeysCommand(t *testing.T) {
	out, _, err := execute(t, "", "keys", "<c-X>", "<S-a>", "<bslash>")
	require.NoError(t, err)
	assert.Equal(t, "<C-x>\nA\n\\\n", out)
}

func TestRunStdin(t *testing.T) {
	out, _, err := execute(t, "one two\nthree", "run", "--stdin", "--keys", "dw", "--keys", "jx")
	require.NoError(t, err)
	assert.Equal(t, "two\nhree", out)
}

func TestRunDiff(t *testing.T) {
	out, _, err := execute(t, "alpha\nbeta\n", "run", "--stdin", "--diff", "--keys", "jdd")
	require.NoError(t, err)
	assert.Contains(t, out, "-beta\n")
	assert.NotContains(t, out, "-alpha")

	out, _, err = execute(t, "same\n", "run", "--stdin", "--diff", "--keys", "j")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRunWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha\nbeta"), 0o644))

	out, _, err := execute(t, "", "run", "-q", "-k", "ddp", "-k", ":w<CR>", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "beta\nalpha", string(data))
}

func TestRunReportsErrors(t *testing.T) {
	out, errOut, err := execute(t, "abc", "run", "--stdin", "--keys", ":frobnicate<CR>", "--keys", "x")
	assert.Error(t, err)
	assert.Contains(t, errOut, "frobnicate")
	assert.Equal(t, "bc", out)
}

func TestRunBadLogLevel(t *testing.T) {
	_, _, err := execute(t, "", "run", "--log-level", "loud", "--stdin")
	assert.ErrorContains(t, err, "unknown log level")
}

func TestRegistersCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registers.yaml")
	shared := register.NewShared()
	shared.Set('a', register.Payload{Text: "hello", Wise: register.Charwise})
	shared.Set('b', register.Payload{Text: "world", Wise: register.Charwise})
	require.NoError(t, register.Save(shared, path))

	out, _, err := execute(t, "", "registers", "--file", path, "a")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Type Name Content", lines[0])
	assert.Contains(t, lines[1], `"a`)
	assert.Contains(t, lines[1], "hello")

	_, _, err = execute(t, "", "registers")
	assert.ErrorContains(t, err, "no register file")
}

func TestRegistersJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registers.yaml")
	shared := register.NewShared()
	shared.Set('a', register.Payload{Text: "one\n", Wise: register.Linewise})
	shared.Set('q', register.Payload{Text: "dw", Wise: register.Charwise})
	require.NoError(t, register.Save(shared, path))

	out, _, err := execute(t, "", "registers", "--json", "--file", path, "aq")
	require.NoError(t, err)
	require.True(t, gjson.Valid(out), out)

	regs := gjson.Get(out, "registers")
	require.Len(t, regs.Array(), 2)
	a := gjson.Get(out, `registers.#(name=="a")`)
	assert.Equal(t, "one\n", a.Get("text").String())
	assert.Equal(t, register.Linewise.String(), a.Get("wise").String())
	assert.Equal(t, "dw", gjson.Get(out, `registers.#(name=="q").text`).String())
}
