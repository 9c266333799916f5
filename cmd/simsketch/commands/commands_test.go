package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/simsketch/cmd/simsketch/commands"
	"github.com/Sumatoshi-tech/simsketch/pkg/sigdoc"
)

const (
	quickFox = "the quick brown fox jumps over the lazy dog near the river bank"
	lazyFox  = "the quick brown fox jumps over the lazy cat near the river bank"
	lorem    = "lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod"
)

// execute runs the root command with args and stdin, isolated from any
// config file in the working or home directory.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	var out bytes.Buffer

	root := commands.NewRootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)

	err := root.Execute()

	return out.String(), err
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	return dir
}

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	root := commands.NewRootCommand()

	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}

	for _, want := range []string{"signature", "compare", "serve", "mcp", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "simsketch "))
}

func TestSignatureCommand_Stdin(t *testing.T) {
	out, err := execute(t, quickFox, "signature", "--seed", "42", "-n", "16")
	require.NoError(t, err)

	docs, err := sigdoc.Decode([]byte(out))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "-", docs[0].Source)
	assert.Equal(t, 3, docs[0].ShingleSize)
	assert.Equal(t, 16, docs[0].HashCount)
	assert.Len(t, docs[0].Values, 16)
}

func TestSignatureCommand_Deterministic(t *testing.T) {
	first, err := execute(t, quickFox, "signature", "--seed", "7")
	require.NoError(t, err)

	second, err := execute(t, quickFox, "signature", "--seed", "7")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSignatureCommand_YAMLFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.txt":             quickFox,
		"b.txt":             lorem,
		"vendor/skip.txt":   lazyFox,
		".hidden/skip.txt":  lazyFox,
		"bin.dat":           "abc\x00def",
		"nested/deep/c.txt": lazyFox,
	})

	out, err := execute(t, "", "signature", "--seed", "1", "-f", "yaml", dir)
	require.NoError(t, err)

	docs, err := sigdoc.Decode([]byte(out))
	require.NoError(t, err)
	require.Len(t, docs, 3)

	for _, doc := range docs {
		assert.NotContains(t, doc.Source, "vendor")
		assert.NotContains(t, doc.Source, ".hidden")
	}
}

func TestSignatureCommand_ShortDocumentFails(t *testing.T) {
	_, err := execute(t, "two words", "signature", "--seed", "1")
	require.ErrorIs(t, err, commands.ErrNoSignatures)
}

func TestSignatureCommand_ShortDocumentSkipped(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"long.txt":  quickFox,
		"short.txt": "hi",
	})

	out, err := execute(t, "", "signature", "--seed", "1", dir)
	require.NoError(t, err)

	docs, err := sigdoc.Decode([]byte(out))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "long.txt", filepath.Base(docs[0].Source))
}

func TestSignatureCommand_UnknownFormat(t *testing.T) {
	_, err := execute(t, quickFox, "signature", "-f", "xml")
	require.ErrorIs(t, err, sigdoc.ErrUnknownFormat)
}

func TestSignatureCommand_InvalidShingleSize(t *testing.T) {
	_, err := execute(t, quickFox, "signature", "-k", "0")
	require.Error(t, err)
}

func TestSignatureCommand_ConfigFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"cfg.yaml": "sketch:\n  shingle_size: 2\n  seeds: [1, 2, 3, 4]\n  hash_count: 4\n",
	})

	out, err := execute(t, quickFox, "signature", "--config", filepath.Join(dir, "cfg.yaml"))
	require.NoError(t, err)

	docs, err := sigdoc.Decode([]byte(out))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, 2, docs[0].ShingleSize)
	assert.Equal(t, []uint32{1, 2, 3, 4}, docs[0].Seeds)
}

func TestCompareCommand_Files(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.txt": quickFox,
		"b.txt": quickFox,
		"c.txt": lorem,
	})

	out, err := execute(t, "", "compare", "--seed", "3", "-n", "64", "--no-color", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "c.txt")
	assert.Contains(t, out, "Total: 1 pairs")
	assert.Contains(t, out, "3 documents, 3 pairs")
}

func TestCompareCommand_AllPairs(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.txt": quickFox,
		"b.txt": lorem,
	})

	out, err := execute(t, "", "compare", "--seed", "3", "--all", "--no-color", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 1 pairs")
}

func TestCompareCommand_TooFewDocuments(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.txt": quickFox})

	_, err := execute(t, "", "compare", "--seed", "3", dir)
	require.Error(t, err)
}

func TestCompareCommand_InvalidThreshold(t *testing.T) {
	_, err := execute(t, "", "compare", "--threshold", "1.5", "a.txt")
	require.Error(t, err)
}

func TestCompareCommand_Plot(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.txt": quickFox,
		"b.txt": lazyFox,
	})
	plot := filepath.Join(t.TempDir(), "report.html")

	_, err := execute(t, "", "compare", "--seed", "3", "--no-color", "--plot", plot, dir)
	require.NoError(t, err)

	html, err := os.ReadFile(plot)
	require.NoError(t, err)
	assert.Contains(t, string(html), "echarts")
}

func TestCompareCommand_Signatures(t *testing.T) {
	dir := t.TempDir()

	for name, text := range map[string]string{"a": quickFox, "b": lazyFox} {
		out, err := execute(t, text, "signature", "--seed", "9", "-n", "32")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(out), 0o600))
	}

	out, err := execute(t, "", "compare", "--signatures", "--no-color",
		filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "2 documents, 1 pairs")
}

func TestCompareCommand_SignaturesIncomparable(t *testing.T) {
	dir := t.TempDir()

	for name, seed := range map[string]string{"a": "1", "b": "2"} {
		out, err := execute(t, quickFox, "signature", "--seed", seed)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(out), 0o600))
	}

	_, err := execute(t, "", "compare", "--signatures",
		filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json"))
	require.ErrorIs(t, err, sigdoc.ErrIncomparable)
}

func TestServeCommand_Flags(t *testing.T) {
	t.Parallel()

	cmd := commands.NewServeCommand()

	for _, name := range []string{"host", "port", "seed", "shingle-size", "hash-count", "config"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestServeCommand_InvalidPort(t *testing.T) {
	_, err := execute(t, "", "serve", "--port", "70000")
	require.Error(t, err)
}

func TestMCPCommand_Flags(t *testing.T) {
	t.Parallel()

	cmd := commands.NewMCPCommand()
	assert.Equal(t, "mcp", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("verbose"))
}
