package main

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"

	"github.com/tonkit/cellkit/address"
	"github.com/tonkit/cellkit/tvm/cell"
)

type executor struct {
	Out *bytes.Buffer
	Err *bytes.Buffer

	exitCode int
}

func newExecutor(t *testing.T) *executor {
	e := &executor{
		Out:      new(bytes.Buffer),
		Err:      new(bytes.Buffer),
		exitCode: -1,
	}

	oldExiter, oldErrWriter := cli.OsExiter, cli.ErrWriter
	cli.OsExiter = func(code int) {
		e.exitCode = code
	}
	cli.ErrWriter = e.Err
	t.Cleanup(func() {
		cli.OsExiter = oldExiter
		cli.ErrWriter = oldErrWriter
	})
	return e
}

func (e *executor) run(args ...string) error {
	e.Out.Reset()
	e.Err.Reset()
	e.exitCode = -1

	app := newApp()
	app.Writer = e.Out
	app.ErrWriter = e.Err
	return app.Run(append([]string{"cellkit"}, args...))
}

// Run runs command and checks that there were no errors.
func (e *executor) Run(t *testing.T, args ...string) string {
	require.NoError(t, e.run(args...))
	require.Equal(t, -1, e.exitCode, "exit was called")
	return e.Out.String()
}

// RunWithError runs command and checks that it exits with error.
func (e *executor) RunWithError(t *testing.T, args ...string) {
	require.Error(t, e.run(args...))
	require.Equal(t, 1, e.exitCode)
}

func testTree() *cell.Cell {
	leaf := cell.BeginCell().MustStoreUInt(0xBEEF, 16).EndCell()
	return cell.BeginCell().MustStoreUInt(0xAB, 8).MustStoreRef(leaf).EndCell()
}

func TestBOCDecode(t *testing.T) {
	e := newExecutor(t)
	root := testTree()
	boc := hex.EncodeToString(root.ToBOC())

	out := e.Run(t, "boc", "decode", boc)
	require.Contains(t, out, fmt.Sprintf("root 0: ordinary, hash %X, depth 1", root.Hash()))
	require.Contains(t, out, "BEEF")

	t.Run("base64", func(t *testing.T) {
		out := e.Run(t, "boc", "decode", base64.StdEncoding.EncodeToString(root.ToBOC()))
		require.Contains(t, out, fmt.Sprintf("%X", root.Hash()))
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tree.boc")
		require.NoError(t, os.WriteFile(path, root.ToBOC(), 0o644))

		out := e.Run(t, "boc", "decode", "--in", path)
		require.Contains(t, out, fmt.Sprintf("%X", root.Hash()))
	})

	t.Run("no input", func(t *testing.T) {
		e.RunWithError(t, "boc", "decode")
	})

	t.Run("garbage", func(t *testing.T) {
		e.RunWithError(t, "boc", "decode", "not a boc")
	})

	t.Run("bad boc", func(t *testing.T) {
		e.RunWithError(t, "boc", "decode", "b5ee9c72")
	})
}

func TestBOCEncode(t *testing.T) {
	e := newExecutor(t)
	root := testTree()
	boc := hex.EncodeToString(root.ToBOC())

	out := e.Run(t, "boc", "encode", boc)
	require.Equal(t, hex.EncodeToString(cell.ToBOCWithOptions([]*cell.Cell{root}, cell.BOCOptions{WithCRC32C: true}))+"\n", out)

	out = e.Run(t, "boc", "encode", "--cache-bits", "--base64", boc)
	data := cell.ToBOCWithOptions([]*cell.Cell{root}, cell.BOCOptions{WithCRC32C: true, WithIndex: true, WithCacheBits: true})
	require.Equal(t, base64.StdEncoding.EncodeToString(data)+"\n", out)

	t.Run("config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cellkit.yml")
		require.NoError(t, os.WriteFile(path, []byte("BOC:\n  WithCRC32C: false\n  WithIndex: true\n"), 0o644))

		out := e.Run(t, "--config", path, "boc", "encode", boc)
		data := cell.ToBOCWithOptions([]*cell.Cell{root}, cell.BOCOptions{WithIndex: true})
		require.Equal(t, hex.EncodeToString(data)+"\n", out)

		parsed, err := cell.FromBOC(data)
		require.NoError(t, err)
		require.Equal(t, root.Hash(), parsed.Hash())
	})

	t.Run("bad config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cellkit.yml")
		require.NoError(t, os.WriteFile(path, []byte("Logger:\n  LogLevel: loud\n"), 0o644))

		e.RunWithError(t, "--config", path, "boc", "encode", boc)
	})

	t.Run("missing config", func(t *testing.T) {
		e.RunWithError(t, "--config", filepath.Join(t.TempDir(), "none.yml"), "boc", "encode", boc)
	})
}

func TestHash(t *testing.T) {
	e := newExecutor(t)
	root := testTree()
	other := cell.BeginCell().EndCell()

	out := e.Run(t, "--debug", "hash", hex.EncodeToString(cell.ToBOCWithFlags([]*cell.Cell{root, other}, true)))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Equal(t, []string{
		fmt.Sprintf("root 0 level 0: %X depth 1", root.Hash()),
		"root 1 level 0: 96A296D224F285C67BEE93C30F8A309157F0DAA35DC5B87E410B78630A09CFC7 depth 0",
	}, lines)
}

func TestHash_MerkleProof(t *testing.T) {
	e := newExecutor(t)
	root := testTree()

	pruned, err := cell.CreatePrunedBranch(root)
	require.NoError(t, err)
	out := e.Run(t, "hash", hex.EncodeToString(pruned.ToBOC()))

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, fmt.Sprintf("root 0 level 0: %X depth 1", root.Hash()), lines[0])
	require.Equal(t, fmt.Sprintf("root 0 level 1: %X depth %d", pruned.Hash(1), pruned.Depth(1)), lines[1])
}

func TestAddr(t *testing.T) {
	e := newExecutor(t)
	raw := address.MustParseAddr("EQC6KV4zs8TJtSZapOrRFmqSkxzpq-oSCoxekQRKElf4nC1I").StringRaw()

	for _, in := range []string{"UQC6KV4zs8TJtSZapOrRFmqSkxzpq-oSCoxekQRKElf4nHCN", raw} {
		out := e.Run(t, "addr", in)
		require.Contains(t, out, "raw:            "+raw)
		require.Contains(t, out, "bounceable:     EQC6KV4zs8TJtSZapOrRFmqSkxzpq-oSCoxekQRKElf4nC1I")
		require.Contains(t, out, "non-bounceable: UQC6KV4zs8TJtSZapOrRFmqSkxzpq-oSCoxekQRKElf4nHCN")
		require.Contains(t, out, "testnet:        kQC6KV4zs8TJtSZapOrRFmqSkxzpq-oSCoxekQRKElf4nJbC")
		require.Contains(t, out, "testnet non-b.: 0QC6KV4zs8TJtSZapOrRFmqSkxzpq-oSCoxekQRKElf4nMsH")
	}

	t.Run("var", func(t *testing.T) {
		in := "1000:" + strings.Repeat("12", 32)
		out := e.Run(t, "addr", in)
		require.Equal(t, "raw:            "+in+"\n", out)
	})

	t.Run("bad checksum", func(t *testing.T) {
		e.RunWithError(t, "addr", "EQCTDVUzmAq6EfzYGEWpVOv16yo-H5Vw3B0rktcidz_ULOUB")
	})

	t.Run("empty", func(t *testing.T) {
		e.RunWithError(t, "addr")
	})
}

func TestDict(t *testing.T) {
	e := newExecutor(t)

	d := cell.NewDict(8)
	require.NoError(t, d.SetIntKey(big.NewInt(2), cell.BeginCell().MustStoreUInt(7, 16).EndCell()))
	require.NoError(t, d.SetIntKey(big.NewInt(1), cell.BeginCell().MustStoreUInt(7, 5).MustStoreRef(cell.BeginCell().EndCell()).EndCell()))

	expected := "01: 5 bits, 1 refs\n02: 16 bits, 0 refs\ntotal: 2\n"

	holder := cell.BeginCell().MustStoreDict(d).EndCell()
	out := e.Run(t, "dict", "--key-bits", "8", hex.EncodeToString(holder.ToBOC()))
	require.Equal(t, expected, out)

	out = e.Run(t, "dict", "-k", "8", "--inline", hex.EncodeToString(d.MustToCell().ToBOC()))
	require.Equal(t, expected, out)

	t.Run("empty", func(t *testing.T) {
		out := e.Run(t, "dict", "-k", "8", hex.EncodeToString(cell.BeginCell().MustStoreBoolBit(false).EndCell().ToBOC()))
		require.Equal(t, "total: 0\n", out)
	})

	t.Run("no key size", func(t *testing.T) {
		e.RunWithError(t, "dict", hex.EncodeToString(holder.ToBOC()))
	})

	t.Run("not a dict", func(t *testing.T) {
		// ref holds 0xBEEF, long label of 15 bits does not fit into 8 bit key
		e.RunWithError(t, "dict", "-k", "8", hex.EncodeToString(testTree().ToBOC()))
	})
}
