package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/weave-escrow/errors"
)

func run(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetArgs(append(args, "--home", home, "--log-level", "none"))
	err := root.Execute()
	return strings.TrimSpace(out.String()), err
}

func mustRun(t *testing.T, home string, args ...string) string {
	t.Helper()
	out, err := run(t, home, args...)
	require.NoError(t, err, "%v", args)
	return out
}

func TestOpenAndCancel(t *testing.T) {
	home, err := ioutil.TempDir("", "escrowd")
	require.NoError(t, err)
	defer os.RemoveAll(home)

	mustRun(t, home, "keys", "new", "maker")
	_, err = run(t, home, "keys", "new", "maker")
	assert.True(t, errors.ErrDuplicate.Is(err))
	show := mustRun(t, home, "keys", "show", "maker")
	assert.True(t, strings.HasPrefix(show, "maker\t"))

	mustRun(t, home, "init", "maker",
		"--tickers", "AAA,BBB",
		"--supply", "500",
		"--native", "1000",
		"--account-rent", "10",
		"--record-rent", "7")
	assert.Equal(t, "500", mustRun(t, home, "query", "balance", "--owner", "maker", "--ticker", "AAA"))
	assert.Equal(t, "1000", mustRun(t, home, "query", "balance", "--owner", "maker"))

	out := mustRun(t, home, "tx", "open", "--key", "maker",
		"--seed", "3",
		"--mint-x", "AAA", "--mint-y", "BBB",
		"--amount-x", "120", "--amount-y", "40")
	assert.Contains(t, out, "action=open")
	assert.Equal(t, "380", mustRun(t, home, "query", "balance", "--owner", "maker", "--ticker", "AAA"))
	// record and vault rent
	assert.Equal(t, "983", mustRun(t, home, "query", "balance", "--owner", "maker"))

	out = mustRun(t, home, "query", "escrow", "--maker", "maker", "--seed", "3")
	assert.Contains(t, out, `"amount_x": 120`)
	assert.Contains(t, out, `"amount_y": 40`)

	// the same seed cannot be opened twice
	_, err = run(t, home, "tx", "open", "--key", "maker",
		"--seed", "3",
		"--mint-x", "AAA", "--mint-y", "BBB",
		"--amount-x", "1", "--amount-y", "1")
	assert.True(t, errors.ErrDuplicate.Is(err), "%+v", err)

	out = mustRun(t, home, "tx", "cancel", "--key", "maker", "--seed", "3")
	assert.Contains(t, out, "action=cancel")
	assert.Equal(t, "500", mustRun(t, home, "query", "balance", "--owner", "maker", "--ticker", "AAA"))
	assert.Equal(t, "1000", mustRun(t, home, "query", "balance", "--owner", "maker"))

	_, err = run(t, home, "query", "escrow", "--maker", "maker", "--seed", "3")
	assert.True(t, errors.ErrNotFound.Is(err), "%+v", err)
}

func TestLedgerRequiresGenesis(t *testing.T) {
	home, err := ioutil.TempDir("", "escrowd")
	require.NoError(t, err)
	defer os.RemoveAll(home)

	mustRun(t, home, "keys", "new", "maker")
	_, err = run(t, home, "query", "balance", "--owner", "maker")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "dev", mustRun(t, "", "version"))
}
