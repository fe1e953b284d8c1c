package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/iov-one/weave-escrow/commands/server"
	"github.com/iov-one/weave-escrow/crypto"
	"github.com/iov-one/weave-escrow/errors"
)

var isKeyName = regexp.MustCompile(`^[a-zA-Z0-9_\-]{1,32}$`).MatchString

func keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the private keys kept in the home directory",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "new <name>",
			Short: "Generate a new ed25519 key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				key := crypto.GenPrivKeyEd25519()
				if err := saveKey(server.Home(cmd), args[0], key); err != nil {
					return err
				}
				return printKey(cmd, args[0], key)
			},
		},
		&cobra.Command{
			Use:   "show <name>",
			Short: "Print the address of a key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				key, err := loadKey(server.Home(cmd), args[0])
				if err != nil {
					return err
				}
				return printKey(cmd, args[0], key)
			},
		},
	)
	return cmd
}

func keyFile(home, name string) (string, error) {
	if !isKeyName(name) {
		return "", errors.Wrapf(errors.ErrInput, "key name %q", name)
	}
	return filepath.Join(home, "keys", name+".json"), nil
}

func saveKey(home, name string, key crypto.PrivateKey) error {
	path, err := keyFile(home, name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return errors.Wrapf(errors.ErrDuplicate, "key %q", name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrapf(errors.ErrInput, "key directory: %s", err)
	}
	raw, err := json.Marshal(key)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, raw, 0600)
}

func loadKey(home, name string) (crypto.PrivateKey, error) {
	path, err := keyFile(home, name)
	if err != nil {
		return nil, err
	}
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "key %q", name)
	}
	var key crypto.PrivateKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return nil, errors.Wrapf(err, "key %q", name)
	}
	return key, nil
}

func printKey(cmd *cobra.Command, name string, key crypto.PrivateKey) error {
	addr := key.PublicKey().Address()
	b32, err := addr.Bech32()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", name, addr, b32)
	return nil
}
