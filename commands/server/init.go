package server

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

const flagChainID = "chain-id"

// GenOptions generates the app_state of the genesis file from the command
// line arguments. This is application-specific
type GenOptions func(cmd *cobra.Command, args []string) (json.RawMessage, error)

// InitCmd will initialize the genesis file, along with proper app_state.
// A genesis written by `tendermint init` is kept and only its app_state
// is replaced. The app_state is validated with ini before being written.
func InitCmd(gen GenOptions, ini weave.Initializer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the genesis file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := Logger(cmd)
			if err != nil {
				return err
			}
			chainID, err := cmd.Flags().GetString(flagChainID)
			if err != nil {
				return err
			}
			options, err := gen(cmd, args)
			if err != nil {
				return err
			}
			if err := validateState(ini, options); err != nil {
				return err
			}

			genFile := GenesisFile(Home(cmd))
			if err := addGenesisOptions(genFile, chainID, options); err != nil {
				return err
			}
			logger.Info("Wrote genesis file", "path", genFile)
			return nil
		},
	}
	cmd.Flags().String(flagChainID, "local-escrow", "chain id used when no genesis exists yet")
	return cmd
}

func fileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}

// GenesisDoc involves some tendermint-specific structures we don't
// want to parse, so we just grab it into a raw object format,
// so we can add one line.
type GenesisDoc map[string]json.RawMessage

func addGenesisOptions(filename, chainID string, options json.RawMessage) error {
	doc := make(GenesisDoc)
	if fileExists(filename) {
		bz, err := ioutil.ReadFile(filename)
		if err != nil {
			return errors.Wrapf(errors.ErrInput, "read genesis: %s", err)
		}
		if err := json.Unmarshal(bz, &doc); err != nil {
			return errors.Wrapf(errors.ErrInput, "parse genesis: %s", err)
		}
	} else {
		if !weave.IsValidChainID(chainID) {
			return errors.Wrapf(errors.ErrInput, "chain id %q", chainID)
		}
		if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
			return errors.Wrapf(errors.ErrInput, "genesis directory: %s", err)
		}
		var err error
		if doc["chain_id"], err = json.Marshal(chainID); err != nil {
			return err
		}
		if doc["genesis_time"], err = json.Marshal(time.Now().UTC()); err != nil {
			return err
		}
	}

	doc["app_state"] = options
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(filename, out, 0600)
}
