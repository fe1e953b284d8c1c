package token

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/gconf"
)

const confPkg = "token"

// Configuration of the token extension.
type Configuration struct {
	Metadata *weave.Metadata `json:"metadata"`
	// AccountRent is the native amount the payer deposits at the address
	// of every new account. It is returned when the account is closed.
	AccountRent uint64 `json:"account_rent"`
}

var _ gconf.Configuration = (*Configuration)(nil)

// Marshal serializes the configuration with amino.
func (c *Configuration) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(c)
}

// Unmarshal loads the configuration from its amino representation.
func (c *Configuration) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, c)
}

// Validate returns an error if the configuration cannot be saved.
func (c *Configuration) Validate() error {
	return errors.Wrap(c.Metadata.Validate(), "metadata")
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, confPkg, &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}
