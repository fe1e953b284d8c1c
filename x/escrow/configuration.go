package escrow

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/gconf"
)

const confPkg = "escrow"

// Configuration of the escrow extension.
type Configuration struct {
	Metadata *weave.Metadata `json:"metadata"`
	// RecordRent is the native amount the maker deposits at the escrow
	// address when opening. It is returned to the maker when the escrow is
	// settled or cancelled.
	RecordRent uint64 `json:"record_rent"`
	// AllowZeroAmountY allows opening an escrow that asks nothing in
	// return.
	AllowZeroAmountY bool `json:"allow_zero_amount_y"`
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

// Initializer fulfils the Initializer interface to load the configuration
// from the genesis file
type Initializer struct{}

var _ weave.Initializer = Initializer{}

// FromGenesis saves the escrow configuration.
func (Initializer) FromGenesis(opts weave.Options, db weave.KVStore) error {
	return gconf.InitConfig(db, opts, confPkg, &Configuration{})
}
