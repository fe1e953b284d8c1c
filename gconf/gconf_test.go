package gconf

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store"
	"github.com/iov-one/weave-escrow/weavetest/assert"
	amino "github.com/tendermint/go-amino"
)

var cdc = amino.NewCodec()

type myConfig struct {
	Rent  uint64        `json:"rent"`
	Owner weave.Address `json:"owner"`
}

func (c *myConfig) Marshal() ([]byte, error)   { return cdc.MarshalBinaryBare(c) }
func (c *myConfig) Unmarshal(raw []byte) error { return cdc.UnmarshalBinaryBare(raw, c) }

func (c *myConfig) Validate() error {
	if c.Rent == 0 {
		return errors.Wrap(errors.ErrAmount, "rent")
	}
	return c.Owner.Validate()
}

func TestSaveLoad(t *testing.T) {
	owner := weave.NewAddress([]byte("owner"))

	cases := map[string]struct {
		Conf        *myConfig
		WantSaveErr *errors.Error
	}{
		"valid": {
			Conf: &myConfig{Rent: 5, Owner: owner},
		},
		"zero rent cannot be saved": {
			Conf:        &myConfig{Owner: owner},
			WantSaveErr: errors.ErrAmount,
		},
		"invalid address cannot be saved": {
			Conf:        &myConfig{Rent: 1, Owner: weave.Address("too short")},
			WantSaveErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			if err := Save(db, "mypkg", tc.Conf); !tc.WantSaveErr.Is(err) {
				t.Fatalf("unexpected save error: %s", err)
			}
			if tc.WantSaveErr != nil {
				return
			}
			var got myConfig
			assert.Nil(t, Load(db, "mypkg", &got))
			assert.Equal(t, *tc.Conf, got)
		})
	}
}

func TestLoadMissing(t *testing.T) {
	var got myConfig
	assert.IsErr(t, errors.ErrNotFound, Load(store.MemStore(), "mypkg", &got))
}

func TestInitConfig(t *testing.T) {
	owner := weave.NewAddress([]byte("owner"))
	genesis := `{"conf": {"mypkg": {"rent": 7, "owner": "` + owner.String() + `"}}}`

	var opts weave.Options
	if err := json.Unmarshal([]byte(genesis), &opts); err != nil {
		t.Fatalf("cannot unmarshal genesis: %s", err)
	}

	db := store.MemStore()
	assert.Nil(t, InitConfig(db, opts, "mypkg", &myConfig{}))

	var got myConfig
	assert.Nil(t, Load(db, "mypkg", &got))
	assert.Equal(t, myConfig{Rent: 7, Owner: owner}, got)

	assert.IsErr(t, errors.ErrNotFound, InitConfig(db, opts, "otherpkg", &myConfig{}))
}
