package template

import (
	"encoding/hex"
	"errors"
	"fmt"
	"github.com/fernandosanchezjr/gocpuminer/miner"
	"github.com/fernandosanchezjr/gocpuminer/utils"
	"gopkg.in/yaml.v2"
	"io/ioutil"
)

var ErrShortHeader = errors.New("template header too short")
var ErrEmptyTarget = errors.New("template target is empty")

// Template is one unit of block data to mine: an opaque header whose first
// bytes carry the randomness, and the target its hash must not exceed.
type Template struct {
	Header []byte
	Target []byte
}

type rawTemplate struct {
	Header string `yaml:"header"`
	Target string `yaml:"target"`
}

func (t *Template) String() string {
	return fmt.Sprintf("header %d bytes target %s difficulty %s", len(t.Header), hex.EncodeToString(t.Target),
		utils.TargetDifficulty(t.Target))
}

func Parse(data []byte) (*Template, error) {
	var raw rawTemplate
	var err error
	if err = yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	t := &Template{}
	if t.Header, err = hex.DecodeString(raw.Header); err != nil {
		return nil, fmt.Errorf("template header: %w", err)
	}
	if t.Target, err = hex.DecodeString(raw.Target); err != nil {
		return nil, fmt.Errorf("template target: %w", err)
	}
	if len(t.Header) < miner.RandomnessSize {
		return nil, ErrShortHeader
	}
	if len(t.Target) == 0 {
		return nil, ErrEmptyTarget
	}
	return t, nil
}

func Load(filePath string) (*Template, error) {
	data, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
