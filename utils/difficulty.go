package utils

import (
	"github.com/dustin/go-humanize"
	"math/big"
	"strconv"
)

const MaxRawDifficulty = 1000

// MaxTarget is the largest 256 bit target, the one any hash meets.
var MaxTarget = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

type Difficulty float64

// TargetDifficulty is MaxTarget divided by target, read as a big-endian 256
// bit number. Shorter targets are the high bytes; missing low bytes count as
// zero. A zero target has no difficulty.
func TargetDifficulty(target []byte) Difficulty {
	var padded [32]byte
	copy(padded[:], target)
	value := new(big.Int).SetBytes(padded[:])
	if value.Sign() == 0 {
		return 0
	}
	ratio, _ := new(big.Float).Quo(new(big.Float).SetInt(MaxTarget), new(big.Float).SetInt(value)).Float64()
	return Difficulty(ratio)
}

func (d Difficulty) String() string {
	if d < MaxRawDifficulty {
		return strconv.FormatFloat(float64(d), 'f', 2, 64)
	} else {
		return humanize.SIWithDigits(float64(d), 2, "")
	}
}
