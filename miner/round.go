package miner

type commandType int

const (
	newWorkCommand commandType = iota
	pauseCommand
	stopCommand
)

func (ct commandType) String() string {
	switch ct {
	case newWorkCommand:
		return "new work"
	case pauseCommand:
		return "pause"
	case stopCommand:
		return "stop"
	default:
		return "unknown"
	}
}

type Round struct {
	Header          []byte
	Target          []byte
	MiningRequestId uint32
}

// NewRound copies header and target so the round owns its buffers.
func NewRound(header, target []byte, miningRequestId uint32) *Round {
	return &Round{
		Header:          append([]byte{}, header...),
		Target:          append([]byte{}, target...),
		MiningRequestId: miningRequestId,
	}
}

type command struct {
	kind  commandType
	round *Round
}
