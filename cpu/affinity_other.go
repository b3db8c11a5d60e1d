//go:build !linux

package cpu

func systemCoreIds() ([]CoreId, error) {
	return logicalCoreIds()
}

// Pin is a no-op where thread affinity is not supported.
func Pin(_ CoreId) error {
	return nil
}
