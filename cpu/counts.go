package cpu

import (
	psutil "github.com/shirou/gopsutil/v3/cpu"
)

func logicalCoreIds() ([]CoreId, error) {
	count, err := psutil.Counts(true)
	if err != nil {
		return nil, err
	}
	return Sequential(count), nil
}
