// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fleet

import (
	"context"
	"errors"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
)

// CPUSampler measures system-wide CPU utilization with gopsutil.
type CPUSampler struct{}

// Utilization blocks for window and returns the average busy percentage
// across all CPUs.
func (CPUSampler) Utilization(ctx context.Context, window time.Duration) (float64, error) {
	pct, err := cpu.PercentWithContext(ctx, window, false)
	if err != nil {
		return 0, err
	}
	if len(pct) == 0 {
		return 0, errors.New("no CPU utilization reported")
	}
	return pct[0], nil
}
