package utils

import (
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

type SystemMetrics struct {
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
	MemoryUsedMB  uint64  `json:"memoryUsedMB"`
}

// GetCPUUsage returns CPU usage since the previous call, without blocking.
func GetCPUUsage() float64 {
	percentage, err := cpu.Percent(0, false)
	if err != nil {
		log.Warn().Err(err).Msg("reading cpu usage")
		return 0
	}
	if len(percentage) > 0 {
		return percentage[0]
	}
	return 0
}

func GetSystemMetrics() SystemMetrics {
	m := SystemMetrics{CPUPercent: GetCPUUsage()}
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Warn().Err(err).Msg("reading memory usage")
		return m
	}
	m.MemoryPercent = vm.UsedPercent
	m.MemoryUsedMB = vm.Used / 1024 / 1024
	return m
}
