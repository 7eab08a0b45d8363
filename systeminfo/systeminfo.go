// Package systeminfo collects a small host snapshot for the run report
// header.
package systeminfo

import (
	"runtime"

	"github.com/WerlingM/privacy-exif-cleaner/logger"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

type SystemInfo struct {
	Hostname      string `json:"hostname,omitempty"`
	OS            string `json:"os"`
	OSVersion     string `json:"os_version,omitempty"`
	KernelVersion string `json:"kernel_version,omitempty"`
	Arch          string `json:"arch"`
	CPUCores      int    `json:"cpu_cores"`
	TotalMemory   uint64 `json:"total_memory,omitempty"`
}

// GetSystemInfo gathers the snapshot. Partial failures are logged and the
// remaining fields are still returned.
func GetSystemInfo() *SystemInfo {
	info := &SystemInfo{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	if hostInfo, err := host.Info(); err == nil {
		info.Hostname = hostInfo.Hostname
		info.OSVersion = hostInfo.PlatformVersion
		info.KernelVersion = hostInfo.KernelVersion
	} else {
		logger.Warnf("Failed to gather host information: %v", err)
	}

	if cores, err := cpu.Counts(true); err == nil {
		info.CPUCores = cores
	} else {
		info.CPUCores = runtime.NumCPU()
		logger.Debugf("Falling back to runtime CPU count: %v", err)
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		info.TotalMemory = vm.Total
	} else {
		logger.Warnf("Failed to gather memory information: %v", err)
	}

	return info
}
