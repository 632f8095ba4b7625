package action

import (
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/forgeai-dev/ForgeAI/internal/model"
)

func (d *Dispatcher) systemInfo() model.ActionResult {
	var b strings.Builder

	if info, err := host.Info(); err == nil {
		fmt.Fprintf(&b, "Host: %s\nOS: %s %s (%s)\nUptime: %s\n",
			info.Hostname, info.Platform, info.PlatformVersion, info.KernelArch,
			(time.Duration(info.Uptime) * time.Second).String())
	}
	if counts, err := cpu.Counts(true); err == nil {
		fmt.Fprintf(&b, "CPUs: %d logical\n", counts)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		fmt.Fprintf(&b, "Memory: %s used of %s (%.1f%%)\n",
			formatSize(vm.Used), formatSize(vm.Total), vm.UsedPercent)
	}

	if b.Len() == 0 {
		return errResult("Failed: no system information available", model.SafeVerdict())
	}
	return okResult(strings.TrimRight(b.String(), "\n"), model.SafeVerdict())
}

func (d *Dispatcher) diskUsage() model.ActionResult {
	parts, err := disk.Partitions(false)
	if err != nil {
		return errResult(fmt.Sprintf("Failed: %v", err), model.SafeVerdict())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MOUNT           USED / TOTAL (FREE)")
	for _, part := range parts {
		usage, err := disk.Usage(part.Mountpoint)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "\n%-15s %s / %s (%s free)",
			part.Mountpoint, formatSize(usage.Used), formatSize(usage.Total), formatSize(usage.Free))
	}
	return okResult(b.String(), model.SafeVerdict())
}
