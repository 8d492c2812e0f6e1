package xsysinfo

import (
	"github.com/mudler/memory"
	"github.com/mudler/xlog"
)

// ModelOverhead scales a ggml model file size to the memory whisper needs
// once the compute buffers and KV caches are allocated.
const ModelOverhead = 1.3

type RAM struct {
	Total     uint64 `json:"total"`
	Available uint64 `json:"available"`
}

// SystemRAM returns the total and currently available system memory.
func SystemRAM() RAM {
	r := RAM{
		Total:     memory.TotalMemory(),
		Available: memory.AvailableMemory(),
	}
	xlog.Debug("System RAM", "total", r.Total, "available", r.Available)
	return r
}

// ModelFits reports whether a model file of modelBytes is expected to fit
// in available. An unknown (zero) available size always fits.
func ModelFits(modelBytes, available uint64) bool {
	if available == 0 {
		return true
	}
	return float64(modelBytes)*ModelOverhead <= float64(available)
}
