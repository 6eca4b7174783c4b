package cli

import (
	"fmt"
	"strings"
	"time"
)

// progressBar renders per-directory progress on one terminal line.
type progressBar struct {
	width int
	start time.Time
}

func newProgressBar(width int) *progressBar {
	return &progressBar{width: width, start: time.Now()}
}

// update redraws the bar after a directory completes, with a crude ETA
// extrapolated from the average time per directory so far.
func (pb *progressBar) update(current, total int) {
	if total == 0 {
		return
	}

	percent := float64(current) / float64(total)
	filled := int(percent * float64(pb.width))
	if filled > pb.width {
		filled = pb.width
	}

	eta := ""
	if current > 0 && current < total {
		perDir := time.Since(pb.start) / time.Duration(current)
		left := perDir * time.Duration(total-current)
		eta = fmt.Sprintf("  ~%s left", left.Round(time.Second))
	}

	bar := strings.Repeat("#", filled) + strings.Repeat("-", pb.width-filled)
	fmt.Printf("\r[%s] %3.0f%%  (%d/%d dirs)%s", bar, percent*100, current, total, eta)
}
