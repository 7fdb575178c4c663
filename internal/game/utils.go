package game

import (
	"fmt"
	"time"
)

// formatUptime formats a duration as MM:SS.t for the HUD.
func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	tenths := int(d / (100 * time.Millisecond))
	return fmt.Sprintf("%02d:%02d.%d", tenths/600, tenths/10%60, tenths%10)
}
