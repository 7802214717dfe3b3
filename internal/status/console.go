package status

import (
	"fmt"

	"github.com/sweeney/water-system/internal/logic"
)

// FormatConsole renders the periodic console report: both tank levels as
// percentages, the pump state and the drain flow.
func FormatConsole(r logic.Reading) string {
	pump := "Off"
	if r.Pump == logic.StateOn {
		pump = "On"
	}
	return fmt.Sprintf("Tank A Level: %.2f%%\nTank B Level: %.2f%%\nPump Status: %s\nDrain Flow: %.2f mm³/s\n",
		float64(r.LevelA)*100, float64(r.LevelB)*100, pump, float64(r.DrainFlow))
}
