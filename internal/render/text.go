package render

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteText renders the model as plain text for terminal output.
func (m Model) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s\n%s  %s  %s\n\n",
		m.Now.PlaceName, m.Now.CurrentTemp, m.Now.CurrentSky, m.Now.CurrentAQI); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Forecast")
	for _, row := range m.Forecast {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Date, row.Info, row.TempRange)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Life index")
	fmt.Fprintf(tw, "Cold risk\t%s\n", m.LifeIndex.ColdRisk)
	fmt.Fprintf(tw, "Dressing\t%s\n", m.LifeIndex.Dressing)
	fmt.Fprintf(tw, "Ultraviolet\t%s\n", m.LifeIndex.Ultraviolet)
	fmt.Fprintf(tw, "Car washing\t%s\n", m.LifeIndex.CarWashing)
	return tw.Flush()
}
