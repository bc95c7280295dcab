package cmd

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfclab/nfctrace/capture"
	"github.com/nfclab/nfctrace/stats"
)

// stats command flags
var (
	statsShowEvents bool
	statsShowTechs  bool
	statsShowIO     bool
	statsInterval   time.Duration
)

var statsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Show session statistics for a trace file",
	Long:  `Compute frame, event and error statistics over a trace file.`,
	Example: `  nfctrace stats session.pcap
  nfctrace stats session.pcap --events
  nfctrace stats session.pcap --io --interval 500ms`,
	Args:    cobra.ExactArgs(1),
	GroupID: "analysis",
	RunE:    runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsShowEvents, "events", false, "Show per-event counts")
	statsCmd.Flags().BoolVar(&statsShowTechs, "techs", false, "Show per-technology counts")
	statsCmd.Flags().BoolVar(&statsShowIO, "io", false, "Show frame rate over time")
	statsCmd.Flags().DurationVar(&statsInterval, "interval", time.Second, "IO stats bucket size")
}

func runStats(cmd *cobra.Command, args []string) error {
	capturer, err := capture.NewFileCapturer(args[0])
	if err != nil {
		return err
	}

	m := stats.NewManager()
	m.SetBucketSize(statsInterval)

	for frame := range capturer.Start() {
		m.ProcessFrame(frame)
	}
	if err := capturer.Err(); err != nil {
		return err
	}

	printStats(m, os.Stdout)
	return nil
}

func printStats(m *stats.Manager, w io.Writer) {
	m.PrintSummary(w)

	if statsShowTechs {
		m.PrintTechs(w)
	}
	if statsShowEvents {
		m.PrintEvents(w)
	}
	if statsShowIO {
		m.PrintIOStats(w)
	}
}
