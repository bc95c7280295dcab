package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nfclab/nfctrace/pkg/store/sqlite"
)

var indexCmd = &cobra.Command{
	Use:   "index <file>",
	Short: "Build a SQLite session index for a trace file",
	Long: `Decode a trace file once and persist the classified frames to a
SQLite index next to it, so later queries skip the replay.`,
	Example: `  nfctrace index session.pcap
  nfctrace index info session.pcap`,
	Args:    cobra.ExactArgs(1),
	GroupID: "analysis",
	RunE:    runIndex,
}

var indexInfoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show metadata of an existing session index",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexInfo,
}

func init() {
	indexCmd.AddCommand(indexInfoCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	stream, err := loadStream(args[0])
	if err != nil {
		return err
	}

	if err := writeIndex(args[0], stream); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "indexed %d frames into %s.idx.db\n", stream.RowCount(), args[0])
	return nil
}

func runIndexInfo(cmd *cobra.Command, args []string) error {
	idx, err := sqlite.NewFromTrace(args[0], true)
	if err != nil {
		return err
	}
	defer idx.Close()

	meta, err := idx.GetMeta()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%-16s %s\n", "Trace:", meta.TracePath)
	fmt.Fprintf(os.Stdout, "%-16s %d bytes\n", "Trace size:", meta.TraceSize)
	fmt.Fprintf(os.Stdout, "%-16s %s\n", "Indexed at:", meta.IndexedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(os.Stdout, "%-16s %d\n", "Frames:", meta.TotalFrames)
	fmt.Fprintf(os.Stdout, "%-16s %.3fs\n", "Duration:", meta.DurationSec)
	fmt.Fprintf(os.Stdout, "%-16s %t\n", "Complete:", meta.IndexComplete)
	return nil
}
