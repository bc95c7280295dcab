package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfclab/nfctrace/capture"
	"github.com/nfclab/nfctrace/export"
	"github.com/nfclab/nfctrace/filter"
	"github.com/nfclab/nfctrace/pkg/classify"
	"github.com/nfclab/nfctrace/pkg/ingest"
	"github.com/nfclab/nfctrace/pkg/model"
	"github.com/nfclab/nfctrace/pkg/store/sqlite"
	"github.com/nfclab/nfctrace/pkg/view"
)

// read command flags
var (
	readDisplayFilter string
	readCount         int
	readDateTime      bool
	readHex           bool
)

var readCmd = &cobra.Command{
	Use:   "read <file>",
	Short: "Read and decode an NFC trace file",
	Long:  `Read frames from a trace file and print decoded protocol events.`,
	Example: `  nfctrace read session.pcap
  nfctrace read session.pcap -c 10
  nfctrace read session.pcap -Y 'tech == "NfcA" && is_poll'
  nfctrace read session.pcap --datetime

For JSON output, use the subcommand:
  nfctrace read json session.pcap`,
	Args:    cobra.ExactArgs(1),
	GroupID: "input",
	RunE:    runReadText,
}

var readJSONCmd = &cobra.Command{
	Use:   "json <file>",
	Short: "Output frames as JSON",
	Long:  `Output decoded frames in JSON format to stdout.`,
	Example: `  nfctrace read json session.pcap
  nfctrace read json session.pcap -c 10`,
	Args: cobra.ExactArgs(1),
	RunE: runReadJSON,
}

func init() {
	readCmd.PersistentFlags().StringVarP(&readDisplayFilter, "filter", "Y", "",
		"Display filter expression over classified frames")
	readCmd.PersistentFlags().IntVarP(&readCount, "count", "c", 0,
		"Stop after n frames (0 = unlimited)")
	readCmd.PersistentFlags().BoolVarP(&readDateTime, "datetime", "t", false,
		"Show wall-clock timestamps instead of elapsed seconds")
	readCmd.Flags().BoolVarP(&readHex, "hex", "x", false, "Show hex dump")

	readCmd.AddCommand(readJSONCmd)
}

func runReadText(cmd *cobra.Command, args []string) error {
	return runRead(args[0], export.FormatText)
}

func runReadJSON(cmd *cobra.Command, args []string) error {
	return runRead(args[0], export.FormatJSON)
}

// loadStream replays a trace file through the ingest pipeline and
// returns the populated stream.
func loadStream(filename string) (*ingest.Stream, error) {
	capturer, err := capture.NewFileCapturer(filename)
	if err != nil {
		return nil, err
	}

	stream := ingest.New(ingest.Config{
		RefreshInterval: cfg.RefreshInterval,
		InboxCapacity:   cfg.InboxCapacity,
		Logger:          logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		stream.Run(ctx)
	}()

	start := time.Now()
	for frame := range capturer.Start() {
		stream.Push(frame)
	}
	cancel()
	<-done

	if err := capturer.Err(); err != nil {
		return nil, err
	}

	logger.Debug().
		Int("frames", stream.RowCount()).
		Dur("elapsed", time.Since(start)).
		Msg("trace loaded")

	return stream, nil
}

func runRead(filename string, format export.OutputFormat) error {
	var flt *filter.Filter
	if readDisplayFilter != "" {
		var err error
		flt, err = filter.Compile(readDisplayFilter)
		if err != nil {
			return err
		}
	}

	stream, err := loadStream(filename)
	if err != nil {
		return err
	}

	exporter := export.NewExporter(os.Stdout, format)
	exporter.SetMaxCount(readCount)
	exporter.SetShowHex(readHex)
	if readDateTime || cfg.DateTime {
		exporter.SetTimeFormat(view.DateTimeFormat)
	}

	if err := exporter.Start(); err != nil {
		return err
	}

	for row := 0; row < stream.RowCount() && !exporter.ShouldStop(); row++ {
		frame := stream.FrameAt(row)
		prev := stream.PrevFrame(row)

		if flt != nil {
			ok, err := flt.Match(frame, prev)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
		}

		if err := exporter.ExportFrame(frame, prev); err != nil {
			return err
		}
	}

	if err := exporter.Finish(); err != nil {
		return err
	}

	if cfg.IndexOnRead {
		if err := writeIndex(filename, stream); err != nil {
			logger.Warn().Err(err).Msg("session index not written")
		}
	}

	return nil
}

// writeIndex persists the loaded stream as a SQLite session index next
// to the trace file.
func writeIndex(filename string, stream *ingest.Stream) error {
	idx, err := sqlite.NewFromTrace(filename, false)
	if err != nil {
		return err
	}
	defer idx.Close()

	if err := indexStream(idx, filename, stream); err != nil {
		idx.RollbackBatch()
		return err
	}
	return nil
}

func indexStream(idx *sqlite.IndexStore, filename string, stream *ingest.Stream) error {
	if err := idx.BeginBatch(); err != nil {
		return err
	}

	var duration float64
	var prev *model.Frame
	for row := 0; row < stream.RowCount(); row++ {
		frame := stream.FrameAt(row)
		if err := idx.InsertFrame(frame, classify.Event(frame, prev)); err != nil {
			return err
		}
		duration = frame.TimeEnd
		prev = frame
	}

	if err := idx.CommitBatch(); err != nil {
		return err
	}

	var size int64
	if fi, err := os.Stat(filename); err == nil {
		size = fi.Size()
	}

	return idx.SetMeta(&sqlite.SessionMeta{
		SchemaVersion: 1,
		TracePath:     filename,
		TraceSize:     size,
		IndexedAt:     time.Now(),
		TotalFrames:   int64(stream.RowCount()),
		DurationSec:   duration,
		IndexComplete: true,
	})
}
