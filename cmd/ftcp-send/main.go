// Command ftcp-send streams a single file to a listening ftcp-receive
// instance over TCP.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aeldrin/ftcp/internal/netutil"
	"github.com/aeldrin/ftcp/logger"
	"github.com/aeldrin/ftcp/protocol"
	"github.com/aeldrin/ftcp/transfer"
)

type sendOptions struct {
	host    string
	file    string
	port    int
	verbose bool
	logPath string
}

func newSendCommand() *cobra.Command {
	opts := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "ftcp-send",
		Short: "Send a file to an ftcp-receive instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd.Context(), opts)
		},
	}

	// Fold "_" to "-" in flag names, so an underscore spelling of a
	// dash-separated flag name is accepted too.
	cmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	flags := cmd.Flags()
	flags.StringVarP(&opts.host, "host", "H", "127.0.0.1", "receiver host")
	flags.StringVarP(&opts.file, "file", "f", "", "path to the file to send (required)")
	flags.IntVarP(&opts.port, "port", "p", protocol.DefaultPort, "receiver port")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log transfer-rate progress lines")
	flags.StringVarP(&opts.logPath, "log", "l", "", "write logs to this file instead of stdout/stderr")

	cmd.MarkFlagRequired("file")

	return cmd
}

func runSend(ctx context.Context, opts *sendOptions) error {
	if opts.logPath != "" {
		f, err := os.OpenFile(opts.logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logger.Switch(f)
	}

	file, err := os.Open(opts.file)
	if err != nil {
		return protocol.NewError(protocol.KindProtocol, "opening %s: %v", opts.file, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return protocol.NewError(protocol.KindProtocol, "stat %s: %v", opts.file, err)
	}

	cid := uuid.NewString()
	logCtx := connLogContext(cid)
	addr := fmt.Sprintf("%s:%d", opts.host, opts.port)

	conn, err := netutil.DialWithBackoff(ctx, addr, logCtx)
	if err != nil {
		return err
	}
	defer conn.Close()

	filename := stat.Name()
	sender := transfer.NewSender(conn, file, filename, uint64(stat.Size()), protocol.DefaultChunkSize, cid)

	if opts.verbose {
		throughput := transfer.NewThroughput(logCtx, sender)
		throughput.Start()
		defer throughput.Close()

		stop := make(chan struct{})
		go printProgress(logCtx, throughput, stop)
		defer close(stop)
	}

	logger.T(logCtx, "sending", filename, "(", stat.Size(), "bytes ) to", addr)

	if err := sender.Run(); err != nil {
		logger.E(logCtx, "transfer failed:", err)
		return err
	}

	return nil
}

type connLogContext string

func (c connLogContext) Cid() string { return string(c) }

// printProgress logs the 10s-window transfer rate every couple of seconds
// until stop is closed, the "X MiB/s" line spec §6.5's throughput sampler
// exists to produce.
func printProgress(ctx logger.Context, t transfer.Throughput, stop <-chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			logger.T(ctx, fmt.Sprintf("%.2f MiB/s", t.Bps10s()/(1024*1024)))
		}
	}
}

func main() {
	if err := newSendCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
