// Command ftcp-receive accepts a single inbound transfer from ftcp-send and
// then exits.
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

type receiveOptions struct {
	dir     string
	port    int
	verbose bool
	logPath string
}

func newReceiveCommand() *cobra.Command {
	opts := &receiveOptions{}

	cmd := &cobra.Command{
		Use:   "ftcp-receive",
		Short: "Accept one inbound file transfer from ftcp-send",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReceive(cmd.Context(), opts)
		},
	}

	cmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	flags := cmd.Flags()
	flags.IntVarP(&opts.port, "port", "p", protocol.DefaultPort, "port to listen on")
	flags.StringVarP(&opts.dir, "dir", "d", ".", "directory to write the received file into")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log transfer-rate progress lines")
	flags.StringVarP(&opts.logPath, "log", "l", "", "write logs to this file instead of stdout/stderr")

	return cmd
}

func runReceive(ctx context.Context, opts *receiveOptions) error {
	if opts.logPath != "" {
		f, err := os.OpenFile(opts.logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logger.Switch(f)
	}

	addr := fmt.Sprintf(":%d", opts.port)
	ln, err := netutil.Listen(ctx, addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	logger.T(nil, "listening on", addr, "- writing into", opts.dir)

	conn, err := netutil.Accept(ln)
	if err != nil {
		return err
	}
	defer conn.Close()

	cid := uuid.NewString()
	logCtx := connLogContext(cid)
	logger.T(logCtx, "accepted connection from", conn.RemoteAddr())

	receiver := transfer.NewReceiver(conn, opts.dir, cid)

	if opts.verbose {
		throughput := transfer.NewThroughput(logCtx, receiver)
		throughput.Start()
		defer throughput.Close()

		stop := make(chan struct{})
		go printProgress(logCtx, throughput, stop)
		defer close(stop)
	}

	if err := receiver.Run(); err != nil {
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
	if err := newReceiveCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
