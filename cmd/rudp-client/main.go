// Command rudp-client is the active opener of the reliable-UDP
// transport: it dials a peer, performs the handshake, then either
// sends a file or enters chat mode.
package main

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/datawire/dlib/dcontext"
	"github.com/datawire/dlib/derror"
	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"
	"github.com/spf13/afero"

	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/chat"
	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/config"
	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/conn"
	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/rlog"
	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/rudpnet"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rudp-client:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var chatMode bool

	cmd := &cobra.Command{
		Use:   "rudp-client <peer_host> <peer_port> (<input_path> <output_path> | --chat) [loss_rate]",
		Short: "reliable-UDP active opener",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args, chatMode)
		},
		SilenceUsage: true,
	}
	cmd.Flags().BoolVar(&chatMode, "chat", false, "start an interactive chat session instead of transferring a file")
	return cmd
}

func run(parent context.Context, args []string, chatMode bool) error {
	ctx := dcontext.WithSoftness(parent)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	ctx, err = rlog.Init(ctx, cfg, "client")
	if err != nil {
		return err
	}

	host := args[0]
	port, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid peer_port %q: %w", args[1], err)
	}

	var inputPath, outputPath string
	rest := args[2:]
	if !chatMode {
		if len(rest) < 2 {
			return fmt.Errorf("file mode requires <input_path> <output_path>")
		}
		inputPath, outputPath = rest[0], rest[1]
		rest = rest[2:]
	}
	if len(rest) > 0 {
		// loss_rate is a receiver-side knob; the client accepts it on
		// the command line for shape compatibility with rudp-server but
		// never drops its own outbound frames, so only its format is
		// validated here.
		if _, err := strconv.ParseFloat(rest[0], 64); err != nil {
			return fmt.Errorf("invalid loss_rate %q: %w", rest[0], err)
		}
	}

	g := dgroup.NewGroup(ctx, dgroup.GroupConfig{
		EnableSignalHandling: true,
		ShutdownOnNonError:   true,
	})

	g.Go("session", func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = derror.PanicToError(r)
			}
		}()
		return clientSession(ctx, host, port, chatMode, inputPath, outputPath)
	})

	return g.Wait()
}

func clientSession(ctx context.Context, host string, port int, chatMode bool, inputPath, outputPath string) (err error) {
	fs := afero.NewOsFs()

	if !chatMode {
		info, statErr := fs.Stat(inputPath)
		if statErr != nil {
			return fmt.Errorf("input file %q: %w", inputPath, statErr)
		}
		if info.Size() == 0 {
			return fmt.Errorf("input file %q is empty", inputPath)
		}
		fmt.Printf("Input file '%s' validated (%d bytes)\n", inputPath, info.Size())
	}

	sock, err := rudpnet.DialClient(host, port)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sock.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	rnd := mrand.New(mrand.NewSource(seedFromEntropy()))
	c, err := conn.DialActive(ctx, sock, rnd)
	if err != nil {
		return err
	}
	fmt.Println("connection established")
	dlog.Infof(ctx, "CON %s established with %s", c.ID, sock.RemoteAddr())

	if chatMode {
		return chat.Run(ctx, c, os.Stdin, os.Stdout)
	}

	f, err := fs.Open(inputPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	if err := c.SendFile(ctx, f); err != nil {
		return err
	}
	fmt.Println("file sent successfully")
	// output_path is accepted for CLI-shape compatibility with the
	// usage string but never consulted: the client only ever sends.
	_ = outputPath
	return nil
}

func seedFromEntropy() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.BigEndian.Uint64(b[:]))
}
