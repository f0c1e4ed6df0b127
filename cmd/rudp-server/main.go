// Command rudp-server is the passive listener of the reliable-UDP
// transport: it binds a UDP port, accepts one handshake, then either
// receives a file or enters chat mode.
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
	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/digest"
	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/rlog"
	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/rudpnet"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rudp-server:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var chatMode bool
	var outPath string

	cmd := &cobra.Command{
		Use:   "rudp-server <bind_port> [--chat] [loss_rate]",
		Short: "reliable-UDP passive listener",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args, chatMode, outPath)
		},
		SilenceUsage: true,
	}
	cmd.Flags().BoolVar(&chatMode, "chat", false, "start an interactive chat session instead of receiving a file")
	cmd.Flags().StringVar(&outPath, "out", "received_file", "output file name in file mode")
	return cmd
}

func run(parent context.Context, args []string, chatMode bool, outPath string) error {
	ctx := dcontext.WithSoftness(parent)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	ctx, err = rlog.Init(ctx, cfg, "server")
	if err != nil {
		return err
	}

	port, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid bind_port %q: %w", args[0], err)
	}

	var lossRate float64
	if len(args) > 1 {
		lossRate, err = strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid loss_rate %q: %w", args[1], err)
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
		return serverSession(ctx, port, chatMode, outPath, lossRate)
	})

	return g.Wait()
}

func serverSession(ctx context.Context, port int, chatMode bool, outPath string, lossRate float64) (err error) {
	sock, err := rudpnet.ListenServer(port)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sock.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	rnd := mrand.New(mrand.NewSource(seedFromEntropy()))
	c, err := conn.AcceptPassive(ctx, sock, rnd)
	if err != nil {
		return err
	}
	fmt.Println("connection established")
	dlog.Infof(ctx, "CON %s established with %s", c.ID, sock.RemoteAddr())

	if chatMode {
		return chat.Run(ctx, c, os.Stdin, os.Stdout)
	}

	fs := afero.NewOsFs()
	f, err := fs.Create(outPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	loss := rudpnet.NoLoss
	if lossRate > 0 {
		loss = &rudpnet.RandomLoss{Rate: lossRate, Rand: rnd}
	}

	if err := c.ReceiveFile(ctx, f, loss); err != nil {
		return err
	}

	sum, err := digest.MD5File(fs, outPath)
	if err != nil {
		return err
	}
	fmt.Println("file received successfully")
	fmt.Printf("MD5: %s\n", sum)
	return nil
}

func seedFromEntropy() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.BigEndian.Uint64(b[:]))
}
