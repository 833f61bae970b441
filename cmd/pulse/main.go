package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/uole/pulse"
	"github.com/uole/pulse/config"
	"github.com/uole/pulse/pkg/multiplex"
	"github.com/uole/pulse/pkg/multiplex/kcp"
	"github.com/uole/pulse/pkg/multiplex/quic"
	"github.com/uole/pulse/pkg/multiplex/tcp"
	"github.com/uole/pulse/version"
	"golang.org/x/sync/errgroup"
)

var (
	configFlag  = flag.String("config", "", "Path to the YAML config file")
	listenFlag  = flag.Bool("listen", false, "Accept heartbeat sessions instead of initiating one")
	addressFlag = flag.String("address", "", "Address to dial or bind, overrides the config file")
	versionFlag = flag.Bool("version", false, "Print the version and exit")
)

func dial(ctx context.Context, cfg *config.Config) (multiplex.Session, error) {
	switch cfg.Proto {
	case "quic":
		return quic.Dial(ctx, cfg.Address)
	case "kcp":
		return kcp.Dial(ctx, cfg.Address, kcp.WithKey([]byte(cfg.SecretKey)))
	default:
		cbs := []tcp.Option{tcp.WithKey([]byte(cfg.SecretKey))}
		if cfg.Compress {
			cbs = append(cbs, tcp.WithCompress())
		}
		return tcp.Dial(ctx, cfg.Address, cbs...)
	}
}

func listen(cfg *config.Config) (multiplex.Listener, error) {
	switch cfg.Proto {
	case "quic":
		return quic.Listen(cfg.Address)
	case "kcp":
		return kcp.Listen(cfg.Address, kcp.WithKey([]byte(cfg.SecretKey)))
	default:
		cbs := []tcp.Option{tcp.WithKey([]byte(cfg.SecretKey))}
		if cfg.Compress {
			cbs = append(cbs, tcp.WithCompress())
		}
		return tcp.Listen(cfg.Address, cbs...)
	}
}

func sessionOptions(cfg *config.Config, logger zerolog.Logger) []pulse.Option {
	return []pulse.Option{
		pulse.WithChannel(cfg.Channel),
		pulse.WithInterval(cfg.Interval),
		pulse.WithConnectionTimeout(cfg.ConnectionTimeout),
		pulse.WithRetryDelay(cfg.RetryDelay),
		pulse.WithReconnectAttempts(cfg.ReconnectAttempts),
		pulse.WithLogger(logger),
	}
}

// consume drains the session's event feed until it terminates, reporting the
// terminal cause if one propagated.
func consume(sess *pulse.Session, logger zerolog.Logger) error {
	for ev := range sess.Events() {
		logger.Info().Str("kind", string(ev.Kind)).Str("channel", ev.Channel.ID()).Msg("heartbeat")
	}
	if err := sess.Err(); err != nil && !errors.Is(err, pulse.ErrCancelled) {
		return err
	}
	return nil
}

func runInitiator(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	muxSess, err := dial(ctx, cfg)
	if err != nil {
		return err
	}
	ep := pulse.NewEndpoint(muxSess, pulse.WithEndpointLogger(logger))
	defer ep.Close()
	sess := pulse.New(ep, pulse.RoleInitiator, sessionOptions(cfg, logger)...)
	sess.Start(ctx)
	defer sess.Cancel()
	return consume(sess, logger)
}

func runAcceptor(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	l, err := listen(cfg)
	if err != nil {
		return err
	}
	defer l.Close()
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-ctx.Done()
		return l.Close()
	})
	eg.Go(func() error {
		for {
			muxSess, err := l.Accept(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			ep := pulse.NewEndpoint(muxSess, pulse.WithEndpointLogger(logger))
			eg.Go(func() error {
				defer ep.Close()
				sess := pulse.New(ep, pulse.RoleAcceptor, sessionOptions(cfg, logger)...)
				sess.Start(ctx)
				defer sess.Cancel()
				if err := consume(sess, logger); err != nil {
					logger.Warn().Err(err).Msg("session ended")
				}
				return nil
			})
		}
	})
	return eg.Wait()
}

func main() {
	flag.Parse()
	if *versionFlag {
		fmt.Printf("%s %s\n", version.ProductName, version.Version)
		os.Exit(0)
	}
	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *addressFlag != "" {
		cfg.Address = *addressFlag
	}
	level := zerolog.WarnLevel
	if cfg.Log {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Str("service", version.ProductName).
		Logger()
	ctx, cancelFunc := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancelFunc()
	if *listenFlag {
		err = runAcceptor(ctx, cfg, logger)
	} else {
		err = runInitiator(ctx, cfg, logger)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
