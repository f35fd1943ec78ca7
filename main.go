package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/StephenGriese/helloservice/config"
	"github.com/StephenGriese/helloservice/discovery"
	"github.com/StephenGriese/helloservice/hello"
	"github.com/StephenGriese/helloservice/logs"
	"github.com/StephenGriese/helloservice/metrics"
	"github.com/StephenGriese/helloservice/peer"
	"github.com/StephenGriese/helloservice/prime"
	"github.com/StephenGriese/helloservice/server"
	"github.com/StephenGriese/helloservice/tracing"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
)

var (
	builder   = "Undeclared"
	buildTime = "Undeclared"
	goversion = "Undeclared"
	version   = "Undeclared"
)

const peerTransportComponentName = "peer_transport"

// flags holds the command line options
type flags struct {
	LocalYaml string
	Strict    bool
	URL       string
}

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Stdout, os.Args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, args []string) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := newRootCommand()
	cmd.SetArgs(integerArgsLast(args[1:]))
	cmd.SetOut(w)
	cmd.SetErr(w)
	return cmd.ExecuteContext(ctx)
}

// integerArgsLast moves integer arguments behind "--" when one of them is negative, so that
// "prime -5" is not read as a shorthand flag. The order of the integers is kept.
func integerArgsLast(args []string) []string {
	negative := false
	for _, a := range args {
		if a == "--" {
			return args
		}
		if isInteger(a) && strings.HasPrefix(a, "-") {
			negative = true
		}
	}
	if !negative {
		return args
	}

	out := make([]string, 0, len(args)+1)
	var numbers []string
	for _, a := range args {
		if isInteger(a) {
			numbers = append(numbers, a)
			continue
		}
		out = append(out, a)
	}
	out = append(out, "--")
	return append(out, numbers...)
}

func isInteger(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func newRootCommand() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "helloservice",
		Short:         "Greets, checks primes and calls its peer hello-service",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *f)
		},
	}
	root.PersistentFlags().StringVar(&f.LocalYaml, "local-yaml", "",
		"Comma separated list of yaml files to load instead of normal configuration read")

	primeCmd := &cobra.Command{
		Use:   "prime [flags] <number>...",
		Short: "Report whether each number is prime",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrime(cmd.Context(), cmd.OutOrStdout(), *f, args)
		},
	}
	primeCmd.Flags().BoolVar(&f.Strict, "strict", false, "Report numbers below 2 as not prime")
	primeCmd.Flags().StringVar(&f.URL, "url", "", "Ask the hello-service at this base URL instead of computing locally")

	instancesCmd := &cobra.Command{
		Use:   "instances <applicationName>",
		Short: "List the instances discovery knows for an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstances(cmd.Context(), cmd.OutOrStdout(), *f, args[0])
		},
	}
	instancesCmd.Flags().StringVar(&f.URL, "url", "", "Ask the hello-service at this base URL instead of the configured registry")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "version=%s builder=%s buildTime=%s goversion=%s\n",
				version, builder, buildTime, goversion)
		},
	}

	root.AddCommand(primeCmd, instancesCmd, versionCmd)
	return root
}

func serve(ctx context.Context, f flags) error {
	store, err := config.NewStore(config.SplitFiles(f.LocalYaml), os.Getenv)
	if err != nil {
		return errors.Wrap(err, "error in Setup. could not load config")
	}
	appConfig := store.Current()

	logger, err := logs.NewLoggerFromConfig(appConfig.Logger,
		logs.WithContexter(tracing.TraceIDContexter),
		logs.WithContexter(logs.RequestIDContexter))
	if err != nil {
		return errors.Wrap(err, "error creating logger")
	}

	metricsFactory := metrics.NewFactory(appConfig.AppName)

	tracer, closer, err := tracing.NewTracer(logger, appConfig.Tracing)
	if err != nil {
		return errors.Wrap(err, "error creating tracer")
	}
	defer func() {
		_ = closer.Close()
	}()

	lookup, err := newLookup(logger, metricsFactory, appConfig.Discovery)
	if err != nil {
		return err
	}
	fetcher := newPeerFetcher(logger, metricsFactory, tracer, appConfig.Downstream, lookup)
	helloService := newHelloService(logger, metricsFactory, store, lookup, fetcher, appConfig)

	httpServer, err := newHTTPServer(ctx, logger, metricsFactory, tracer, appConfig, helloService, store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reload := func() {
		changed, err := store.Reload()
		if err != nil {
			logger.Error(ctx, "config reload failed, keeping previous config", "err", err)
			return
		}
		logger.Info(ctx, "config reloaded", "changed", changed)
	}

	var (
		wg       conc.WaitGroup
		serveErr error
	)
	wg.Go(func() {
		defer func() {
			cancel()
			logger.Info(ctx, "http server goroutine done")
		}()
		serveErr = httpServer.Start(ctx)
	})
	wg.Go(func() {
		if err := config.Watch(ctx, store.Files(), reload); err != nil {
			logger.Warn(ctx, "config files are not watched", "err", err)
		}
	})
	wg.Go(func() {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				reload()
			}
		}
	})

	wg.Wait()
	logger.Info(context.Background(), "server stopped")

	return serveErr
}

func newLookup(logger logs.Logger, metricsFactory metrics.Factory, cfg discovery.Config) (discovery.Lookup, error) {
	lookup, err := discovery.New(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "error creating service discovery")
	}
	logger.Info(context.Background(), "Using service discovery", "backend", cfg.Backend)

	lookup = discovery.WithLoggingLookup(logger, lookup)
	lookup = discovery.WithInstrumentingLookup(metricsFactory, lookup)
	return lookup, nil
}

func newPeerFetcher(logger logs.Logger, metricsFactory metrics.Factory, tracer opentracing.Tracer,
	cfg config.DownstreamConfig, lookup discovery.Lookup) peer.Fetcher {
	if !cfg.Enabled {
		logger.Info(context.Background(), "Client is disabled.")
		return nil
	}
	logger.Info(context.Background(), "Using Client", "url", cfg.URL, "timeout", cfg.Timeout, "resolve", cfg.Resolve)

	client := peer.NewHTTPClient(cfg.Timeout, metricsFactory.NewServiceStatistics(peerTransportComponentName))
	fetcher := peer.NewHTTPFetcher(logger, client, tracer)
	if cfg.Resolve {
		fetcher = peer.NewResolvingFetcher(lookup, fetcher)
	}
	fetcher = peer.WithLoggingFetcher(logger, fetcher)
	fetcher = peer.WithInstrumentingFetcher(metricsFactory, fetcher)

	return fetcher
}

func newHelloService(logger logs.Logger, metricsFactory metrics.Factory, env hello.EnvSource,
	lookup discovery.Lookup, fetcher peer.Fetcher, cfg config.AppConfig) hello.Service {
	svcOpts := []hello.ServiceOption{
		hello.WithLogger(logger),
		hello.WithEnvSource(env),
		hello.WithLookup(lookup),
		hello.WithPeerURL(cfg.Downstream.URL),
		hello.WithPrimeChecker(prime.Checker{Strict: cfg.Prime.Strict}),
	}
	if fetcher != nil {
		svcOpts = append(svcOpts, hello.WithFetcher(fetcher))
	}
	service := hello.NewService(svcOpts...)
	service = hello.WithLoggingService(logger, service)
	service = hello.WithInstrumentingService(metricsFactory, service)

	return service
}

func newHTTPServer(ctx context.Context, logger logs.Logger, metricsFactory metrics.Factory, tracer opentracing.Tracer,
	appConfig config.AppConfig, helloService hello.Service, refresher server.Refresher) (*server.Server, error) {
	srvrOpts := []server.ServerOption{
		server.WithName(appConfig.AppName),
		server.WithHost(appConfig.Server.Host),
		server.WithPort(appConfig.Port),
		server.WithLogger(logger),
		server.WithRequestLogging(appConfig.Logger.Request.Enabled),
		server.WithBuildInfo(version, builder, buildTime, goversion),
		server.WithMetricsFactory(metricsFactory),
		server.WithRequestHandlers(hello.NewRequestHandlers(logger, helloService, tracer)),
		server.WithRefresher(refresher),
		server.WithShutdownTimeout(appConfig.Server.ShutdownTimeout),
		server.WithReadHeaderTimeout(appConfig.Server.ReadHeaderTimeout),
	}

	s, err := server.NewServer(ctx, srvrOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "error creating server")
	}
	return s, nil
}

func runPrime(ctx context.Context, w io.Writer, f flags, args []string) error {
	numbers := make([]int64, 0, len(args))
	for _, a := range args {
		n, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "failed to convert %q to a number", a)
		}
		numbers = append(numbers, n)
	}

	var service hello.Service = hello.NewService(hello.WithPrimeChecker(prime.Checker{Strict: f.Strict}))
	if f.URL != "" {
		client, err := hello.NewHTTPClient(logs.NewNopLogger(), f.URL)
		if err != nil {
			return err
		}
		service = client
	}

	for _, n := range numbers {
		msg, err := service.Prime(ctx, n)
		if err != nil {
			return errors.Wrapf(err, "error checking %d", n)
		}
		if _, err = fmt.Fprintln(w, msg); err != nil {
			return err
		}
	}
	return nil
}

func runInstances(ctx context.Context, w io.Writer, f flags, applicationName string) error {
	var (
		instances []discovery.Instance
		err       error
	)
	if f.URL != "" {
		client, cerr := hello.NewHTTPClient(logs.NewNopLogger(), f.URL)
		if cerr != nil {
			return cerr
		}
		instances, err = client.ServiceInstances(ctx, applicationName)
	} else {
		appConfig, _, lerr := config.Load(config.SplitFiles(f.LocalYaml), os.Getenv)
		if lerr != nil {
			return errors.Wrap(lerr, "could not load config")
		}
		lookup, lerr := discovery.New(appConfig.Discovery)
		if lerr != nil {
			return errors.Wrap(lerr, "error creating service discovery")
		}
		instances, err = lookup.Instances(ctx, applicationName)
	}
	if err != nil {
		return errors.Wrapf(err, "error listing instances of %s", applicationName)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(instances)
}
