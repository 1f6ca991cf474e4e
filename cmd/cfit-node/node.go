package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/cfit-project/cfit-ledger/adb"
	"github.com/cfit-project/cfit-ledger/adb/boltdb"
	"github.com/cfit-project/cfit-ledger/adb/lmdb"
	"github.com/cfit-project/cfit-ledger/address"
	"github.com/cfit-project/cfit-ledger/config"
	"github.com/cfit-project/cfit-ledger/ledger"
	"github.com/cfit-project/cfit-ledger/ledgertype"
	"github.com/cfit-project/cfit-ledger/logger"
	"github.com/cfit-project/cfit-ledger/metrics"
	"github.com/cfit-project/cfit-ledger/rpc/rpcserver"
	"github.com/cfit-project/cfit-ledger/util"
)

var Log = logger.New()

func init() {
	ledger.Log = Log
	rpcserver.Log = Log
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return config.NAME + "-" + config.NETWORK_NAME
	}
	return filepath.Join(home, config.NAME+"-"+config.NETWORK_NAME)
}

var cpu_profile = flag.String("cpu-profile", "", "write cpu profile to the provided file")

func main() {
	version := flag.Bool("version", false, "prints version and exits")
	config_file := flag.String("config", "", "path of the YAML configuration file")
	data_dir := flag.String("data-dir", defaultDataDir(), "sets the data directory which contains the ledger database")
	db_backend := flag.String("db-backend", config.DEFAULT_DB_BACKEND, "ledger database backend: bolt or lmdb")
	log_level := flag.Uint("log-level", 1, "sets the log level")
	public_rpc := flag.Bool("public-rpc", false, "required for public RPC nodes: blocks state-changing RPC calls and binds on 0.0.0.0")
	rpc_bind := flag.String("rpc-bind", fmt.Sprintf("127.0.0.1:%d", config.RPC_BIND_PORT), "starts RPC server on this address")
	rpc_auth := flag.String("rpc-auth", "", "username:password required by the RPC server")
	metrics_bind := flag.String("metrics-bind", "", "serves Prometheus metrics at /metrics on this address")
	genesis_owner := flag.String("genesis-owner", "", "address receiving the initial supply when the ledger is created")
	genesis_supply := flag.String("genesis-supply", "", "initial supply in whole tokens when the ledger is created")
	non_interactive := flag.Bool("non-interactive", false, "if set, the node will not process the stdinput. Useful for running as a service.")

	flag.Parse()

	if *version {
		fmt.Printf("%s-node v%v.%v.%v\n", config.NAME, config.VERSION_MAJOR, config.VERSION_MINOR, config.VERSION_PATCH)
		os.Exit(0)
	}

	conf := config.DefaultFile()
	if *config_file != "" {
		var err error
		conf, err = config.LoadFile(*config_file)
		if err != nil {
			Log.Fatal(err)
		}
	}

	// flags given on the command line override the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data-dir":
			conf.DataDir = *data_dir
		case "db-backend":
			conf.DBBackend = *db_backend
		case "log-level":
			lvl := uint8(*log_level)
			conf.LogLevel = &lvl
		case "public-rpc":
			conf.RPC.Public = *public_rpc
		case "rpc-bind":
			conf.RPC.Bind = *rpc_bind
		case "rpc-auth":
			conf.RPC.Authentication = *rpc_auth
		case "metrics-bind":
			conf.Metrics.Enabled = true
			conf.Metrics.Bind = *metrics_bind
		case "genesis-owner":
			conf.Genesis.Owner = *genesis_owner
		case "genesis-supply":
			conf.Genesis.Supply = *genesis_supply
		}
	})
	if conf.DataDir == "" {
		conf.DataDir = *data_dir
	}
	if conf.RPC.Public {
		conf.RPC.Bind = publicBind(conf.RPC.Bind)
	}

	if *cpu_profile != "" {
		f, err := os.Create(*cpu_profile)
		if err != nil {
			Log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			Log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	if conf.LogLevel != nil {
		Log.SetLogLevel(*conf.LogLevel)
	} else {
		Log.SetLogLevel(uint8(*log_level))
	}

	Log.Info("Starting", config.NETWORK_NAME, "node")
	Log.Infof("Version: %d.%d.%d", config.VERSION_MAJOR, config.VERSION_MINOR, config.VERSION_PATCH)
	if config.NETWORK_NAME != "mainnet" {
		Log.Warn("This is a", strings.ToUpper(config.NETWORK_NAME), "node, only for testing the ledger.")
	}

	err := os.MkdirAll(conf.DataDir, 0o750)
	if err != nil {
		Log.Fatal("failed to create data dir:", err)
	}

	db, err := openDB(conf.DBBackend, conf.DataDir)
	if err != nil {
		Log.Fatal(err)
	}

	gen, err := genesisFromConfig(conf.Genesis)
	if err != nil {
		Log.Fatal(err)
	}

	l, err := ledger.New(db, gen)
	if err != nil {
		db.Close()
		if errors.Is(err, ledger.ErrInvalidRecipient) && gen.Owner.IsZero() {
			Log.Fatal("a genesis owner is required to create the ledger, use --genesis-owner")
		}
		Log.Fatal(err)
	}

	startRpc(l, conf.RPC)

	if conf.Metrics.Enabled {
		go startMetrics(conf.Metrics.Bind)
	}

	if !*non_interactive {
		prompts(l)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	Log.Info("Shutting down")
	err = l.Close()
	if err != nil {
		Log.Err(err)
	}
}

// publicBind replaces a loopback host with 0.0.0.0, keeping the port
func publicBind(bind string) string {
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return bind
	}
	if host == "" || host == "127.0.0.1" || host == "localhost" {
		return net.JoinHostPort("0.0.0.0", port)
	}
	return bind
}

func openDB(backend, dataDir string) (adb.DB, error) {
	switch backend {
	case "bolt":
		Log.Debug("using bbolt database")
		return boltdb.New(filepath.Join(dataDir, "ledger.db"), 0o600)
	case "lmdb":
		Log.Debug("using lmdb database")
		return lmdb.New(filepath.Join(dataDir, "lmdb"), 0o755, Log)
	}
	return nil, fmt.Errorf("unknown database backend %q", backend)
}

func genesisFromConfig(g config.GenesisFile) (ledger.Genesis, error) {
	gen := ledger.Genesis{
		Timestamp: util.Time(),
	}

	if g.Owner != "" {
		owner, err := address.FromString(g.Owner)
		if err != nil {
			return gen, fmt.Errorf("invalid genesis owner: %w", err)
		}
		gen.Owner = owner
	}

	supply, err := util.ParseCoin(g.Supply)
	if err != nil {
		return gen, fmt.Errorf("invalid genesis supply %q: %w", g.Supply, err)
	}
	gen.Supply = supply

	if len(g.RewardSchedule) > 0 {
		gen.Schedule = make(ledgertype.Schedule, len(g.RewardSchedule))
		for i, v := range g.RewardSchedule {
			gen.Schedule[i] = ledgertype.RewardTier{
				MinLockDuration: v.MinLockDuration,
				RateBps:         v.RateBps,
			}
		}
	}

	return gen, nil
}

func startMetrics(bind string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              bind,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	Log.Infof("Serving metrics on http://%s/metrics", bind)
	err := srv.ListenAndServe()
	if err != nil {
		Log.Err("metrics server stopped:", err)
	}
}
