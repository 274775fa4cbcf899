// Command neon-proxy is the proxy's entrypoint: it loads configuration,
// wires BlockStore, ResourceManager, ExecutorPool, Mempool, Replicator,
// and the RPC/service/maintenance front ends, then runs until signaled.
//
// Grounded on cmd/geth's shape (app.Flags + app.Action, config loaded and
// logged before the node starts) adapted to urfave/cli/v2, the teacher's
// own CLI library (cmd/utils/flags_rollup.go), reduced to the one command
// this proxy needs instead of geth's full subcommand tree.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/neonlabsorg/neon-proxy-go/core/executor"
	"github.com/neonlabsorg/neon-proxy-go/core/rawdb"
	"github.com/neonlabsorg/neon-proxy-go/core/resource"
	"github.com/neonlabsorg/neon-proxy-go/core/txpool"
	"github.com/neonlabsorg/neon-proxy-go/internal/config"
	"github.com/neonlabsorg/neon-proxy-go/internal/foreignrpc"
	"github.com/neonlabsorg/neon-proxy-go/rpc"
	"github.com/neonlabsorg/neon-proxy-go/server"
)

var configFileFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "path to an optional TOML config file layered under environment variables",
}

var executorBinaryFlag = &cli.StringFlag{
	Name:     "executor-binary",
	Usage:    "path to the executor worker binary spawned as a subprocess per pool slot",
	Required: true,
}

func main() {
	app := &cli.App{
		Name:  "neon-proxy",
		Usage: "Ethereum JSON-RPC gateway fronting a foreign base ledger",
		Flags: []cli.Flag{configFileFlag, executorBinaryFlag},
		Action: func(c *cli.Context) error {
			return run(c.String(configFileFlag.Name), c.String(executorBinaryFlag.Name))
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, executorBinary string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := log.New("component", "neon-proxy")
	logger.Info("configuration loaded",
		"foreign_ledger_rpc_url", cfg.ForeignLedgerRPCURL,
		"service_bind_addr", cfg.ServiceBindAddr,
		"maintenance_bind_addr", cfg.MaintenanceBindAddr,
		"rpc_bind_addr", cfg.RPCBindAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ledger, err := foreignrpc.Dial(cfg.ForeignLedgerRPCURL, cfg.ForeignRPCTimeout)
	if err != nil {
		return fmt.Errorf("dial foreign ledger: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	blockStore := rawdb.NewBlockStore(rawdb.NewPgxQuerier(pool), cfg.GenesisTimestamp)

	resources := resource.NewManager(cfg.ResourcePoolSize)
	executors, err := executor.AsyncInit(ctx, cfg.ExecutorCount, executor.SubprocessFactory(executorBinary))
	if err != nil {
		return fmt.Errorf("start executor pool: %w", err)
	}

	mempool := txpool.New(txpool.Config{
		Chain:     ledger,
		GasSource: txpool.NewStaticGasPriceSource(cfg.MinimumGasPrice, cfg.SuggestedGasPrice),
		Verifier:  txpool.NewEthSigner(cfg.ChainID),
		Resources: resources,
		Executors: executors,
		CacheTTL:  cfg.MempoolCacheTTL,
	})
	repl := txpool.NewReplicator(mempool.Submit, func(addr string) (net.Conn, error) {
		return net.Dial("tcp", addr)
	})
	mempool.SetReplicator(repl)
	mempool.Start()

	dispatcher := rpc.NewService(rpc.Config{
		Chain:          blockStore,
		LatestSlot:     ledger,
		Mempool:        mempool,
		ConfirmedNonce: ledger,
		Ledger:         ledger,
		Decoder:        txpool.NewEthSigner(cfg.ChainID),
		ChainID:        cfg.ChainID,
		NetVersion:     cfg.NetVersion,
		ClientVersion:  cfg.ClientVersion,
	}).Dispatcher()

	serviceLn, err := net.Listen("tcp", cfg.ServiceBindAddr)
	if err != nil {
		return fmt.Errorf("listen service socket: %w", err)
	}
	go server.NewServiceServer(mempool, txpool.NewEthSigner(cfg.ChainID)).Serve(serviceLn)

	maintenanceLn, err := net.Listen("tcp", cfg.MaintenanceBindAddr)
	if err != nil {
		return fmt.Errorf("listen maintenance socket: %w", err)
	}
	go server.NewMaintenanceServer(mempool, repl).Serve(maintenanceLn)

	httpLn, err := net.Listen("tcp", cfg.RPCBindAddr)
	if err != nil {
		return fmt.Errorf("listen rpc socket: %w", err)
	}
	go func() {
		if err := serveHTTP(httpLn, dispatcher); err != nil {
			logger.Error("rpc http server exited", "err", err)
		}
	}()

	logger.Info("neon-proxy started",
		"rpc_addr", httpLn.Addr(), "service_addr", serviceLn.Addr(), "maintenance_addr", maintenanceLn.Addr())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	_ = serviceLn.Close()
	_ = maintenanceLn.Close()
	_ = httpLn.Close()
	cancel()
	return nil
}
