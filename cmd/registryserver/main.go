package main

import (
	"context"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/hierreg/naming-registry-backend/common"
	"github.com/hierreg/naming-registry-backend/dnsgateway"
	"github.com/hierreg/naming-registry-backend/forwarder"
	"github.com/hierreg/naming-registry-backend/httpserver"
	"github.com/hierreg/naming-registry-backend/interfaces"
	"github.com/hierreg/naming-registry-backend/ledger"
	"github.com/hierreg/naming-registry-backend/minter"
	"github.com/hierreg/naming-registry-backend/namehash"
	"github.com/hierreg/naming-registry-backend/proxyreader"
	"github.com/hierreg/naming-registry-backend/registry"
	"github.com/hierreg/naming-registry-backend/storage"
)

var flags []cli.Flag = []cli.Flag{
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: "127.0.0.1:8080",
		Usage: "address to listen on for API",
	},
	&cli.StringFlag{
		Name:  "metrics-addr",
		Value: "127.0.0.1:8090",
		Usage: "address to listen on for Prometheus metrics",
	},
	&cli.StringFlag{
		Name:  "dns-listen-addr",
		Value: "",
		Usage: "UDP address for the DNS gateway (disabled when empty)",
	},
	&cli.Int64Flag{
		Name:  "chain-id",
		Value: 1337,
		Usage: "chain id bound into signature domains",
	},
	&cli.StringFlag{
		Name:  "registry-address",
		Value: "0x00000000000000000000000000000000000000f1",
		Usage: "instance address of the current-generation registry",
	},
	&cli.StringFlag{
		Name:  "legacy-registry-address",
		Value: "",
		Usage: "instance address of the legacy registry (disabled when empty)",
	},
	&cli.StringFlag{
		Name:  "manager-address",
		Value: "0x00000000000000000000000000000000000000f2",
		Usage: "instance address of the minting manager",
	},
	&cli.StringFlag{
		Name:     "admin-address",
		Required: true,
		Usage:    "administrator account for registry and manager",
	},
	&cli.StringSliceFlag{
		Name:  "root",
		Value: cli.NewStringSlice("crypto"),
		Usage: "root namespace to route to the current registry (repeatable)",
	},
	&cli.StringSliceFlag{
		Name:  "storage-uri",
		Usage: "metadata storage backend URI (repeatable, disabled when empty)",
	},
	&cli.StringSliceFlag{
		Name:  "minter",
		Usage: "account to activate as minter at startup (repeatable)",
	},
	&cli.StringFlag{
		Name:  "token-uri-prefix",
		Value: "",
		Usage: "metadata locator prefix for token URIs (unchanged when empty)",
	},
	&cli.StringFlag{
		Name:  "default-resolver",
		Value: "",
		Usage: "resolver assigned to newly minted tokens (unchanged when empty)",
	},
	&cli.BoolFlag{
		Name:  "log-json",
		Value: false,
		Usage: "log in JSON format",
	},
	&cli.BoolFlag{
		Name:  "log-debug",
		Value: false,
		Usage: "log debug messages",
	},
	&cli.BoolFlag{
		Name:  "log-uid",
		Value: false,
		Usage: "generate a uuid and add to all log messages",
	},
	&cli.StringFlag{
		Name:  "log-service",
		Value: common.PackageName,
		Usage: "add 'service' tag to logs",
	},
	&cli.BoolFlag{
		Name:  "pprof",
		Value: false,
		Usage: "enable pprof debug endpoint",
	},
	&cli.Int64Flag{
		Name:  "drain-seconds",
		Value: 45,
		Usage: "seconds to wait in drain HTTP request",
	},
}

func main() {
	app := &cli.App{
		Name:   "registryserver",
		Usage:  "Serve the hierarchical naming registry API",
		Flags:  flags,
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cCtx *cli.Context) error {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cCtx.Bool("log-debug"),
		JSON:    cCtx.Bool("log-json"),
		Service: cCtx.String("log-service"),
		Version: common.Version,
	})
	if cCtx.Bool("log-uid") {
		logger = logger.With("uid", uuid.Must(uuid.NewRandom()).String())
	}

	admin := gethcommon.HexToAddress(cCtx.String("admin-address"))
	chainID := big.NewInt(cCtx.Int64("chain-id"))

	// Registries and the signed-request surfaces.
	primary := registry.New(gethcommon.HexToAddress(cCtx.String("registry-address")), admin, logger)
	fwd, err := forwarder.New(primary, chainID, logger)
	if err != nil {
		logger.Error("failed to create forwarder", "err", err)
		return err
	}
	legacy := forwarder.NewLegacy(fwd)

	var secondary *registry.Registry
	if addr := cCtx.String("legacy-registry-address"); addr != "" {
		secondary = registry.New(gethcommon.HexToAddress(addr), admin, logger)
	}
	var reader *proxyreader.Reader
	if secondary != nil {
		reader = proxyreader.New(primary, secondary)
	} else {
		reader = proxyreader.New(primary, nil)
	}

	// Minting manager with namespace routing.
	mgr, err := minter.New(gethcommon.HexToAddress(cCtx.String("manager-address")), admin, ledger.New(), logger)
	if err != nil {
		logger.Error("failed to create minting manager", "err", err)
		return err
	}
	for _, name := range cCtx.StringSlice("root") {
		root := namehash.Child(namehash.Root, name)
		if err := mgr.AddRoute(admin, root, name, primary); err != nil {
			logger.Error("failed to route namespace", "root", name, "err", err)
			return err
		}
	}
	for _, addr := range cCtx.StringSlice("minter") {
		if err := mgr.AddMinter(admin, gethcommon.HexToAddress(addr)); err != nil {
			logger.Error("failed to activate minter", "minter", addr, "err", err)
			return err
		}
	}

	if prefix := cCtx.String("token-uri-prefix"); prefix != "" {
		if err := primary.SetTokenURIPrefix(admin, prefix); err != nil {
			logger.Error("failed to set token URI prefix", "err", err)
			return err
		}
	}
	if resolver := cCtx.String("default-resolver"); resolver != "" {
		if err := primary.SetDefaultResolver(admin, gethcommon.HexToAddress(resolver)); err != nil {
			logger.Error("failed to set default resolver", "err", err)
			return err
		}
	}

	// Metadata and audit storage.
	var store interfaces.MetadataBackend
	if uris := cCtx.StringSlice("storage-uri"); len(uris) > 0 {
		factory := storage.NewBackendFactory(logger)
		multi, err := factory.CreateMultiBackend(uris)
		if err != nil {
			logger.Error("failed to create storage backends", "err", err)
			return err
		}
		store = multi
		mgr.SetArtifactStore(multi)
	}

	handler := httpserver.NewHandler(reader, fwd, legacy, mgr, store, logger)
	srv, err := httpserver.New(&httpserver.HTTPServerConfig{
		ListenAddr:               cCtx.String("listen-addr"),
		MetricsAddr:              cCtx.String("metrics-addr"),
		EnablePprof:              cCtx.Bool("pprof"),
		Log:                      logger,
		DrainDuration:            time.Duration(cCtx.Int64("drain-seconds")) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}, handler)
	if err != nil {
		logger.Error("failed to create server", "err", err)
		return err
	}

	srv.RunInBackground()

	var gateway *dnsgateway.Gateway
	if dnsAddr := cCtx.String("dns-listen-addr"); dnsAddr != "" {
		gateway = dnsgateway.New(dnsAddr, reader, logger)
		go func() {
			if err := gateway.ListenAndServe(); err != nil {
				logger.Error("dns gateway failed", "err", err)
			}
		}()
	}

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit
	logger.Info("shutting down")

	if gateway != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := gateway.Shutdown(ctx); err != nil {
			logger.Error("dns gateway shutdown failed", "err", err)
		}
		cancel()
	}
	srv.Shutdown()
	return nil
}
