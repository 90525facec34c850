/*
Command worldtool imports worlds from legacy dump files and exports them back.

	worldtool import <name>   reads at<name>.txt, elev<name>.txt and prop<name>.txt
	worldtool export <name>   writes export_at<name>.txt, export_elev<name>.txt and export_prop<name>.txt

Dumps are read from and written to DUMP_DIR, or to the S3 bucket when S3_* is configured.
The database and log settings are the server's.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lemuria/internal/app/db"
	"lemuria/internal/app/dump"
	"lemuria/internal/app/storage"
	"lemuria/internal/app/world"
	"lemuria/internal/configs"
	"lemuria/internal/pkg/errs"
	"lemuria/internal/pkg/logx"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] import|export <name>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	dir := flag.String("dir", "", "dump directory (overrides DUMP_DIR)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	command, name := flag.Arg(0), flag.Arg(1)
	if command != "import" && command != "export" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *dir != "" {
		cfg.DumpDir = *dir
	}

	logx.InitGlobalLogger(logx.Options{Development: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, command, name); err != nil {
		failure := classify(err, command, name)
		logx.Error(err, failure.Message, "command", command, "world", name, "code", failure.Code)
		os.Exit(failure.Code / 1000)
	}
}

func run(ctx context.Context, cfg *configs.AppConfig, command, name string) error {
	store, err := storage.NewDumpStore(storage.ServiceConfig{
		Dir:               cfg.DumpDir,
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		return fmt.Errorf("opening dump store: %w", err)
	}

	pool, err := db.NewPool(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	sqlDB := db.OpenDB(pool)
	defer sqlDB.Close()

	transfer := world.NewTransfer(db.NewWorldRepository(sqlDB), store, nil)

	switch command {
	case "import":
		id, err := transfer.Import(ctx, name)
		if err != nil {
			return err
		}
		logx.Info("Import finished.", "world", name, "world_id", id)
	case "export":
		if err := transfer.Export(ctx, name); err != nil {
			return err
		}
		logx.Info("Export finished.", "world", name)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

// classify maps a failure onto the application error table; the exit status is the code's
// class (2 for world and dump errors, 5 for internal ones).
func classify(err error, command, name string) *errs.CustomError {
	switch {
	case errors.Is(err, world.ErrDumpMissing):
		return errs.NewError(errs.ErrDumpMissing, "at"+name+".txt").WithCause(err)
	case errors.Is(err, dump.ErrMalformed):
		return errs.NewError(errs.ErrDumpMalformed, name).WithCause(err)
	case errors.Is(err, world.ErrNotFound):
		return errs.NewError(errs.ErrWorldNotFound).WithCause(err)
	case command == "import":
		return errs.NewError(errs.ErrImportFailed).WithCause(err)
	default:
		return errs.From(err)
	}
}
