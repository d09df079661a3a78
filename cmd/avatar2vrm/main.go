package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"strings"

	"github.com/binzume/avatarconv/converter"
	"github.com/binzume/avatarconv/internal/config"
	"github.com/binzume/avatarconv/internal/logger"
	"github.com/binzume/avatarconv/unity"
	"github.com/binzume/avatarconv/vrm"
	"go.uber.org/zap"
)

var rootName = flag.String("root", "", "Root object name when the prefab has several roots")

func defaultOutputFile(prefabPath string) string {
	base := path.Base(prefabPath)
	return strings.TrimSuffix(base, path.Ext(base)) + ".vrm"
}

func openAssets(input string) (unity.Assets, error) {
	st, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return unity.OpenAssets(input)
	}
	return unity.OpenPackage(input)
}

func run(ctx context.Context, cfg *config.Config, input, prefabPath, output string) error {
	log := logger.Log
	assets, err := openAssets(input)
	if err != nil {
		return err
	}
	defer assets.Close()

	prefab, err := unity.LoadPrefab(assets, prefabPath, &unity.LoadOptions{Logger: log, RootName: *rootName})
	if err != nil {
		return err
	}
	avatar := prefab.Avatar

	opts, err := cfg.ToOptions(avatar, prefab.Settings)
	if err != nil {
		return err
	}
	opts.Logger = log
	if opts.Variants == nil && len(cfg.Variants) > 0 {
		if opts.Variants, err = cfg.MaterialVariants(avatar.Root, prefab.MaterialByPath); err != nil {
			return err
		}
	}
	avatar.Scale(cfg.Conversion.Scale)

	doc, result, err := converter.Convert(ctx, avatar, opts)
	if err != nil {
		return err
	}
	counts := map[converter.DiagnosticKind]int{}
	for _, d := range result.Diagnostics {
		counts[d.Kind]++
	}
	if len(result.Diagnostics) > 0 {
		log.Warn("conversion finished with diagnostics",
			zap.Int(converter.MissingReference.String(), counts[converter.MissingReference]),
			zap.Int(converter.Unsupported.String(), counts[converter.Unsupported]))
	}

	if err := vrm.Save((*vrm.Document)(doc), output); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	log.Info("saved", zap.String("output", output), zap.Strings("extensions", result.ExtensionsUsed))
	return nil
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <package|Assets dir> <prefab path> [output.vrm]\n", os.Args[0])
		flag.PrintDefaults()
	}
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if p := config.SaveConfigPath(); p != "" {
		if err := cfg.SaveTo(p); err != nil {
			logger.Log.Fatal("cannot save config", zap.Error(err))
		}
		logger.Log.Info("config saved", zap.String("path", p))
	}

	if flag.NArg() < 2 {
		if config.SaveConfigPath() == "" {
			flag.Usage()
			os.Exit(2)
		}
		return
	}
	output := flag.Arg(2)
	if output == "" {
		output = defaultOutputFile(flag.Arg(1))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, cfg, flag.Arg(0), flag.Arg(1), output); err != nil {
		logger.Log.Error("conversion failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}
