package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/nulzo/studio-relay/internal/cli"
	"github.com/nulzo/studio-relay/internal/config"
	"github.com/nulzo/studio-relay/internal/llm"
	"github.com/nulzo/studio-relay/internal/platform/logger"
	"github.com/nulzo/studio-relay/internal/probe"
	"github.com/nulzo/studio-relay/internal/registry"
	"github.com/nulzo/studio-relay/internal/store/results"
	"github.com/nulzo/studio-relay/pkg/api"
	"go.uber.org/zap"

	_ "github.com/nulzo/studio-relay/internal/llm/runpod"
)

func main() {
	models := flag.String("models", "", "Comma separated model ids to probe (default: all)")
	out := flag.String("out", "", "Results file (default: results.path from config)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", cli.CrossMark(), err)
		os.Exit(1)
	}

	logger.Initialize(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, EnableColor: cli.Enabled()})
	defer logger.Sync()

	if !cfg.RunPodConfigured() {
		logger.Fatal("RUNPOD_API_KEY is required to probe endpoints")
	}

	reg, err := registry.FromConfig(cfg)
	if err != nil {
		logger.Fatal("model registry", zap.Error(err))
	}

	factory, err := llm.Get(registry.RunPod)
	if err != nil {
		logger.Fatal("runpod provider", zap.Error(err))
	}
	provider, err := factory(cfg, nil)
	if err != nil {
		logger.Fatal("runpod provider", zap.Error(err))
	}
	checker, ok := provider.(llm.HealthChecker)
	if !ok {
		logger.Fatal("runpod provider does not report endpoint health")
	}

	var ids []string
	if *models != "" {
		for _, id := range strings.Split(*models, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println(cli.Banner("probing model endpoints"))

	res, err := probe.New(reg, checker, logger.With(zap.String("component", "probe"))).Run(ctx, ids...)
	if err != nil {
		logger.Fatal("probe run", zap.Error(err))
	}

	path := cfg.Results.Path
	if *out != "" {
		path = *out
	}
	if err := results.New(path).Save(ctx, res); err != nil {
		logger.Fatal("save results", zap.String("path", path), zap.Error(err))
	}

	printSummary(res)
	logger.Info(fmt.Sprintf("%s results written", cli.CheckMark()), zap.String("path", path))
}

func printSummary(res []api.ModelTestResult) {
	counts := map[string]int{}
	for _, r := range res {
		counts[r.Status]++

		mark := cli.WarningSign()
		switch r.Status {
		case probe.StatusWorking:
			mark = cli.CheckMark()
		case probe.StatusBroken:
			mark = cli.CrossMark()
		}
		fmt.Printf("%s %-28s %-8s %s\n", mark, r.ModelName, r.Status, cli.Style(r.Recommendation, cli.Dim))
	}

	fmt.Println()
	cli.PrettyPrint(counts)
}
