package cmd

import (
	"context"
	"fmt"
	"os"
	"sectorrotation/internal/domain"
	"sectorrotation/internal/logger"
	l1_service "sectorrotation/internal/service/l1"
	l3_service "sectorrotation/internal/service/l3"
	"sectorrotation/internal/util"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const configEnvVar = "SECTOR_CONFIG"

func Execute(ctx context.Context) error {
	return newRootCmd(ctx).ExecuteContext(ctx)
}

func newRootCmd(ctx context.Context) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "sectorrotation",
		Short:         "Sector ETF momentum rotation backtester",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv(configEnvVar), "strategy config yaml (defaults when empty)")

	loadDeps := func() (*Dependencies, error) {
		return NewDependencies(configPath)
	}

	root.AddCommand(backtestCmd(ctx, loadDeps))
	root.AddCommand(currentCmd(ctx, loadDeps))
	root.AddCommand(ingestCmd(ctx, loadDeps))
	root.AddCommand(holdingsCmd(ctx, loadDeps))
	root.AddCommand(serveCmd(&configPath))

	return root
}

type depsLoader func() (*Dependencies, error)

func backtestInput(deps *Dependencies) (*l3_service.BacktestInput, error) {
	rotationConfig, err := deps.Config.ToRotationConfig()
	if err != nil {
		return nil, err
	}
	start, end, err := deps.Config.DateRange(time.Now())
	if err != nil {
		return nil, err
	}
	return &l3_service.BacktestInput{
		RotationConfig: rotationConfig,
		Start:          start,
		End:            end,
	}, nil
}

func backtestCmd(ctx context.Context, loadDeps depsLoader) *cobra.Command {
	var (
		out           string
		skipHoldings  bool
		holdingsCount int
	)
	c := &cobra.Command{
		Use:   "backtest",
		Short: "Run the rotation backtest and print summary statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.FromContext(ctx)
			deps, err := loadDeps()
			if err != nil {
				return err
			}
			defer deps.Close()

			input, err := backtestInput(deps)
			if err != nil {
				return err
			}
			log.Infof("config: %+v", input.RotationConfig)
			log.Infof("period: %s - %s", input.Start.Format(time.DateOnly), input.End.Format(time.DateOnly))

			result, err := deps.BacktestService.Backtest(ctx, *input)
			if err != nil {
				return err
			}
			if len(result.Missing) > 0 {
				log.Warnf("no prices for %s, left out of every selection", strings.Join(result.Missing, ", "))
			}

			printReturns(cmd, input.RotationConfig.Benchmark, result)
			report, err := l3_service.NewPerformanceReport(result, input.RotationConfig.RebalanceFrequency)
			if err != nil {
				log.Warnf("skipping summary statistics: %s", err.Error())
			} else {
				printReport(cmd, input.RotationConfig.Benchmark, report)
			}

			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				if err := l3_service.WriteEquityCsv(f, result); err != nil {
					return fmt.Errorf("failed to write equity csv: %w", err)
				}
				log.Infof("wrote equity lines to %s", out)
			}

			if skipHoldings {
				return nil
			}
			for _, sector := range input.RotationConfig.SelectedSectors {
				holdings, err := deps.HoldingsService.TopHoldings(ctx, sector, holdingsCount)
				if err != nil {
					log.Warnf("skipping holdings for %s: %s", sector, err.Error())
					continue
				}
				printHoldings(cmd, sector, holdings)
			}
			return nil
		},
	}
	c.Flags().StringVarP(&out, "out", "o", "", "write returns and equity lines to this csv file")
	c.Flags().BoolVar(&skipHoldings, "skip-holdings", false, "do not fetch holdings for the selected sectors")
	c.Flags().IntVarP(&holdingsCount, "count", "n", l1_service.DefaultHoldingsCount, "holdings to print per sector")
	return c
}

func currentCmd(ctx context.Context, loadDeps depsLoader) *cobra.Command {
	var asOf string
	c := &cobra.Command{
		Use:   "current",
		Short: "Print the selection for the latest rebalance period",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := loadDeps()
			if err != nil {
				return err
			}
			defer deps.Close()

			input, err := backtestInput(deps)
			if err != nil {
				return err
			}
			if asOf != "" {
				input.End, err = util.ParseDate(asOf)
				if err != nil {
					return err
				}
			}
			current, err := deps.BacktestService.CurrentSelection(ctx, *input)
			if err != nil {
				return err
			}
			printCurrentSelection(cmd, current)
			return nil
		},
	}
	c.Flags().StringVar(&asOf, "as-of", "", "only use closes on or before this date (YYYY-MM-DD)")
	return c
}

func ingestCmd(ctx context.Context, loadDeps depsLoader) *cobra.Command {
	var start string
	c := &cobra.Command{
		Use:   "ingest",
		Short: "Copy daily closes from Yahoo into the configured price store",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := loadDeps()
			if err != nil {
				return err
			}
			defer deps.Close()

			ingestService, err := deps.NewIngestService()
			if err != nil {
				return err
			}
			rotationConfig, err := deps.Config.ToRotationConfig()
			if err != nil {
				return err
			}
			from, end, err := deps.Config.DateRange(time.Now())
			if err != nil {
				return err
			}
			if start != "" {
				from, err = util.ParseDate(start)
				if err != nil {
					return err
				}
			}
			return ingestService.IngestPrices(ctx, rotationConfig.Symbols(), from, end)
		},
	}
	c.Flags().StringVar(&start, "start", "", "first date to ingest (defaults to start_date)")
	return c
}

func holdingsCmd(ctx context.Context, loadDeps depsLoader) *cobra.Command {
	var n int
	c := &cobra.Command{
		Use:   "holdings [sector...]",
		Short: "Print the top holdings of sector ETFs (defaults to selected_sectors)",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := loadDeps()
			if err != nil {
				return err
			}
			defer deps.Close()

			sectors := args
			if len(sectors) == 0 {
				sectors = deps.Config.SelectedSectors
			}
			for _, sector := range sectors {
				holdings, err := deps.HoldingsService.TopHoldings(ctx, strings.ToUpper(sector), n)
				if err != nil {
					return err
				}
				printHoldings(cmd, sector, holdings)
			}
			return nil
		},
	}
	c.Flags().IntVarP(&n, "count", "n", l1_service.DefaultHoldingsCount, "holdings per sector")
	return c
}

func serveCmd(configPath *string) *cobra.Command {
	var port int
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiHandler, err := InitializeDependencies(*configPath)
			if err != nil {
				return err
			}
			defer CloseDependencies(apiHandler)
			return apiHandler.StartApi(port)
		},
	}
	c.Flags().IntVarP(&port, "port", "p", 3009, "port to listen on")
	return c
}

func printReturns(cmd *cobra.Command, benchmark string, result *l3_service.BacktestResult) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\n%-12s %10s %10s  %s\n", "date", "strategy", benchmark, "holdings")
	for i, r := range result.Strategy {
		holdings := "cash"
		if i < len(result.Selections) && !result.Selections[i].IsEmpty() {
			holdings = strings.Join(result.Selections[i].Symbols, ",")
		}
		fmt.Fprintf(w, "%-12s %9.2f%% %9.2f%%  %s\n", r.Date.Format(time.DateOnly), r.Return*100, result.Benchmark[i].Return*100, holdings)
	}
}

func printReport(cmd *cobra.Command, benchmark string, report *l3_service.PerformanceReport) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\n%-20s %12s %12s\n", "", "strategy", benchmark)
	row := func(label string, s, b float64) {
		fmt.Fprintf(w, "%-20s %11.2f%% %11.2f%%\n", label, s*100, b*100)
	}
	row("total return", report.Strategy.TotalReturn, report.Benchmark.TotalReturn)
	row("cagr", report.Strategy.AnnualizedReturn, report.Benchmark.AnnualizedReturn)
	row("annualized vol", report.Strategy.AnnualizedStdev, report.Benchmark.AnnualizedStdev)
	row("max drawdown", report.Strategy.MaxDrawdown, report.Benchmark.MaxDrawdown)
	fmt.Fprintf(w, "%-20s %12.2f %12.2f\n", "sharpe", report.Strategy.SharpeRatio, report.Benchmark.SharpeRatio)
	fmt.Fprintf(w, "%-20s %12.4f %12.4f\n", "final equity", report.StrategyEquity.Final(), report.BenchmarkEquity.Final())
}

func printHoldings(cmd *cobra.Command, sector string, holdings []domain.Holding) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\ntop %d holdings for %s:\n", len(holdings), sector)
	for _, h := range holdings {
		fmt.Fprintf(w, "%d. %s - %s (%.2f%%)\n", h.Rank, h.Symbol, h.Name, h.Weight)
	}
}

func printCurrentSelection(cmd *cobra.Command, current *l3_service.CurrentSelectionResult) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\nselection for period ending %s (prices through %s)\n", current.Snapshot.Date.Format(time.DateOnly), current.AsOf.Format(time.DateOnly))
	if current.Selection.IsEmpty() {
		fmt.Fprintln(w, "no sector passes the filters: cash")
	} else {
		fmt.Fprintf(w, "hold: %s\n", strings.Join(current.Selection.Symbols, ", "))
	}

	fmt.Fprintf(w, "\n%-6s %10s %10s %10s %10s\n", "symbol", "momentum", "vol", "ma", "price")
	for _, symbol := range current.Snapshot.Symbols {
		v := current.Snapshot.Values[symbol]
		fmt.Fprintf(w, "%-6s %10s %10s %10s %10s\n", symbol, formatValue(v.Momentum, true), formatValue(v.Volatility, true), formatValue(v.TrendReference, false), formatValue(v.Price, false))
	}
}

func formatValue(v *float64, percent bool) string {
	if v == nil {
		return "-"
	}
	if percent {
		return fmt.Sprintf("%.2f%%", *v*100)
	}
	return fmt.Sprintf("%.2f", *v)
}
