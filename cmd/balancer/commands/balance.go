package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/etfbalancer/internal/balancer"
	"github.com/wonny/etfbalancer/internal/contracts"
	"github.com/wonny/etfbalancer/internal/history"
	"github.com/wonny/etfbalancer/internal/portfolio"
	"github.com/wonny/etfbalancer/internal/quotes"
)

// balanceCmd represents the balance command
var balanceCmd = &cobra.Command{
	Use:   "balance FILE",
	Short: "포트폴리오 리밸런싱 계산",
	Long: `포트폴리오 파일(.json/.yaml/.yml)을 읽어 리밸런싱 결과를 계산합니다.

이 명령어는:
- 목표 비중 대비 과대 종목 매도 (비과세 계좌 우선)
- 부족 비중 순서로 매수 (고배당은 비과세 계좌 우선)
- 남은 현금으로 추가 매수
- 계좌별 주문 요약 출력

Example:
  go run ./cmd/balancer balance portfolio.yaml
  go run ./cmd/balancer balance portfolio.yaml --refresh-quotes
  go run ./cmd/balancer balance portfolio.json --format json --record`,
	Args: cobra.ExactArgs(1),
	RunE: runBalance,
}

var (
	balanceRefresh bool
	balanceFormat  string
	balanceRecord  bool
)

func init() {
	rootCmd.AddCommand(balanceCmd)

	// Flags
	balanceCmd.Flags().BoolVar(&balanceRefresh, "refresh-quotes", false, "시세를 조회해 market 항목 갱신")
	balanceCmd.Flags().StringVar(&balanceFormat, "format", "table", "출력 형식 (table|json|yaml)")
	balanceCmd.Flags().BoolVar(&balanceRecord, "record", false, "실행 기록 저장 (DATABASE_URL 또는 SQLITE_PATH)")
}

func runBalance(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch balanceFormat {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (table, json, yaml)", balanceFormat)
	}

	// 1. Load config
	cfg, log, err := loadConfig(true)
	if err != nil {
		return err
	}

	// 2. Load portfolio
	p, err := portfolio.LoadFile(args[0])
	if err != nil {
		return err
	}

	// 3. Refresh quotes
	if balanceRefresh {
		src, redisClient, err := newQuoteSource(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		if _, err := quotes.Refresh(ctx, src, p); err != nil {
			return err
		}
	}

	// 4. Validate
	if err := p.Validate(); err != nil {
		PrintError(cmd.ErrOrStderr(), err.Error())
		return err
	}

	// 5. Rebalance
	start := time.Now()
	results := balancer.New(log).Balance(p)
	elapsed := time.Since(start)

	// 6. Record
	if balanceRecord {
		recorder, err := history.Open(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer recorder.Close()

		run := history.NewRun(history.SourceCLI, p, results, elapsed)
		if err := recorder.Record(ctx, run); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		log.WithRun(run.ID).Info("Run recorded")
	}

	// 7. Output
	if balanceFormat == "table" {
		printResults(out, p, results)
		return nil
	}
	data, err := portfolio.Marshal(results, portfolio.Format(balanceFormat))
	if err != nil {
		return err
	}
	_, err = out.Write(append(data, '\n'))
	return err
}

// printResults renders the rebalance as human-readable tables
func printResults(w io.Writer, p *contracts.Portfolio, results *contracts.Results) {
	prices := p.Prices()

	PrintHeader(w, "Rebalance")
	PrintKeyValue(w, "Total value", FormatMoney(p.TotalValue()), 12)
	PrintKeyValue(w, "Cash left", FormatMoney(results.TotalCash), 12)
	PrintKeyValue(w, "Orders", fmt.Sprintf("%d", len(results.Orders)), 12)
	PrintSeparator(w)

	// Orders
	fmt.Fprintln(w)
	if len(results.Orders) == 0 {
		PrintSuccess(w, "Already balanced: no orders")
	} else {
		widths := []int{14, 8, 5, 10, 12, 14}
		PrintTableHeader(w, []string{"Account", "Symbol", "Side", "Shares", "Price", "Value"}, widths)
		for _, o := range results.Orders {
			PrintTableRow(w, []string{
				o.Account, o.Symbol, string(o.Side), FormatShares(o.Qty), FormatMoney(o.Price), FormatMoney(o.Value),
			}, widths)
		}
	}

	// Positions per account
	for _, acct := range accountNames(p) {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "[%s] cash %s\n", acct, FormatMoney(results.Cash[acct]))

		positions := results.Positions[acct]
		symbols := make([]string, 0, len(positions))
		for symbol, shares := range positions {
			if shares > 0 {
				symbols = append(symbols, symbol)
			}
		}
		sort.Strings(symbols)

		widths := []int{8, 10, 14}
		for _, symbol := range symbols {
			shares := positions[symbol]
			PrintTableRow(w, []string{symbol, FormatShares(shares), FormatMoney(shares * prices[symbol])}, widths)
		}
	}

	// Allocation vs target
	fmt.Fprintln(w)
	widths := []int{8, 10, 10, 10}
	PrintTableHeader(w, []string{"Symbol", "Shares", "Target", "Actual"}, widths)
	for _, symbol := range p.Symbols() {
		PrintTableRow(w, []string{
			symbol,
			FormatShares(results.TotalShares(symbol)),
			FormatPercent(p.Target[symbol]),
			FormatPercent(results.Allocations[symbol]),
		}, widths)
	}
	PrintTableRow(w, []string{contracts.CashKey, "", "", FormatPercent(results.Allocations[contracts.CashKey])}, widths)
}

// accountNames returns account names in portfolio order without duplicates
func accountNames(p *contracts.Portfolio) []string {
	seen := make(map[string]bool)
	names := make([]string, 0, len(p.Accounts))
	for _, acct := range p.Accounts {
		if !seen[acct.Name] {
			seen[acct.Name] = true
			names = append(names, acct.Name)
		}
	}
	return names
}
