package commands

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wonny/etfbalancer/internal/history"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "리밸런싱 실행 기록 조회",
	Long: `저장된 리밸런싱 실행 기록을 조회합니다.
DATABASE_URL이 있으면 PostgreSQL, 없으면 SQLITE_PATH를 사용합니다.

Example:
  go run ./cmd/balancer history list --limit 10
  go run ./cmd/balancer history show <run-id>`,
}

// historyListCmd represents the list subcommand
var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "최근 실행 목록",
	RunE:  runHistoryList,
}

// historyShowCmd represents the show subcommand
var historyShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "실행 상세 (JSON)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var (
	historyLimit int
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)

	// Flags
	historyListCmd.Flags().IntVar(&historyLimit, "limit", history.DefaultListLimit, "조회 개수")
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, log, err := loadConfig(true)
	if err != nil {
		return err
	}

	recorder, err := history.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer recorder.Close()

	runs, err := recorder.List(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		PrintWarning(out, "No runs recorded")
		return nil
	}

	widths := []int{36, 10, 16, 14, 6, 14}
	PrintTableHeader(out, []string{"ID", "Source", "Total value", "Cash left", "Orders", "When"}, widths)
	for _, run := range runs {
		PrintTableRow(out, []string{
			run.ID,
			run.Source,
			FormatMoney(run.TotalValue),
			FormatMoney(run.TotalCash),
			fmt.Sprintf("%d", run.OrderCount),
			humanize.Time(run.CreatedAt),
		}, widths)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, log, err := loadConfig(true)
	if err != nil {
		return err
	}

	recorder, err := history.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer recorder.Close()

	run, err := recorder.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("run %s: %w", args[0], err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}
