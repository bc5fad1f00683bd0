package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/etfbalancer/internal/portfolio"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "포트폴리오 파일 검증",
	Long: `리밸런싱 전에 포트폴리오 파일을 검증합니다.

검사 항목:
- 목표 비중 합계 = 1.0 (±0.01)
- 보유/목표 종목 모두 가격 존재

Example:
  go run ./cmd/balancer validate portfolio.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	p, err := portfolio.LoadFile(args[0])
	if err != nil {
		PrintError(out, err.Error())
		return err
	}

	if err := p.Validate(); err != nil {
		PrintError(out, err.Error())
		return err
	}

	PrintSuccess(out, fmt.Sprintf("%s: %d accounts, %d symbols, total %s",
		args[0], len(p.Accounts), len(p.Symbols()), FormatMoney(p.TotalValue())))
	return nil
}
