package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/etfbalancer/internal/balancer"
	"github.com/wonny/etfbalancer/internal/contracts"
	"github.com/wonny/etfbalancer/internal/history"
	"github.com/wonny/etfbalancer/internal/scheduler"
	"github.com/wonny/etfbalancer/internal/scheduler/jobs"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "정기 리밸런싱 스케줄러 실행",
	Long: `포트폴리오 파일을 cron 일정에 따라 반복 리밸런싱합니다.

매 실행마다:
- 포트폴리오 파일 다시 읽기
- 시세 갱신 (--refresh-quotes)
- 리밸런싱 후 실행 기록 저장
- 결과 파일 저장 (--output)

Cron 표현식은 초 필드를 포함합니다 (6 fields).

Example:
  go run ./cmd/balancer schedule --file portfolio.yaml
  go run ./cmd/balancer schedule --file portfolio.yaml --cron "0 0 17 * * MON-FRI" --refresh-quotes
  go run ./cmd/balancer schedule --file portfolio.yaml --once`,
	RunE: runSchedule,
}

var (
	scheduleFile    string
	scheduleCron    string
	scheduleOutput  string
	scheduleRefresh bool
	scheduleOnce    bool
)

func init() {
	rootCmd.AddCommand(scheduleCmd)

	// Flags
	scheduleCmd.Flags().StringVar(&scheduleFile, "file", "", "포트폴리오 파일 (.json/.yaml/.yml)")
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "0 30 16 * * MON-FRI", "cron 일정 (초 포함)")
	scheduleCmd.Flags().StringVar(&scheduleOutput, "output", "", "결과 파일 경로 (.json/.yaml)")
	scheduleCmd.Flags().BoolVar(&scheduleRefresh, "refresh-quotes", false, "매 실행 전 시세 갱신")
	scheduleCmd.Flags().BoolVar(&scheduleOnce, "once", false, "한 번만 실행하고 종료")
	scheduleCmd.MarkFlagRequired("file")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, log, err := loadConfig(false)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Run history
	recorder, err := history.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer recorder.Close()

	// 3. Quotes (optional)
	var src contracts.QuoteSource
	if scheduleRefresh {
		quoteSource, redisClient, err := newQuoteSource(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		src = quoteSource
	}

	// 4. Job
	job := jobs.NewRebalanceJob(jobs.RebalanceJobConfig{
		Path:       scheduleFile,
		OutputPath: scheduleOutput,
		Schedule:   scheduleCron,
	}, balancer.New(log), src, recorder, log)

	sched := scheduler.New(log)
	if err := sched.AddJob(job); err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	// 5. One-shot
	if scheduleOnce {
		result, err := sched.RunNow(ctx, job.Name())
		if err != nil {
			return err
		}
		if !result.Success {
			PrintError(out, result.Error)
			return fmt.Errorf("job %s failed after %d attempts", result.JobName, result.Attempts)
		}
		PrintSuccess(out, fmt.Sprintf("%s completed (run %s)", job.Name(), job.LastRun().ID))
		return nil
	}

	// 6. Run on schedule until interrupted
	sched.Start()
	if next, ok := sched.NextRun(job.Name()); ok {
		PrintSuccess(out, fmt.Sprintf("%s scheduled (%s), next run %s", job.Name(), scheduleCron, next.Format("2006-01-02 15:04:05")))
	}

	<-ctx.Done()
	sched.Stop()

	stats := sched.GetJobStats()[job.Name()]
	PrintKeyValue(out, "Runs", fmt.Sprintf("%d", stats.TotalRuns), 8)
	PrintKeyValue(out, "Failures", fmt.Sprintf("%d", stats.FailureCount), 8)
	return nil
}
