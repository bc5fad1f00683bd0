package history

import (
	"context"

	"github.com/wonny/etfbalancer/internal/contracts"
)

// NoopRecorder discards runs. Used when no history store is configured.
type NoopRecorder struct{}

var _ contracts.RunRecorder = (*NoopRecorder)(nil)

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Record(_ context.Context, _ *contracts.Run) error        { return nil }
func (n *NoopRecorder) Get(_ context.Context, _ string) (*contracts.Run, error) { return nil, ErrRunNotFound }
func (n *NoopRecorder) Close() error                                            { return nil }

func (n *NoopRecorder) List(_ context.Context, _ int) ([]contracts.RunSummary, error) {
	return []contracts.RunSummary{}, nil
}
