package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/rpc"
)

// SplitService implements the Connect SplitService. It previews how an
// expense divides before the member commits it, and touches no storage.
type SplitService struct{}

var _ rpc.SplitServiceHandler = (*SplitService)(nil)

// NewSplitService creates a new SplitService.
func NewSplitService() *SplitService {
	return &SplitService{}
}

// ResolveShares handles expense split calculation
func (s *SplitService) ResolveShares(ctx context.Context, req *connect.Request[rpc.ResolveSharesRequest]) (*connect.Response[rpc.ResolveSharesResponse], error) {
	expense := req.Msg.Expense
	if !expense.SplitType.Valid() {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown split type %q", expense.SplitType))
	}

	shares := calculator.ResolveShares(expense, req.Msg.Members)
	formatted := make(map[string]string, len(shares))
	for id, share := range shares {
		slog.Debug("Member share",
			"member_id", id,
			"share", share,
		)
		formatted[id] = calculator.FormatCurrency(share)
	}

	return connect.NewResponse(&rpc.ResolveSharesResponse{
		Shares:    shares,
		Formatted: formatted,
	}), nil
}

// DefaultSplit returns the split details a new expense starts with.
func (s *SplitService) DefaultSplit(ctx context.Context, req *connect.Request[rpc.DefaultSplitRequest]) (*connect.Response[rpc.DefaultSplitResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	details := calculator.DefaultSplitDetails(req.Msg.SplitType, req.Msg.Amount, req.Msg.Members)

	return connect.NewResponse(&rpc.DefaultSplitResponse{SplitDetails: details}), nil
}
