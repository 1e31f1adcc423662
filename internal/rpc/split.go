package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/models"
)

// SplitServiceName is the fully-qualified name of the SplitService.
const SplitServiceName = "splitledger.v1.SplitService"

// SplitService procedures. They are stateless and touch no stored document.
const (
	SplitServiceResolveSharesProcedure = "/" + SplitServiceName + "/ResolveShares"
	SplitServiceDefaultSplitProcedure  = "/" + SplitServiceName + "/DefaultSplit"
)

type ResolveSharesRequest struct {
	Expense models.Expense  `json:"expense"`
	Members []models.Member `json:"members"`
}

type ResolveSharesResponse struct {
	// Shares maps member ID to the amount that member owes.
	Shares map[string]float64 `json:"shares"`
	// Formatted holds the same shares rendered as currency.
	Formatted map[string]string `json:"formatted"`
}

type DefaultSplitRequest struct {
	SplitType models.SplitType `json:"splitType" validate:"required,oneof=equal exact percentage proportional"`
	Amount    float64          `json:"amount" validate:"gte=0"`
	Members   []models.Member  `json:"members"`
}

type DefaultSplitResponse struct {
	SplitDetails []models.SplitDetail `json:"splitDetails"`
}

// SplitServiceHandler is implemented by the split preview service.
type SplitServiceHandler interface {
	ResolveShares(context.Context, *connect.Request[ResolveSharesRequest]) (*connect.Response[ResolveSharesResponse], error)
	DefaultSplit(context.Context, *connect.Request[DefaultSplitRequest]) (*connect.Response[DefaultSplitResponse], error)
}

// NewSplitServiceHandler builds an HTTP handler for every SplitService
// procedure. It returns the path prefix to mount it on.
func NewSplitServiceHandler(svc SplitServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(SplitServiceResolveSharesProcedure, connect.NewUnaryHandler(SplitServiceResolveSharesProcedure, svc.ResolveShares, opts...))
	mux.Handle(SplitServiceDefaultSplitProcedure, connect.NewUnaryHandler(SplitServiceDefaultSplitProcedure, svc.DefaultSplit, opts...))
	return "/" + SplitServiceName + "/", mux
}

// SplitServiceClient calls a remote SplitService.
type SplitServiceClient struct {
	resolveShares *connect.Client[ResolveSharesRequest, ResolveSharesResponse]
	defaultSplit  *connect.Client[DefaultSplitRequest, DefaultSplitResponse]
}

// NewSplitServiceClient creates a client for the SplitService at baseURL.
func NewSplitServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SplitServiceClient {
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &SplitServiceClient{
		resolveShares: connect.NewClient[ResolveSharesRequest, ResolveSharesResponse](httpClient, baseURL+SplitServiceResolveSharesProcedure, opts...),
		defaultSplit:  connect.NewClient[DefaultSplitRequest, DefaultSplitResponse](httpClient, baseURL+SplitServiceDefaultSplitProcedure, opts...),
	}
}

func (c *SplitServiceClient) ResolveShares(ctx context.Context, req *connect.Request[ResolveSharesRequest]) (*connect.Response[ResolveSharesResponse], error) {
	return c.resolveShares.CallUnary(ctx, req)
}

func (c *SplitServiceClient) DefaultSplit(ctx context.Context, req *connect.Request[DefaultSplitRequest]) (*connect.Response[DefaultSplitResponse], error) {
	return c.defaultSplit.CallUnary(ctx, req)
}
