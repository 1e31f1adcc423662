package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

// GroupServiceName is the fully-qualified name of the GroupService.
const GroupServiceName = "splitledger.v1.GroupService"

// GroupService procedures.
const (
	GroupServiceFetchGroupsProcedure           = "/" + GroupServiceName + "/FetchGroups"
	GroupServiceSaveGroupsProcedure            = "/" + GroupServiceName + "/SaveGroups"
	GroupServiceExistsByEmailProcedure         = "/" + GroupServiceName + "/ExistsByEmail"
	GroupServiceSyncGroupToMemberProcedure     = "/" + GroupServiceName + "/SyncGroupToMember"
	GroupServiceSyncGroupToAllMembersProcedure = "/" + GroupServiceName + "/SyncGroupToAllMembers"
	GroupServiceGetGroupSummaryProcedure       = "/" + GroupServiceName + "/GetGroupSummary"
)

type FetchGroupsRequest struct{}

type FetchGroupsResponse struct {
	Groups []models.Group `json:"groups"`
	// Found is false when the caller has never saved a document.
	Found bool `json:"found"`
}

type SaveGroupsRequest struct {
	Groups []models.Group `json:"groups"`
}

type SaveGroupsResponse struct{}

type ExistsByEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ExistsByEmailResponse struct {
	Exists bool `json:"exists"`
}

type SyncGroupToMemberRequest struct {
	Email string       `json:"email" validate:"required,email"`
	Group models.Group `json:"group"`
}

type SyncGroupToMemberResponse struct {
	// OK is false when no account uses the email.
	OK bool `json:"ok"`
}

type SyncGroupToAllMembersRequest struct {
	Group models.Group `json:"group"`
}

type SyncGroupToAllMembersResponse struct{}

type GetGroupSummaryRequest struct {
	GroupID string `json:"groupId" validate:"required"`
}

type GetGroupSummaryResponse struct {
	Balances    []calculator.MemberBalance `json:"balances"`
	Settlements []models.Settlement        `json:"settlements"`
	// TotalExpenses is the sum of every expense amount in the group.
	TotalExpenses float64 `json:"totalExpenses"`
}

// GroupServiceHandler is implemented by the group document service.
type GroupServiceHandler interface {
	FetchGroups(context.Context, *connect.Request[FetchGroupsRequest]) (*connect.Response[FetchGroupsResponse], error)
	SaveGroups(context.Context, *connect.Request[SaveGroupsRequest]) (*connect.Response[SaveGroupsResponse], error)
	ExistsByEmail(context.Context, *connect.Request[ExistsByEmailRequest]) (*connect.Response[ExistsByEmailResponse], error)
	SyncGroupToMember(context.Context, *connect.Request[SyncGroupToMemberRequest]) (*connect.Response[SyncGroupToMemberResponse], error)
	SyncGroupToAllMembers(context.Context, *connect.Request[SyncGroupToAllMembersRequest]) (*connect.Response[SyncGroupToAllMembersResponse], error)
	GetGroupSummary(context.Context, *connect.Request[GetGroupSummaryRequest]) (*connect.Response[GetGroupSummaryResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler for every GroupService
// procedure. It returns the path prefix to mount it on.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(GroupServiceFetchGroupsProcedure, connect.NewUnaryHandler(GroupServiceFetchGroupsProcedure, svc.FetchGroups, opts...))
	mux.Handle(GroupServiceSaveGroupsProcedure, connect.NewUnaryHandler(GroupServiceSaveGroupsProcedure, svc.SaveGroups, opts...))
	mux.Handle(GroupServiceExistsByEmailProcedure, connect.NewUnaryHandler(GroupServiceExistsByEmailProcedure, svc.ExistsByEmail, opts...))
	mux.Handle(GroupServiceSyncGroupToMemberProcedure, connect.NewUnaryHandler(GroupServiceSyncGroupToMemberProcedure, svc.SyncGroupToMember, opts...))
	mux.Handle(GroupServiceSyncGroupToAllMembersProcedure, connect.NewUnaryHandler(GroupServiceSyncGroupToAllMembersProcedure, svc.SyncGroupToAllMembers, opts...))
	mux.Handle(GroupServiceGetGroupSummaryProcedure, connect.NewUnaryHandler(GroupServiceGetGroupSummaryProcedure, svc.GetGroupSummary, opts...))
	return "/" + GroupServiceName + "/", mux
}

// GroupServiceClient calls a remote GroupService.
type GroupServiceClient struct {
	fetchGroups           *connect.Client[FetchGroupsRequest, FetchGroupsResponse]
	saveGroups            *connect.Client[SaveGroupsRequest, SaveGroupsResponse]
	existsByEmail         *connect.Client[ExistsByEmailRequest, ExistsByEmailResponse]
	syncGroupToMember     *connect.Client[SyncGroupToMemberRequest, SyncGroupToMemberResponse]
	syncGroupToAllMembers *connect.Client[SyncGroupToAllMembersRequest, SyncGroupToAllMembersResponse]
	getGroupSummary       *connect.Client[GetGroupSummaryRequest, GetGroupSummaryResponse]
}

// NewGroupServiceClient creates a client for the GroupService at baseURL.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &GroupServiceClient{
		fetchGroups:           connect.NewClient[FetchGroupsRequest, FetchGroupsResponse](httpClient, baseURL+GroupServiceFetchGroupsProcedure, opts...),
		saveGroups:            connect.NewClient[SaveGroupsRequest, SaveGroupsResponse](httpClient, baseURL+GroupServiceSaveGroupsProcedure, opts...),
		existsByEmail:         connect.NewClient[ExistsByEmailRequest, ExistsByEmailResponse](httpClient, baseURL+GroupServiceExistsByEmailProcedure, opts...),
		syncGroupToMember:     connect.NewClient[SyncGroupToMemberRequest, SyncGroupToMemberResponse](httpClient, baseURL+GroupServiceSyncGroupToMemberProcedure, opts...),
		syncGroupToAllMembers: connect.NewClient[SyncGroupToAllMembersRequest, SyncGroupToAllMembersResponse](httpClient, baseURL+GroupServiceSyncGroupToAllMembersProcedure, opts...),
		getGroupSummary:       connect.NewClient[GetGroupSummaryRequest, GetGroupSummaryResponse](httpClient, baseURL+GroupServiceGetGroupSummaryProcedure, opts...),
	}
}

func (c *GroupServiceClient) FetchGroups(ctx context.Context, req *connect.Request[FetchGroupsRequest]) (*connect.Response[FetchGroupsResponse], error) {
	return c.fetchGroups.CallUnary(ctx, req)
}

func (c *GroupServiceClient) SaveGroups(ctx context.Context, req *connect.Request[SaveGroupsRequest]) (*connect.Response[SaveGroupsResponse], error) {
	return c.saveGroups.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ExistsByEmail(ctx context.Context, req *connect.Request[ExistsByEmailRequest]) (*connect.Response[ExistsByEmailResponse], error) {
	return c.existsByEmail.CallUnary(ctx, req)
}

func (c *GroupServiceClient) SyncGroupToMember(ctx context.Context, req *connect.Request[SyncGroupToMemberRequest]) (*connect.Response[SyncGroupToMemberResponse], error) {
	return c.syncGroupToMember.CallUnary(ctx, req)
}

func (c *GroupServiceClient) SyncGroupToAllMembers(ctx context.Context, req *connect.Request[SyncGroupToAllMembersRequest]) (*connect.Response[SyncGroupToAllMembersResponse], error) {
	return c.syncGroupToAllMembers.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroupSummary(ctx context.Context, req *connect.Request[GetGroupSummaryRequest]) (*connect.Response[GetGroupSummaryResponse], error) {
	return c.getGroupSummary.CallUnary(ctx, req)
}
