package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/rpc"
	"github.com/mmynk/splitledger/internal/storage"
)

// GroupService implements the Connect GroupService. It is the server side of
// group replication: each member's document is read and written whole, and
// pushes overwrite a group by ID in another member's document.
type GroupService struct {
	store storage.Store
}

var _ rpc.GroupServiceHandler = (*GroupService)(nil)

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// FetchGroups returns the caller's group document.
func (s *GroupService) FetchGroups(ctx context.Context, req *connect.Request[rpc.FetchGroupsRequest]) (*connect.Response[rpc.FetchGroupsResponse], error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	groups, found, err := s.store.GetGroups(ctx, ownerID)
	if err != nil {
		slog.Error("FetchGroups failed", "owner_id", ownerID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Debug("FetchGroups successful", "owner_id", ownerID, "found", found, "groups_count", len(groups))
	return connect.NewResponse(&rpc.FetchGroupsResponse{Groups: groups, Found: found}), nil
}

// SaveGroups overwrites the caller's group document.
func (s *GroupService) SaveGroups(ctx context.Context, req *connect.Request[rpc.SaveGroupsRequest]) (*connect.Response[rpc.SaveGroupsResponse], error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	for _, g := range req.Msg.Groups {
		if g.ID == "" {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("group without id"))
		}
	}

	if err := s.store.SaveGroups(ctx, ownerID, req.Msg.Groups); err != nil {
		slog.Error("SaveGroups failed", "owner_id", ownerID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Groups saved", "owner_id", ownerID, "groups_count", len(req.Msg.Groups))
	return connect.NewResponse(&rpc.SaveGroupsResponse{}), nil
}

// ExistsByEmail reports whether an account uses the email.
func (s *GroupService) ExistsByEmail(ctx context.Context, req *connect.Request[rpc.ExistsByEmailRequest]) (*connect.Response[rpc.ExistsByEmailResponse], error) {
	req.Msg.Email = models.NormalizeEmail(req.Msg.Email)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Msg.Email)
	if err != nil {
		slog.Error("ExistsByEmail failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&rpc.ExistsByEmailResponse{Exists: user != nil}), nil
}

// SyncGroupToMember writes a group into the document of the member with the
// given email, replacing their copy of it.
func (s *GroupService) SyncGroupToMember(ctx context.Context, req *connect.Request[rpc.SyncGroupToMemberRequest]) (*connect.Response[rpc.SyncGroupToMemberResponse], error) {
	req.Msg.Email = models.NormalizeEmail(req.Msg.Email)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	group := req.Msg.Group
	if group.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("group id required"))
	}

	ok, err := s.store.SyncGroupToMember(ctx, req.Msg.Email, group)
	if err != nil {
		slog.Error("SyncGroupToMember failed", "group_id", group.ID, "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("SyncGroupToMember", "group_id", group.ID, "email", req.Msg.Email, "ok", ok)
	return connect.NewResponse(&rpc.SyncGroupToMemberResponse{OK: ok}), nil
}

// SyncGroupToAllMembers writes a group into every member's document.
func (s *GroupService) SyncGroupToAllMembers(ctx context.Context, req *connect.Request[rpc.SyncGroupToAllMembersRequest]) (*connect.Response[rpc.SyncGroupToAllMembersResponse], error) {
	group := req.Msg.Group
	if group.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("group id required"))
	}
	if len(group.Members) == 0 {
		return connect.NewResponse(&rpc.SyncGroupToAllMembersResponse{}), nil
	}

	if err := s.store.SyncGroupToAllMembers(ctx, group); err != nil {
		slog.Error("SyncGroupToAllMembers failed", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("SyncGroupToAllMembers", "group_id", group.ID, "members_count", len(group.Members))
	return connect.NewResponse(&rpc.SyncGroupToAllMembersResponse{}), nil
}

// GetGroupSummary computes balances and suggested settlements for one of
// the caller's groups.
func (s *GroupService) GetGroupSummary(ctx context.Context, req *connect.Request[rpc.GetGroupSummaryRequest]) (*connect.Response[rpc.GetGroupSummaryResponse], error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	groupID := req.Msg.GroupID
	slog.Info("GetGroupSummary request received", "group_id", groupID)

	groups, _, err := s.store.GetGroups(ctx, ownerID)
	if err != nil {
		slog.Error("GetGroupSummary failed - could not load groups", "owner_id", ownerID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	var group *models.Group
	for i := range groups {
		if groups[i].ID == groupID {
			group = &groups[i]
			break
		}
	}
	if group == nil {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("group not found"))
	}

	var total float64
	for _, e := range group.Expenses {
		total += e.Amount
	}

	resp := &rpc.GetGroupSummaryResponse{
		Balances:      calculator.MemberBalances(*group),
		Settlements:   calculator.SimplifyDebts(*group),
		TotalExpenses: calculator.RoundCents(total),
	}

	slog.Info("GetGroupSummary successful",
		"group_id", groupID,
		"members_count", len(resp.Balances),
		"settlements_count", len(resp.Settlements),
	)
	return connect.NewResponse(resp), nil
}
