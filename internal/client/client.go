// Package client talks to a remote splitledger server. Client implements
// replication.Backend, so a member's device runs the same Replicator and
// Session against the server that the server runs against its own store.
package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/replication"
	"github.com/mmynk/splitledger/internal/rpc"
)

// Client is a Connect client for the group and auth services.
type Client struct {
	groups *rpc.GroupServiceClient
	auth   *rpc.AuthServiceClient

	mu    sync.RWMutex
	token string
}

var _ replication.Backend = (*Client)(nil)

// New creates a Client for the server at baseURL. A nil httpClient uses
// http.DefaultClient.
func New(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{}
	opts = append(opts, connect.WithInterceptors(c.bearerInterceptor()))
	c.groups = rpc.NewGroupServiceClient(httpClient, baseURL, opts...)
	c.auth = rpc.NewAuthServiceClient(httpClient, baseURL, opts...)
	return c
}

// SetToken sets the session token sent with every call.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) bearerInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token := c.currentToken(); token != "" && req.Spec().IsClient {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	}
}

// Login authenticates and keeps the returned token for later calls.
// The returned user ID is the caller's owner ID.
func (c *Client) Login(ctx context.Context, email, password string) (rpc.User, error) {
	resp, err := c.auth.Login(ctx, connect.NewRequest(&rpc.LoginRequest{Email: email, Password: password}))
	if err != nil {
		return rpc.User{}, fmt.Errorf("login: %w", err)
	}
	c.SetToken(resp.Msg.Token)
	return resp.Msg.User, nil
}

// Register creates an account and keeps the returned token for later calls.
func (c *Client) Register(ctx context.Context, email, displayName, password string) (rpc.User, error) {
	resp, err := c.auth.Register(ctx, connect.NewRequest(&rpc.RegisterRequest{
		Email:       email,
		DisplayName: displayName,
		Password:    password,
	}))
	if err != nil {
		return rpc.User{}, fmt.Errorf("register: %w", err)
	}
	c.SetToken(resp.Msg.Token)
	return resp.Msg.User, nil
}

// FetchGroups loads the signed-in member's document. The server derives the
// owner from the token, so ownerID only has to be non-empty.
func (c *Client) FetchGroups(ctx context.Context, ownerID string) ([]models.Group, bool, error) {
	if ownerID == "" {
		return nil, false, nil
	}
	resp, err := c.groups.FetchGroups(ctx, connect.NewRequest(&rpc.FetchGroupsRequest{}))
	if err != nil {
		return nil, false, fmt.Errorf("fetch groups: %w", err)
	}
	return resp.Msg.Groups, resp.Msg.Found, nil
}

// SaveGroups overwrites the signed-in member's document.
func (c *Client) SaveGroups(ctx context.Context, ownerID string, groups []models.Group) error {
	if ownerID == "" {
		return nil
	}
	if _, err := c.groups.SaveGroups(ctx, connect.NewRequest(&rpc.SaveGroupsRequest{Groups: groups})); err != nil {
		return fmt.Errorf("save groups: %w", err)
	}
	return nil
}

func (c *Client) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	resp, err := c.groups.ExistsByEmail(ctx, connect.NewRequest(&rpc.ExistsByEmailRequest{Email: email}))
	if err != nil {
		return false, fmt.Errorf("exists by email: %w", err)
	}
	return resp.Msg.Exists, nil
}

func (c *Client) SyncGroupToMember(ctx context.Context, email string, group models.Group) (bool, error) {
	resp, err := c.groups.SyncGroupToMember(ctx, connect.NewRequest(&rpc.SyncGroupToMemberRequest{Email: email, Group: group}))
	if err != nil {
		return false, fmt.Errorf("sync group to member: %w", err)
	}
	return resp.Msg.OK, nil
}

func (c *Client) SyncGroupToAllMembers(ctx context.Context, group models.Group) error {
	if _, err := c.groups.SyncGroupToAllMembers(ctx, connect.NewRequest(&rpc.SyncGroupToAllMembersRequest{Group: group})); err != nil {
		return fmt.Errorf("sync group to all members: %w", err)
	}
	return nil
}

// Summary asks the server for a group's balances and settlements, computed
// from the stored copy of the signed-in member's document.
func (c *Client) Summary(ctx context.Context, groupID string) (*rpc.GetGroupSummaryResponse, error) {
	resp, err := c.groups.GetGroupSummary(ctx, connect.NewRequest(&rpc.GetGroupSummaryRequest{GroupID: groupID}))
	if err != nil {
		return nil, fmt.Errorf("group summary: %w", err)
	}
	return resp.Msg, nil
}
