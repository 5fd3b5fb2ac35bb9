package rpc

import (
	"context"
	"fmt"
	"io"

	"github.com/heyfriend/heyfriend/internal/backend"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// BlobStore hosts blob bytes so that calls can reference them by URL.
type BlobStore interface {
	Upload(ctx context.Context, b *backend.Blob) error
}

// Client implements backend.Backend over a gRPC connection, acting as a
// fixed principal.
type Client struct {
	conn      grpc.ClientConnInterface
	closer    io.Closer
	principal backend.Principal
	blobs     BlobStore
}

var _ backend.Backend = (*Client)(nil)

// Dial opens a connection that speaks the backend's JSON codec.
func Dial(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}
	conn, err := grpc.NewClient(target, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("dial backend: %w", err)
	}
	return conn, nil
}

// Connect dials target and returns a client acting as principal that
// uploads blobs to blobURL.
func Connect(target, blobURL string, principal backend.Principal) (*Client, error) {
	conn, err := Dial(target)
	if err != nil {
		return nil, err
	}
	c := New(conn, principal, NewHTTPBlobs(blobURL, principal, nil))
	c.closer = conn
	return c, nil
}

// New wraps an existing connection. blobs may be nil when the caller never
// sends byte-backed media.
func New(conn grpc.ClientConnInterface, principal backend.Principal, blobs BlobStore) *Client {
	return &Client{conn: conn, principal: principal, blobs: blobs}
}

// Principal returns the identity every call is made as.
func (c *Client) Principal() backend.Principal {
	return c.principal
}

// Close closes the connection if the client opened it.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	if c.principal == "" {
		return backend.ErrNotReady
	}
	ctx = metadata.AppendToOutgoingContext(ctx, PrincipalHeader, string(c.principal))
	err := c.conn.Invoke(ctx, FullMethod(method), req, resp, grpc.CallContentSubtype(CodecName))
	return FromStatus(err)
}

// host uploads b if it only exists locally.
func (c *Client) host(ctx context.Context, b *backend.Blob) error {
	if !b.Pending() {
		return nil
	}
	if c.blobs == nil {
		return fmt.Errorf("no blob store configured: %w", backend.ErrInvalidArgument)
	}
	if err := c.blobs.Upload(ctx, b); err != nil {
		return fmt.Errorf("upload blob: %w", err)
	}
	return nil
}

func (c *Client) RegisterUser(ctx context.Context, reg backend.Registration) error {
	if err := c.host(ctx, reg.ProfilePicture); err != nil {
		return err
	}
	return c.invoke(ctx, MethodRegisterUser, &registerRequest{Registration: reg}, &empty{})
}

func (c *Client) UpdateUser(ctx context.Context, upd backend.ProfileUpdate) error {
	if err := c.host(ctx, upd.ProfilePicture); err != nil {
		return err
	}
	return c.invoke(ctx, MethodUpdateUser, &updateUserRequest{Update: upd}, &empty{})
}

func (c *Client) SaveCallerUserProfile(ctx context.Context, profile backend.UserProfile) error {
	if err := c.host(ctx, profile.ProfilePicture); err != nil {
		return err
	}
	return c.invoke(ctx, MethodSaveCallerUserProfile, &saveProfileRequest{Profile: profile}, &empty{})
}

func (c *Client) GetCallerUserProfile(ctx context.Context) (*backend.UserProfile, error) {
	var resp profileReply
	if err := c.invoke(ctx, MethodGetCallerUserProfile, &empty{}, &resp); err != nil {
		return nil, err
	}
	return resp.Profile, nil
}

func (c *Client) GetUserProfile(ctx context.Context, user backend.Principal) (*backend.UserProfile, error) {
	var resp profileReply
	if err := c.invoke(ctx, MethodGetUserProfile, &userRequest{User: user}, &resp); err != nil {
		return nil, err
	}
	return resp.Profile, nil
}

func (c *Client) GetProfile(ctx context.Context) (*backend.UserProfile, error) {
	var resp profileReply
	if err := c.invoke(ctx, MethodGetProfile, &empty{}, &resp); err != nil {
		return nil, err
	}
	return resp.Profile, nil
}

func (c *Client) SearchUsersByDisplayName(ctx context.Context, name string) ([]backend.UserProfile, error) {
	var resp profilesReply
	if err := c.invoke(ctx, MethodSearchUsersByDisplayName, &searchRequest{Term: name}, &resp); err != nil {
		return nil, err
	}
	return resp.Profiles, nil
}

func (c *Client) SearchUsersByPhoneNumber(ctx context.Context, phone string) ([]backend.UserProfile, error) {
	var resp profilesReply
	if err := c.invoke(ctx, MethodSearchUsersByPhoneNumber, &searchRequest{Term: phone}, &resp); err != nil {
		return nil, err
	}
	return resp.Profiles, nil
}

func (c *Client) AddContact(ctx context.Context, phone, label string) error {
	return c.invoke(ctx, MethodAddContact, &contactRequest{PhoneNumber: phone, ContactLabel: label}, &empty{})
}

func (c *Client) RemoveContact(ctx context.Context, phone string) error {
	return c.invoke(ctx, MethodRemoveContact, &contactRequest{PhoneNumber: phone}, &empty{})
}

func (c *Client) GetContacts(ctx context.Context) ([]backend.Contact, error) {
	var resp contactsReply
	if err := c.invoke(ctx, MethodGetContacts, &empty{}, &resp); err != nil {
		return nil, err
	}
	return resp.Contacts, nil
}

func (c *Client) CreateConversation(ctx context.Context, name, description string, isGroup bool, members []backend.Principal) (string, error) {
	var resp idReply
	req := &createConversationRequest{Name: name, Description: description, IsGroup: isGroup, Members: members}
	if err := c.invoke(ctx, MethodCreateConversation, req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) GetConversation(ctx context.Context, conversationID string) (*backend.Conversation, error) {
	var resp conversationReply
	if err := c.invoke(ctx, MethodGetConversation, &conversationRequest{ConversationID: conversationID}, &resp); err != nil {
		return nil, err
	}
	return resp.Conversation, nil
}

func (c *Client) GetConversations(ctx context.Context) ([]backend.ConversationSummary, error) {
	var resp summariesReply
	if err := c.invoke(ctx, MethodGetConversations, &empty{}, &resp); err != nil {
		return nil, err
	}
	return resp.Summaries, nil
}

func (c *Client) LeaveConversation(ctx context.Context, conversationID string) error {
	return c.invoke(ctx, MethodLeaveConversation, &conversationRequest{ConversationID: conversationID}, &empty{})
}

func (c *Client) AddMember(ctx context.Context, conversationID string, member backend.Principal) error {
	return c.invoke(ctx, MethodAddMember, &memberRequest{ConversationID: conversationID, Member: member}, &empty{})
}

func (c *Client) RemoveMember(ctx context.Context, conversationID string, member backend.Principal) error {
	return c.invoke(ctx, MethodRemoveMember, &memberRequest{ConversationID: conversationID, Member: member}, &empty{})
}

func (c *Client) GetMessages(ctx context.Context, conversationID string, limit, offset int) ([]backend.Message, error) {
	var resp messagesReply
	req := &messagesRequest{ConversationID: conversationID, Limit: limit, Offset: offset}
	if err := c.invoke(ctx, MethodGetMessages, req, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *Client) SendMessage(ctx context.Context, conversationID, content string, mediaType backend.MediaType, media *backend.Blob) (string, error) {
	if err := c.host(ctx, media); err != nil {
		return "", err
	}
	var resp idReply
	req := &sendMessageRequest{ConversationID: conversationID, Content: content, MediaType: mediaType, Media: media}
	if err := c.invoke(ctx, MethodSendMessage, req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	return c.invoke(ctx, MethodDeleteMessage, &messageRequest{MessageID: messageID}, &empty{})
}

func (c *Client) UpdateMessageStatus(ctx context.Context, messageID string, st backend.MessageStatus) error {
	return c.invoke(ctx, MethodUpdateMessageStatus, &messageStatusRequest{MessageID: messageID, Status: st}, &empty{})
}

func (c *Client) AddReaction(ctx context.Context, messageID, emoji string) (string, error) {
	var resp idReply
	if err := c.invoke(ctx, MethodAddReaction, &reactionRequest{MessageID: messageID, Emoji: emoji}, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) RemoveReaction(ctx context.Context, reactionID string) error {
	return c.invoke(ctx, MethodRemoveReaction, &reactionIDRequest{ReactionID: reactionID}, &empty{})
}

func (c *Client) GetReactions(ctx context.Context, messageID string) ([]backend.Reaction, error) {
	var resp reactionsReply
	if err := c.invoke(ctx, MethodGetReactions, &messageRequest{MessageID: messageID}, &resp); err != nil {
		return nil, err
	}
	return resp.Reactions, nil
}

func (c *Client) GetTotalUnread(ctx context.Context) (int, error) {
	var resp countReply
	if err := c.invoke(ctx, MethodGetTotalUnread, &empty{}, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) GetUnreadCounts(ctx context.Context) ([]backend.UnreadCount, error) {
	var resp unreadCountsReply
	if err := c.invoke(ctx, MethodGetUnreadCounts, &empty{}, &resp); err != nil {
		return nil, err
	}
	return resp.Counts, nil
}

func (c *Client) MarkConversationAsRead(ctx context.Context, conversationID string) error {
	return c.invoke(ctx, MethodMarkConversationAsRead, &conversationRequest{ConversationID: conversationID}, &empty{})
}

func (c *Client) AssignCallerUserRole(ctx context.Context, user backend.Principal, role backend.UserRole) error {
	return c.invoke(ctx, MethodAssignCallerUserRole, &roleRequest{User: user, Role: role}, &empty{})
}

func (c *Client) GetCallerUserRole(ctx context.Context) (backend.UserRole, error) {
	var resp roleReply
	if err := c.invoke(ctx, MethodGetCallerUserRole, &empty{}, &resp); err != nil {
		return "", err
	}
	return resp.Role, nil
}

func (c *Client) IsCallerAdmin(ctx context.Context) (bool, error) {
	var resp boolReply
	if err := c.invoke(ctx, MethodIsCallerAdmin, &empty{}, &resp); err != nil {
		return false, err
	}
	return resp.Value, nil
}
