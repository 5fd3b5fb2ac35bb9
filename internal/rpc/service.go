package rpc

import (
	"context"

	"github.com/heyfriend/heyfriend/internal/backend"
	"google.golang.org/grpc"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "heyfriend.v1.Backend"

// Method names, as they appear after the service name in a full method.
const (
	MethodRegisterUser             = "RegisterUser"
	MethodUpdateUser               = "UpdateUser"
	MethodSaveCallerUserProfile    = "SaveCallerUserProfile"
	MethodGetCallerUserProfile     = "GetCallerUserProfile"
	MethodGetUserProfile           = "GetUserProfile"
	MethodGetProfile               = "GetProfile"
	MethodSearchUsersByDisplayName = "SearchUsersByDisplayName"
	MethodSearchUsersByPhoneNumber = "SearchUsersByPhoneNumber"
	MethodAddContact               = "AddContact"
	MethodRemoveContact            = "RemoveContact"
	MethodGetContacts              = "GetContacts"
	MethodCreateConversation       = "CreateConversation"
	MethodGetConversation          = "GetConversation"
	MethodGetConversations         = "GetConversations"
	MethodLeaveConversation        = "LeaveConversation"
	MethodAddMember                = "AddMember"
	MethodRemoveMember             = "RemoveMember"
	MethodGetMessages              = "GetMessages"
	MethodSendMessage              = "SendMessage"
	MethodDeleteMessage            = "DeleteMessage"
	MethodUpdateMessageStatus      = "UpdateMessageStatus"
	MethodAddReaction              = "AddReaction"
	MethodRemoveReaction           = "RemoveReaction"
	MethodGetReactions             = "GetReactions"
	MethodGetTotalUnread           = "GetTotalUnread"
	MethodGetUnreadCounts          = "GetUnreadCounts"
	MethodMarkConversationAsRead   = "MarkConversationAsRead"
	MethodAssignCallerUserRole     = "AssignCallerUserRole"
	MethodGetCallerUserRole        = "GetCallerUserRole"
	MethodIsCallerAdmin            = "IsCallerAdmin"
)

// FullMethod returns "/heyfriend.v1.Backend/<name>".
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// Register exposes impl on s.
func Register(s grpc.ServiceRegistrar, impl backend.Backend) {
	s.RegisterService(&serviceDesc, impl)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*backend.Backend)(nil),
	Metadata:    "heyfriend/v1/backend",
	Methods: []grpc.MethodDesc{
		unary(MethodRegisterUser, func(ctx context.Context, b backend.Backend, req *registerRequest) (*empty, error) {
			return &empty{}, b.RegisterUser(ctx, req.Registration)
		}),
		unary(MethodUpdateUser, func(ctx context.Context, b backend.Backend, req *updateUserRequest) (*empty, error) {
			return &empty{}, b.UpdateUser(ctx, req.Update)
		}),
		unary(MethodSaveCallerUserProfile, func(ctx context.Context, b backend.Backend, req *saveProfileRequest) (*empty, error) {
			return &empty{}, b.SaveCallerUserProfile(ctx, req.Profile)
		}),
		unary(MethodGetCallerUserProfile, func(ctx context.Context, b backend.Backend, _ *empty) (*profileReply, error) {
			p, err := b.GetCallerUserProfile(ctx)
			return &profileReply{Profile: p}, err
		}),
		unary(MethodGetUserProfile, func(ctx context.Context, b backend.Backend, req *userRequest) (*profileReply, error) {
			p, err := b.GetUserProfile(ctx, req.User)
			return &profileReply{Profile: p}, err
		}),
		unary(MethodGetProfile, func(ctx context.Context, b backend.Backend, _ *empty) (*profileReply, error) {
			p, err := b.GetProfile(ctx)
			return &profileReply{Profile: p}, err
		}),
		unary(MethodSearchUsersByDisplayName, func(ctx context.Context, b backend.Backend, req *searchRequest) (*profilesReply, error) {
			ps, err := b.SearchUsersByDisplayName(ctx, req.Term)
			return &profilesReply{Profiles: ps}, err
		}),
		unary(MethodSearchUsersByPhoneNumber, func(ctx context.Context, b backend.Backend, req *searchRequest) (*profilesReply, error) {
			ps, err := b.SearchUsersByPhoneNumber(ctx, req.Term)
			return &profilesReply{Profiles: ps}, err
		}),
		unary(MethodAddContact, func(ctx context.Context, b backend.Backend, req *contactRequest) (*empty, error) {
			return &empty{}, b.AddContact(ctx, req.PhoneNumber, req.ContactLabel)
		}),
		unary(MethodRemoveContact, func(ctx context.Context, b backend.Backend, req *contactRequest) (*empty, error) {
			return &empty{}, b.RemoveContact(ctx, req.PhoneNumber)
		}),
		unary(MethodGetContacts, func(ctx context.Context, b backend.Backend, _ *empty) (*contactsReply, error) {
			cs, err := b.GetContacts(ctx)
			return &contactsReply{Contacts: cs}, err
		}),
		unary(MethodCreateConversation, func(ctx context.Context, b backend.Backend, req *createConversationRequest) (*idReply, error) {
			id, err := b.CreateConversation(ctx, req.Name, req.Description, req.IsGroup, req.Members)
			return &idReply{ID: id}, err
		}),
		unary(MethodGetConversation, func(ctx context.Context, b backend.Backend, req *conversationRequest) (*conversationReply, error) {
			c, err := b.GetConversation(ctx, req.ConversationID)
			return &conversationReply{Conversation: c}, err
		}),
		unary(MethodGetConversations, func(ctx context.Context, b backend.Backend, _ *empty) (*summariesReply, error) {
			s, err := b.GetConversations(ctx)
			return &summariesReply{Summaries: s}, err
		}),
		unary(MethodLeaveConversation, func(ctx context.Context, b backend.Backend, req *conversationRequest) (*empty, error) {
			return &empty{}, b.LeaveConversation(ctx, req.ConversationID)
		}),
		unary(MethodAddMember, func(ctx context.Context, b backend.Backend, req *memberRequest) (*empty, error) {
			return &empty{}, b.AddMember(ctx, req.ConversationID, req.Member)
		}),
		unary(MethodRemoveMember, func(ctx context.Context, b backend.Backend, req *memberRequest) (*empty, error) {
			return &empty{}, b.RemoveMember(ctx, req.ConversationID, req.Member)
		}),
		unary(MethodGetMessages, func(ctx context.Context, b backend.Backend, req *messagesRequest) (*messagesReply, error) {
			ms, err := b.GetMessages(ctx, req.ConversationID, req.Limit, req.Offset)
			return &messagesReply{Messages: ms}, err
		}),
		unary(MethodSendMessage, func(ctx context.Context, b backend.Backend, req *sendMessageRequest) (*idReply, error) {
			id, err := b.SendMessage(ctx, req.ConversationID, req.Content, req.MediaType, req.Media)
			return &idReply{ID: id}, err
		}),
		unary(MethodDeleteMessage, func(ctx context.Context, b backend.Backend, req *messageRequest) (*empty, error) {
			return &empty{}, b.DeleteMessage(ctx, req.MessageID)
		}),
		unary(MethodUpdateMessageStatus, func(ctx context.Context, b backend.Backend, req *messageStatusRequest) (*empty, error) {
			return &empty{}, b.UpdateMessageStatus(ctx, req.MessageID, req.Status)
		}),
		unary(MethodAddReaction, func(ctx context.Context, b backend.Backend, req *reactionRequest) (*idReply, error) {
			id, err := b.AddReaction(ctx, req.MessageID, req.Emoji)
			return &idReply{ID: id}, err
		}),
		unary(MethodRemoveReaction, func(ctx context.Context, b backend.Backend, req *reactionIDRequest) (*empty, error) {
			return &empty{}, b.RemoveReaction(ctx, req.ReactionID)
		}),
		unary(MethodGetReactions, func(ctx context.Context, b backend.Backend, req *messageRequest) (*reactionsReply, error) {
			rs, err := b.GetReactions(ctx, req.MessageID)
			return &reactionsReply{Reactions: rs}, err
		}),
		unary(MethodGetTotalUnread, func(ctx context.Context, b backend.Backend, _ *empty) (*countReply, error) {
			n, err := b.GetTotalUnread(ctx)
			return &countReply{Count: n}, err
		}),
		unary(MethodGetUnreadCounts, func(ctx context.Context, b backend.Backend, _ *empty) (*unreadCountsReply, error) {
			cs, err := b.GetUnreadCounts(ctx)
			return &unreadCountsReply{Counts: cs}, err
		}),
		unary(MethodMarkConversationAsRead, func(ctx context.Context, b backend.Backend, req *conversationRequest) (*empty, error) {
			return &empty{}, b.MarkConversationAsRead(ctx, req.ConversationID)
		}),
		unary(MethodAssignCallerUserRole, func(ctx context.Context, b backend.Backend, req *roleRequest) (*empty, error) {
			return &empty{}, b.AssignCallerUserRole(ctx, req.User, req.Role)
		}),
		unary(MethodGetCallerUserRole, func(ctx context.Context, b backend.Backend, _ *empty) (*roleReply, error) {
			r, err := b.GetCallerUserRole(ctx)
			return &roleReply{Role: r}, err
		}),
		unary(MethodIsCallerAdmin, func(ctx context.Context, b backend.Backend, _ *empty) (*boolReply, error) {
			ok, err := b.IsCallerAdmin(ctx)
			return &boolReply{Value: ok}, err
		}),
	},
}

// unary builds a method descriptor that decodes Req, runs call through the
// server's interceptor chain and returns Resp.
func unary[Req, Resp any](name string, call func(context.Context, backend.Backend, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			impl := srv.(backend.Backend)
			handler := func(ctx context.Context, r any) (any, error) {
				resp, err := call(ctx, impl, r.(*Req))
				if err != nil {
					return nil, err
				}
				return resp, nil
			}
			if interceptor == nil {
				return handler(ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, req, info, handler)
		},
	}
}
