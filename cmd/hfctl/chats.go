package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/outbox"
	"github.com/heyfriend/heyfriend/internal/overlay"
	hsync "github.com/heyfriend/heyfriend/internal/sync"
	"github.com/spf13/cobra"
)

var (
	conversationsTab string

	messagesPin   string
	messagesLimit int

	sendFile string
	sendKind string

	groupDescription string
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"chats"},
	Short:   "List conversations, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		tab := hsync.Tab(conversationsTab)
		if !slices.Contains(hsync.Tabs, tab) {
			return fmt.Errorf("unknown tab %q, want all, unread or groups", conversationsTab)
		}
		locked, err := lockedIDs()
		if err != nil {
			return err
		}
		ctx, cancel := withTimeout()
		defer cancel()
		s, err := connect(ctx, true)
		if err != nil {
			return err
		}
		defer s.Close()

		res := s.engine.Conversations(ctx)
		if res.Err != nil {
			return res.Err
		}
		summaries := hsync.FilterSummaries(res.Data, tab, "")
		if jsonOutput {
			outputJSON(summaries)
			return nil
		}
		if len(summaries) == 0 {
			fmt.Println("No conversations.")
			return nil
		}
		now := time.Now()
		for _, cs := range summaries {
			var when string
			if cs.LastMessage != nil {
				when = hsync.FormatTimestamp(cs.LastMessage.Timestamp, now)
			}
			name := hsync.DisplayName(cs.Conversation)
			if cs.Conversation.IsGroup {
				name += " (group)"
			}
			fmt.Printf("%-36s %-28s %-6s %4s  %s\n", cs.Conversation.ID, name, when,
				hsync.UnreadBadge(cs.UnreadCount), hsync.Preview(cs, locked[cs.Conversation.ID]))
		}
		return nil
	},
}

var messagesCmd = &cobra.Command{
	Use:   "messages <conversation-id>",
	Short: "Print a conversation's messages by day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		locked, err := lockedIDs()
		if err != nil {
			return err
		}
		if locked[id] && !unlock(messagesPin) {
			return errors.New("conversation is locked; pass the PIN with --pin")
		}
		ctx, cancel := withTimeout()
		defer cancel()
		s, err := connect(ctx, true)
		if err != nil {
			return err
		}
		defer s.Close()

		res := s.engine.Messages(ctx, id)
		if res.Err != nil {
			return res.Err
		}
		msgs := res.Data
		if messagesLimit > 0 && len(msgs) > messagesLimit {
			msgs = msgs[len(msgs)-messagesLimit:]
		}
		if jsonOutput {
			outputJSON(msgs)
			return nil
		}
		printThread(os.Stdout, msgs, s.principal, time.Now())
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <conversation-id> [text...]",
	Short: "Send a message, a file, or an emoji, sticker or GIF",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, text := args[0], strings.Join(args[1:], " ")
		draft := outbox.Draft{Text: text}
		if sendFile != "" {
			data, err := os.ReadFile(sendFile)
			if err != nil {
				return err
			}
			draft.Attachment = &outbox.Attachment{
				Name:        filepath.Base(sendFile),
				ContentType: http.DetectContentType(data),
				Data:        data,
			}
			fmt.Fprintf(os.Stderr, "uploading %s (%s)\n", draft.Attachment.Name, humanize.IBytes(uint64(len(data))))
		}

		ctx, cancel := withTimeout()
		defer cancel()
		s, err := connect(ctx, true)
		if err != nil {
			return err
		}
		defer s.Close()

		progress, unsub := s.bus.Subscribe("message.upload_progress", 16)
		defer unsub()
		go func() {
			for evt := range progress {
				if p, ok := evt.Payload.(outbox.ProgressEvent); ok {
					fmt.Fprintf(os.Stderr, "\r%3d%%", p.Percent)
				}
			}
		}()
		acks, unsubAcks := s.bus.Subscribe("message.send_ack", 1)
		defer unsubAcks()

		sender := outbox.NewSender(id, s.engine, s.bus, nil)
		switch sendKind {
		case "", "text":
			var sent bool
			sent, err = sender.Submit(ctx, draft)
			if err == nil && !sent {
				return errors.New("nothing to send")
			}
		case "emoji":
			err = sender.SendEmoji(ctx, text)
		case "sticker":
			err = sender.SendSticker(ctx, text)
		case "gif":
			err = sender.SendGIF(ctx, text)
		default:
			return fmt.Errorf("unknown kind %q", sendKind)
		}
		if draft.Attachment != nil {
			fmt.Fprintln(os.Stderr)
		}
		if err != nil {
			return err
		}

		select {
		case evt := <-acks:
			if ack, ok := evt.Payload.(outbox.SendEvent); ok {
				if jsonOutput {
					outputJSON(map[string]string{"id": ack.MessageID, "conversationId": ack.ConversationID})
				} else {
					fmt.Println(ack.MessageID)
				}
			}
		default:
		}
		return nil
	},
}

var reactCmd = &cobra.Command{
	Use:   "react <message-id> <emoji>",
	Short: "React to a message",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, s *clientSession) error {
			id, err := s.engine.AddReaction(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		})
	},
}

var unreactCmd = &cobra.Command{
	Use:   "unreact <message-id> <reaction-id>",
	Short: "Remove one of your reactions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, s *clientSession) error {
			return s.engine.RemoveReaction(ctx, args[0], args[1])
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <conversation-id> <message-id>",
	Short: "Delete one of your messages",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, s *clientSession) error {
			return s.engine.DeleteMessage(ctx, args[0], args[1])
		})
	},
}

var readCmd = &cobra.Command{
	Use:   "read <conversation-id>",
	Short: "Mark a conversation as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, s *clientSession) error {
			return s.engine.MarkConversationAsRead(ctx, args[0])
		})
	},
}

var unreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Show unread counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, s *clientSession) error {
			total := s.engine.TotalUnread(ctx)
			if total.Err != nil {
				return total.Err
			}
			counts := s.engine.UnreadCounts(ctx)
			if counts.Err != nil {
				return counts.Err
			}
			if jsonOutput {
				outputJSON(map[string]any{"total": total.Data, "conversations": counts.Data})
				return nil
			}
			fmt.Printf("Total: %d\n", total.Data)
			for _, c := range counts.Data {
				if c.Count > 0 {
					fmt.Printf("%-36s %s\n", c.ConversationID, hsync.UnreadBadge(c.Count))
				}
			}
			return nil
		})
	},
}

var groupCmd = &cobra.Command{
	Use:   "group <name> <principal>...",
	Short: "Create a group conversation",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		members := make([]backend.Principal, 0, len(args)-1)
		for _, m := range args[1:] {
			members = append(members, backend.Principal(m))
		}
		return withSession(func(ctx context.Context, s *clientSession) error {
			id, err := s.engine.CreateConversation(ctx, args[0], groupDescription, true, members)
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		})
	},
}

var leaveCmd = &cobra.Command{
	Use:   "leave <conversation-id>",
	Short: "Leave a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, s *clientSession) error {
			return s.engine.LeaveConversation(ctx, args[0])
		})
	},
}

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "List contacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, s *clientSession) error {
			res := s.engine.Contacts(ctx)
			if res.Err != nil {
				return res.Err
			}
			if jsonOutput {
				outputJSON(res.Data)
				return nil
			}
			if len(res.Data) == 0 {
				fmt.Println("No contacts.")
				return nil
			}
			for _, c := range res.Data {
				fmt.Printf("%-16s %-20s %s\n", c.PhoneNumber, c.ContactLabel, c.DisplayName)
			}
			return nil
		})
	},
}

var contactsAddCmd = &cobra.Command{
	Use:   "add <phone> [label...]",
	Short: "Add or relabel a contact",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, s *clientSession) error {
			return s.engine.AddContact(ctx, args[0], strings.Join(args[1:], " "))
		})
	},
}

var contactsRemoveCmd = &cobra.Command{
	Use:   "remove <phone>",
	Short: "Remove a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, s *clientSession) error {
			return s.engine.RemoveContact(ctx, args[0])
		})
	},
}

func init() {
	conversationsCmd.Flags().StringVar(&conversationsTab, "tab", string(hsync.TabAll), "all, unread or groups")
	messagesCmd.Flags().StringVar(&messagesPin, "pin", "", "PIN for a locked conversation")
	messagesCmd.Flags().IntVar(&messagesLimit, "limit", 0, "show only the last n messages")
	sendCmd.Flags().StringVar(&sendFile, "file", "", "attach a file")
	sendCmd.Flags().StringVar(&sendKind, "kind", "text", "text, emoji, sticker or gif")
	groupCmd.Flags().StringVar(&groupDescription, "description", "", "group description")

	contactsCmd.AddCommand(contactsAddCmd, contactsRemoveCmd)
	rootCmd.AddCommand(conversationsCmd, messagesCmd, sendCmd, reactCmd, unreactCmd, deleteCmd,
		readCmd, unreadCmd, groupCmd, leaveCmd, contactsCmd)
}

// withSession runs fn against a connected, registered session.
func withSession(fn func(ctx context.Context, s *clientSession) error) error {
	ctx, cancel := withTimeout()
	defer cancel()
	s, err := connect(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}

func lockedIDs() (map[string]bool, error) {
	store, err := openOverlay()
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	locked := make(map[string]bool)
	for _, id := range store.Locks().List() {
		locked[id] = true
	}
	return locked, nil
}

// unlock runs pin through the same gate the TUI shows.
func unlock(pin string) bool {
	var ok bool
	prompt := overlay.NewPinPrompt(func() { ok = true }, nil)
	for _, r := range pin {
		prompt.Type(r)
	}
	return ok
}

func printThread(w io.Writer, msgs []backend.Message, self backend.Principal, now time.Time) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, "No messages yet.")
		return
	}
	r := &lineRenderer{w: w}
	for _, g := range hsync.GroupByDay(msgs, now, hsync.LabelsFor(overlay.LangEnglish)) {
		fmt.Fprintf(w, "── %s ──\n", g.Label)
		for _, m := range g.Messages {
			author := hsync.SenderLabel(m.Sender, self)
			if author == "" {
				author = "You"
			}
			fmt.Fprintf(w, "%s  %-12s ", m.Timestamp.In(now.Location()).Format("15:04"), author)
			if !hsync.RenderMedia(m, r) {
				fmt.Fprintf(w, "(unsupported message)")
			}
			fmt.Fprintf(w, "  [%s]\n", m.ID)
		}
	}
}

// lineRenderer prints a message body on the current line.
type lineRenderer struct{ w io.Writer }

func (r *lineRenderer) Text(m backend.Message)    { fmt.Fprint(r.w, m.Content) }
func (r *lineRenderer) Emoji(m backend.Message)   { fmt.Fprint(r.w, m.Content) }
func (r *lineRenderer) Sticker(m backend.Message) { fmt.Fprintf(r.w, "[sticker %s]", m.Content) }
func (r *lineRenderer) Image(m backend.Message)   { r.attachment("image", m) }
func (r *lineRenderer) Video(m backend.Message)   { r.attachment("video", m) }
func (r *lineRenderer) Audio(m backend.Message)   { r.attachment("audio", m) }
func (r *lineRenderer) Voice(m backend.Message)   { r.attachment("voice", m) }
func (r *lineRenderer) GIF(m backend.Message)     { fmt.Fprintf(r.w, "[gif %s]", m.Content) }

func (r *lineRenderer) attachment(kind string, m backend.Message) {
	url := "(unavailable)"
	if m.Media != nil && m.Media.DirectURL() != "" {
		url = m.Media.DirectURL()
	}
	fmt.Fprintf(r.w, "[%s %s] %s", kind, m.Content, url)
}
