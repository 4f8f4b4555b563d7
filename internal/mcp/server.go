package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/DevRickLin/micropost-notify/internal/biz"
)

const defaultFeedLimit = 20

// Timestamps are rendered as RFC 3339 strings in tool output
const timeLayout = time.RFC3339

// FeedEntry is a notification as returned by get_notifications
type FeedEntry struct {
	PostID      string `json:"post_id"`
	AuthorID    string `json:"author_id"`
	AuthorName  string `json:"author_name"`
	Content     string `json:"content"`
	Highlighted bool   `json:"highlighted"`
	ModifiedAt  string `json:"modified_at"`
}

// PresetInfo is a preset as returned by list_presets
type PresetInfo struct {
	ID                      string   `json:"id"`
	Name                    string   `json:"name"`
	Members                 []string `json:"members"`
	NotifyOnAnyPost         bool     `json:"notify_on_any_post"`
	NotifyOnHighlightedOnly bool     `json:"notify_on_highlighted_only"`
}

// PostInfo is a post as returned by list_user_posts
type PostInfo struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	Highlighted bool   `json:"highlighted"`
	CreatedAt   string `json:"created_at"`
	ModifiedAt  string `json:"modified_at"`
}

// Server exposes the notification feed as MCP tools
type Server struct {
	server *mcp.Server
	uc     *biz.Usecases
	logger *zap.Logger
}

// NewServer creates a new MCP server and registers its tools
func NewServer(uc *biz.Usecases, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "micropost-notify",
			Version: version,
		}, nil),
		uc:     uc,
		logger: logger.Named("mcp"),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_notifications",
		Description: "Get a user's notification feed: recent posts from the people their presets watch, newest first.",
	}, s.handleGetNotifications)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_presets",
		Description: "List the watch presets owned by a user with their members and notification settings.",
	}, s.handleListPresets)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_user_posts",
		Description: "List the most recent posts written by a user, optionally only the highlighted ones.",
	}, s.handleListUserPosts)
}

// GetNotificationsInput selects the feed to read
type GetNotificationsInput struct {
	UserID string `json:"user_id" jsonschema:"the id of the user whose feed to compute"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of entries (default 20)"`
}

// GetNotificationsOutput contains the feed
type GetNotificationsOutput struct {
	Notifications []FeedEntry `json:"notifications"`
	Error         string      `json:"error,omitempty"`
}

func (s *Server) handleGetNotifications(ctx context.Context, req *mcp.CallToolRequest, input GetNotificationsInput) (*mcp.CallToolResult, GetNotificationsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultFeedLimit
	}

	feed, err := s.uc.Notification.Feed(ctx, input.UserID, limit)
	if err != nil {
		s.logger.Debug("get_notifications failed", zap.String("user_id", input.UserID), zap.Error(err))
		return nil, GetNotificationsOutput{Notifications: []FeedEntry{}, Error: err.Error()}, nil
	}

	entries := make([]FeedEntry, len(feed))
	for i, n := range feed {
		entries[i] = FeedEntry{
			PostID:      n.PostID,
			AuthorID:    n.AuthorID,
			AuthorName:  n.AuthorName,
			Content:     n.Content,
			Highlighted: n.Highlighted,
			ModifiedAt:  n.ModifiedAt.Format(timeLayout),
		}
	}
	return nil, GetNotificationsOutput{Notifications: entries}, nil
}

// ListPresetsInput selects the preset owner
type ListPresetsInput struct {
	UserID string `json:"user_id" jsonschema:"the id of the preset owner"`
}

// ListPresetsOutput contains the owner's presets
type ListPresetsOutput struct {
	Presets []PresetInfo `json:"presets"`
	Error   string       `json:"error,omitempty"`
}

func (s *Server) handleListPresets(ctx context.Context, req *mcp.CallToolRequest, input ListPresetsInput) (*mcp.CallToolResult, ListPresetsOutput, error) {
	presets, err := s.uc.Preset.List(ctx, input.UserID)
	if err != nil {
		return nil, ListPresetsOutput{Presets: []PresetInfo{}, Error: err.Error()}, nil
	}

	result := make([]PresetInfo, len(presets))
	for i, p := range presets {
		members := p.Members
		if members == nil {
			members = []string{}
		}
		result[i] = PresetInfo{
			ID:                      p.ID,
			Name:                    p.Name,
			Members:                 members,
			NotifyOnAnyPost:         p.Setting.NotifyOnAnyPost,
			NotifyOnHighlightedOnly: p.Setting.NotifyOnHighlightedOnly,
		}
	}
	return nil, ListPresetsOutput{Presets: result}, nil
}

// ListUserPostsInput selects the author
type ListUserPostsInput struct {
	UserID          string `json:"user_id" jsonschema:"the id of the author"`
	HighlightedOnly bool   `json:"highlighted_only,omitempty" jsonschema:"only return highlighted posts"`
	Limit           int    `json:"limit,omitempty" jsonschema:"maximum number of posts (default 20)"`
}

// ListUserPostsOutput contains the author's posts
type ListUserPostsOutput struct {
	Posts []PostInfo `json:"posts"`
	Error string     `json:"error,omitempty"`
}

func (s *Server) handleListUserPosts(ctx context.Context, req *mcp.CallToolRequest, input ListUserPostsInput) (*mcp.CallToolResult, ListUserPostsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultFeedLimit
	}

	posts, err := s.uc.Post.ListByAuthor(ctx, input.UserID, input.HighlightedOnly, limit)
	if err != nil {
		return nil, ListUserPostsOutput{Posts: []PostInfo{}, Error: err.Error()}, nil
	}

	result := make([]PostInfo, len(posts))
	for i, p := range posts {
		result[i] = PostInfo{
			ID:          p.ID,
			Content:     p.Content,
			Highlighted: p.Highlighted,
			CreatedAt:   p.CreatedAt.Format(timeLayout),
			ModifiedAt:  p.ModifiedAt.Format(timeLayout),
		}
	}
	return nil, ListUserPostsOutput{Posts: result}, nil
}

// Run serves the tools over stdio until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting MCP server on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// GetServer returns the underlying MCP server
func (s *Server) GetServer() *mcp.Server {
	return s.server
}
