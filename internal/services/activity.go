package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/carlos-juma/branch.it-IMY220/internal/models"
	"github.com/carlos-juma/branch.it-IMY220/pkg/logger"
	"github.com/carlos-juma/branch.it-IMY220/pkg/response"
	"gorm.io/gorm"
)

type ActivityKind string

const (
	ActivityCommit  ActivityKind = "commit"
	ActivityMessage ActivityKind = "message"
)

// Activity is one feed entry. Exactly one of Commit and Message is set,
// matching Kind.
type Activity struct {
	Kind      ActivityKind
	Commit    *models.Commit
	Message   *models.Message
	Timestamp time.Time
	Actor     *models.UserSummary
	Project   *models.ProjectSummary
}

type activityJSON struct {
	Kind      ActivityKind           `json:"kind"`
	Payload   json.RawMessage        `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
	Actor     *models.UserSummary    `json:"actor"`
	Project   *models.ProjectSummary `json:"project"`
}

func (a Activity) MarshalJSON() ([]byte, error) {
	var payload interface{}
	switch a.Kind {
	case ActivityCommit:
		payload = a.Commit
	case ActivityMessage:
		payload = a.Message
	default:
		return nil, fmt.Errorf("unknown activity kind %q", a.Kind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(activityJSON{
		Kind:      a.Kind,
		Payload:   raw,
		Timestamp: a.Timestamp,
		Actor:     a.Actor,
		Project:   a.Project,
	})
}

func (a *Activity) UnmarshalJSON(data []byte) error {
	var env activityJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*a = Activity{Kind: env.Kind, Timestamp: env.Timestamp, Actor: env.Actor, Project: env.Project}
	switch env.Kind {
	case ActivityCommit:
		a.Commit = &models.Commit{}
		return json.Unmarshal(env.Payload, a.Commit)
	case ActivityMessage:
		a.Message = &models.Message{}
		return json.Unmarshal(env.Payload, a.Message)
	default:
		return fmt.Errorf("unknown activity kind %q", env.Kind)
	}
}

// CommitActivity projects a commit with preloaded Author and Project. The
// payload drops the associations; they live on the envelope.
func CommitActivity(c models.Commit) Activity {
	a := Activity{
		Kind:      ActivityCommit,
		Timestamp: c.Timestamp,
		Actor:     c.Author.Summary(),
		Project:   c.Project.Summary(),
	}
	c.Author, c.Project = nil, nil
	a.Commit = &c
	return a
}

func MessageActivity(m models.Message) Activity {
	a := Activity{
		Kind:      ActivityMessage,
		Timestamp: m.Timestamp,
		Actor:     m.Author.Summary(),
		Project:   m.Project.Summary(),
	}
	m.Author, m.Project = nil, nil
	a.Message = &m
	return a
}

// FeedLimits bounds one feed: how many commits and messages are read, which
// message kinds count, and how many merged entries survive (0 keeps all).
type FeedLimits struct {
	Commits  int
	Messages int
	Total    int
	Kinds    []models.MessageKind
}

var (
	PersonalFeedLimits = FeedLimits{
		Commits: 50, Messages: 20, Total: 50,
		Kinds: []models.MessageKind{models.MessageCommit, models.MessageComment, models.MessageSystem},
	}
	GlobalFeedLimits = FeedLimits{
		Commits: 30, Messages: 20, Total: 50,
		Kinds: []models.MessageKind{models.MessageCommit, models.MessageComment, models.MessageSystem},
	}
	UserFeedLimits = FeedLimits{
		Commits: 30, Messages: 20, Total: 0,
		Kinds: []models.MessageKind{models.MessageCommit, models.MessageComment},
	}
)

// MergeFeed concatenates commits then messages, stable-sorts newest first
// and truncates to total. Equal timestamps keep commits ahead of messages.
func MergeFeed(commits []models.Commit, messages []models.Message, total int) []Activity {
	feed := make([]Activity, 0, len(commits)+len(messages))
	for _, c := range commits {
		feed = append(feed, CommitActivity(c))
	}
	for _, m := range messages {
		feed = append(feed, MessageActivity(m))
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Timestamp.After(feed[j].Timestamp)
	})

	if total > 0 && len(feed) > total {
		feed = feed[:total]
	}
	return feed
}

const globalFeedKey = "feed:global"

type ActivityService struct {
	db      *gorm.DB
	friends *FriendshipService
	hub     *ActivityHub
	cache   FeedCache
}

// NewActivityService wires the aggregator. hub and cache may be nil.
func NewActivityService(db *gorm.DB, friends *FriendshipService, hub *ActivityHub, cache FeedCache) *ActivityService {
	if cache == nil {
		cache = NoopFeedCache{}
	}
	return &ActivityService{db: db, friends: friends, hub: hub, cache: cache}
}

type CreateMessageRequest struct {
	ProjectID uint   `json:"projectId" binding:"required"`
	Body      string `json:"message" binding:"required"`
	Kind      string `json:"type" binding:"omitempty,message_kind"`
	CommitID  *uint  `json:"commitId"`
	FileID    *uint  `json:"fileId"`
}

// ValidMessageKind reports whether s names a message kind.
func ValidMessageKind(s string) bool {
	switch models.MessageKind(s) {
	case models.MessageCommit, models.MessageComment, models.MessageSystem, models.MessageChat:
		return true
	}
	return false
}

// collect reads both streams. A nil authorIDs slice means every author.
func (s *ActivityService) collect(ctx context.Context, limits FeedLimits, authorIDs []uint) ([]Activity, error) {
	commitQuery := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Project").
		Order("timestamp DESC, id DESC").
		Limit(limits.Commits)
	if authorIDs != nil {
		commitQuery = commitQuery.Where("author_id IN ?", authorIDs)
	}
	var commits []models.Commit
	if err := commitQuery.Find(&commits).Error; err != nil {
		return nil, fmt.Errorf("loading feed commits: %w", err)
	}

	messageQuery := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Project").
		Where("kind IN ?", limits.Kinds).
		Order("timestamp DESC, id DESC").
		Limit(limits.Messages)
	if authorIDs != nil {
		messageQuery = messageQuery.Where("author_id IN ?", authorIDs)
	}
	var messages []models.Message
	if err := messageQuery.Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("loading feed messages: %w", err)
	}

	return MergeFeed(commits, messages, limits.Total), nil
}

// PersonalFeed covers the viewer and their accepted friends.
func (s *ActivityService) PersonalFeed(ctx context.Context, viewer Caller) ([]Activity, error) {
	if err := viewer.requireUser(); err != nil {
		return nil, err
	}
	ids, err := s.friends.FriendIDs(ctx, viewer.UserID)
	if err != nil {
		return nil, err
	}
	ids = append(ids, viewer.UserID)

	feed, err := s.collect(ctx, PersonalFeedLimits, ids)
	if err != nil {
		return nil, err
	}
	feedEntries.WithLabelValues("personal").Observe(float64(len(feed)))
	return feed, nil
}

// GlobalFeed covers everyone. It is served from the cache when one is
// configured.
func (s *ActivityService) GlobalFeed(ctx context.Context) ([]Activity, error) {
	if feed, ok := s.cache.Get(ctx, globalFeedKey); ok {
		feedEntries.WithLabelValues("global").Observe(float64(len(feed)))
		return feed, nil
	}

	feed, err := s.collect(ctx, GlobalFeedLimits, nil)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, globalFeedKey, feed)
	feedEntries.WithLabelValues("global").Observe(float64(len(feed)))
	return feed, nil
}

// UserFeed covers one author. Unknown users have an empty feed.
func (s *ActivityService) UserFeed(ctx context.Context, userID uint) ([]Activity, error) {
	feed, err := s.collect(ctx, UserFeedLimits, []uint{userID})
	if err != nil {
		return nil, err
	}
	feedEntries.WithLabelValues("user").Observe(float64(len(feed)))
	return feed, nil
}

// CreateMessage posts a project message. Kind defaults to comment.
func (s *ActivityService) CreateMessage(ctx context.Context, caller Caller, req *CreateMessageRequest) (*models.Message, error) {
	if err := caller.requireUser(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, response.NewBadRequest("message body is required")
	}

	kind := models.MessageComment
	if req.Kind != "" {
		if !ValidMessageKind(req.Kind) {
			return nil, response.NewBadRequest("unknown message type %q", req.Kind)
		}
		kind = models.MessageKind(req.Kind)
	}

	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, req.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}

	msg := models.Message{
		ProjectID: req.ProjectID,
		AuthorID:  caller.UserID,
		Body:      req.Body,
		Kind:      kind,
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		CommitID:  req.CommitID,
		FileID:    req.FileID,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	var author models.User
	if err := s.db.WithContext(ctx).First(&author, caller.UserID).Error; err == nil {
		msg.Author = &author
	}
	msg.Project = &project

	s.announce(ctx, MessageActivity(msg))
	return &msg, nil
}

// PublishCommit announces a freshly recorded commit to live subscribers and
// drops the cached global feed.
func (s *ActivityService) PublishCommit(ctx context.Context, commit *models.Commit) {
	if commit == nil {
		return
	}
	s.announce(ctx, CommitActivity(*commit))
}

func (s *ActivityService) announce(ctx context.Context, a Activity) {
	s.cache.Invalidate(ctx, globalFeedKey)
	if s.hub != nil {
		s.hub.Publish(a)
	}
	logger.Debug().Str("kind", string(a.Kind)).Msg("activity published")
}
