package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/carlos-juma/branch.it-IMY220/internal/models"
	"github.com/carlos-juma/branch.it-IMY220/pkg/logger"
	"github.com/carlos-juma/branch.it-IMY220/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Perspective-relative friendship states returned by Status.
const (
	RelationNone     = "none"
	RelationAccepted = "accepted"
	RelationSent     = "sent"
	RelationReceived = "received"
)

type FriendshipService struct {
	db *gorm.DB
}

func NewFriendshipService(db *gorm.DB) *FriendshipService {
	return &FriendshipService{db: db}
}

type FriendRequest struct {
	UserID uint `json:"userId" binding:"required"`
}

// FriendshipView is the viewer-relative answer to "what are we".
type FriendshipView struct {
	Status    string `json:"status"`
	RequestID *uint  `json:"request_id,omitempty"`
}

func (s *FriendshipService) findPair(ctx context.Context, a, b uint) (*models.Friendship, error) {
	var f models.Friendship
	err := s.db.WithContext(ctx).Where("pair_key = ?", models.FriendshipPairKey(a, b)).First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading friendship: %w", err)
	}
	return &f, nil
}

// SendRequest creates a pending request from the caller to addresseeID.
func (s *FriendshipService) SendRequest(ctx context.Context, requester Caller, addresseeID uint) (*models.Friendship, error) {
	if err := requester.requireUser(); err != nil {
		return nil, err
	}
	if requester.UserID == addresseeID {
		return nil, response.NewBadRequest("cannot send a friend request to yourself")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", addresseeID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("checking addressee: %w", err)
	}
	if count == 0 {
		return nil, response.NewNotFound("user not found")
	}

	existing, err := s.findPair(ctx, requester.UserID, addresseeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		switch existing.Status {
		case models.FriendshipAccepted:
			return nil, response.NewConflict("you are already friends")
		case models.FriendshipPending:
			return nil, response.NewConflict("a friend request between you is already pending")
		default:
			return nil, response.NewConflict("friend request not allowed")
		}
	}

	f := models.Friendship{
		RequesterID: requester.UserID,
		AddresseeID: addresseeID,
		PairKey:     models.FriendshipPairKey(requester.UserID, addresseeID),
		Status:      models.FriendshipPending,
	}
	if err := s.db.WithContext(ctx).Create(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, response.NewConflict("a friend request between you already exists")
		}
		return nil, fmt.Errorf("creating friend request: %w", err)
	}

	friendRequestsTotal.WithLabelValues("sent").Inc()
	return &f, nil
}

// Respond accepts or declines a pending request. Only the addressee may
// answer. Accepting writes both directions of the friend edge; declining
// deletes the record.
func (s *FriendshipService) Respond(ctx context.Context, actor Caller, requestID uint, accept bool) (*models.Friendship, error) {
	if err := actor.requireUser(); err != nil {
		return nil, err
	}

	var f models.Friendship
	if err := s.db.WithContext(ctx).First(&f, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("friend request not found")
		}
		return nil, fmt.Errorf("loading friend request: %w", err)
	}
	if f.AddresseeID != actor.UserID {
		return nil, response.NewForbidden("only the recipient can respond to this request")
	}
	if f.Status != models.FriendshipPending {
		return nil, response.NewInvalidState("friend request is %s, not pending", f.Status)
	}

	db := s.db.WithContext(ctx)
	if !accept {
		if err := db.Delete(&f).Error; err != nil {
			return nil, fmt.Errorf("declining friend request: %w", err)
		}
		friendRequestsTotal.WithLabelValues("declined").Inc()
		return &f, nil
	}

	res := db.Model(&f).Where("status = ?", models.FriendshipPending).Update("status", models.FriendshipAccepted)
	if res.Error != nil {
		return nil, fmt.Errorf("accepting friend request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, response.NewInvalidState("friend request is no longer pending")
	}

	edges := []models.UserFriend{
		{UserID: f.RequesterID, FriendID: f.AddresseeID},
		{UserID: f.AddresseeID, FriendID: f.RequesterID},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&edges).Error; err != nil {
		return nil, fmt.Errorf("linking friends: %w", err)
	}

	friendRequestsTotal.WithLabelValues("accepted").Inc()
	logger.Debug().Uint("requester", f.RequesterID).Uint("addressee", f.AddresseeID).Msg("friendship accepted")
	return &f, nil
}

// Unfriend removes an accepted friendship and both edges. It is a no-op
// when the two users are not friends.
func (s *FriendshipService) Unfriend(ctx context.Context, actor Caller, friendID uint) error {
	if err := actor.requireUser(); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	if err := db.Where("pair_key = ? AND status = ?", models.FriendshipPairKey(actor.UserID, friendID), models.FriendshipAccepted).
		Delete(&models.Friendship{}).Error; err != nil {
		return fmt.Errorf("removing friendship: %w", err)
	}
	if err := db.Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
		actor.UserID, friendID, friendID, actor.UserID).
		Delete(&models.UserFriend{}).Error; err != nil {
		return fmt.Errorf("removing friend edges: %w", err)
	}
	return nil
}

// Status reports the relationship from the viewer's side.
func (s *FriendshipService) Status(ctx context.Context, viewer Caller, otherID uint) (*FriendshipView, error) {
	if err := viewer.requireUser(); err != nil {
		return nil, err
	}

	f, err := s.findPair(ctx, viewer.UserID, otherID)
	if err != nil {
		return nil, err
	}
	if f == nil || viewer.UserID == otherID {
		return &FriendshipView{Status: RelationNone}, nil
	}

	view := &FriendshipView{RequestID: &f.ID}
	switch {
	case f.Status == models.FriendshipAccepted:
		view.Status = RelationAccepted
	case f.Status == models.FriendshipPending && f.RequesterID == viewer.UserID:
		view.Status = RelationSent
	case f.Status == models.FriendshipPending:
		view.Status = RelationReceived
	default:
		view.Status = string(f.Status)
	}
	return view, nil
}

// FriendIDs lists the ids in userID's friend set.
func (s *FriendshipService) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.UserFriend{}).
		Where("user_id = ?", userID).
		Order("friend_id").
		Pluck("friend_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("loading friend ids: %w", err)
	}
	return ids, nil
}

func (s *FriendshipService) ListFriends(ctx context.Context, userID uint) ([]*models.UserSummary, error) {
	var edges []models.UserFriend
	if err := s.db.WithContext(ctx).
		Preload("Friend").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&edges).Error; err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}

	friends := make([]*models.UserSummary, 0, len(edges))
	for _, e := range edges {
		if e.Friend != nil {
			friends = append(friends, e.Friend.Summary())
		}
	}
	return friends, nil
}

// ListReceived returns pending requests addressed to userID.
func (s *FriendshipService) ListReceived(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var items []models.Friendship
	if err := s.db.WithContext(ctx).
		Preload("Requester").
		Where("addressee_id = ? AND status = ?", userID, models.FriendshipPending).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("listing received requests: %w", err)
	}
	return items, nil
}

// ListSent returns pending requests sent by userID.
func (s *FriendshipService) ListSent(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var items []models.Friendship
	if err := s.db.WithContext(ctx).
		Preload("Addressee").
		Where("requester_id = ? AND status = ?", userID, models.FriendshipPending).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("listing sent requests: %w", err)
	}
	return items, nil
}
