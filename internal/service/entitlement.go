package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	apperrors "github.com/reelway/media-server-go/internal/errors"
	"github.com/reelway/media-server-go/internal/model"
	"github.com/reelway/media-server-go/internal/repository"
)

// EntitlementService answers one question: may this user mint a playback
// token for this video right now. The check hits the subscription store on
// every issuance so a cancellation takes effect immediately; tokens that are
// already out remain valid until their own expiry.
type EntitlementService struct {
	subscriptionRepo repository.SubscriptionRepository
}

func NewEntitlementService(subscriptionRepo repository.SubscriptionRepository) *EntitlementService {
	return &EntitlementService{subscriptionRepo: subscriptionRepo}
}

func (s *EntitlementService) CheckAccess(ctx context.Context, video *model.Video, userID *string) error {
	if !video.Premium {
		return nil
	}

	if userID == nil {
		return apperrors.SubscriptionRequired()
	}

	sub, err := s.subscriptionRepo.FindActiveByUserID(ctx, *userID)
	if err != nil {
		return fmt.Errorf("find active subscription: %w", err)
	}
	if sub == nil {
		log.Info().
			Str("userId", *userID).
			Str("videoId", video.ID).
			Msg("premium access denied: no active subscription")
		return apperrors.SubscriptionRequired()
	}

	return nil
}
