package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"example.com/backstage/services/herdadmin/internal/cache"
	"example.com/backstage/services/herdadmin/internal/metrics"
	"example.com/backstage/services/herdadmin/internal/models"
	"example.com/backstage/services/herdadmin/internal/platform"
	"example.com/backstage/services/herdadmin/internal/store"
	"example.com/backstage/services/herdadmin/internal/validation"
)

// DefaultRole is the role of referrals created without one
const DefaultRole = "Investor"

// CreateReferral creates a user on behalf of admin. The referral table is
// refreshed only while it is the active tab.
func (s *AdminService) CreateReferral(ctx context.Context, admin string, req models.UserRequest) (platform.CreateResult, error) {
	req = trimRequest(req)
	if req.Role == "" {
		req.Role = DefaultRole
	}
	if err := validation.RequireMobile("mobile", req.Mobile); err != nil {
		return platform.CreateResult{}, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return platform.CreateResult{}, err
	}

	res, err := s.platform.CreateUser(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("mobile", req.Mobile).Msg("Error creating user")
		return platform.CreateResult{}, err
	}

	if res.Exists {
		log.Info().Str("mobile", req.Mobile).Msg("User already exists")
	} else {
		log.Info().Str("admin", admin).Str("mobile", req.Mobile).Msg("Referral created")
		s.metrics.IncrementCounter(metrics.ReferralsCreated)
	}

	c := s.controller(admin)
	st := c.Dispatch(store.SetReferralModalOpen{Open: false})
	if st.ActiveTab == store.TabNonVerified {
		s.FetchReferrals(ctx, admin)
	}
	return res, nil
}

// UpdateReferral updates the referral identified by mobile and refreshes the
// referral table
func (s *AdminService) UpdateReferral(ctx context.Context, admin, mobile string, req models.UserRequest) (string, error) {
	req = trimRequest(req)
	if err := validation.RequireMobile("mobile", mobile); err != nil {
		return "", err
	}
	req.Mobile = ""
	if err := validation.ValidateStruct(req); err != nil {
		return "", err
	}

	msg, err := s.platform.UpdateUser(ctx, mobile, req)
	if err != nil {
		log.Error().Err(err).Str("mobile", mobile).Msg("Error updating user")
		return "", err
	}

	log.Info().Str("admin", admin).Str("mobile", mobile).Msg("Referral updated")
	s.metrics.IncrementCounter(metrics.ReferralsUpdated)

	s.controller(admin).Dispatch(store.SetEditReferralModal{Open: false})
	s.FetchReferrals(ctx, admin)
	return msg, nil
}

// LookupReferrer returns the display name of the user with mobile, or "" when
// the number is too short or the lookup fails
func (s *AdminService) LookupReferrer(ctx context.Context, mobile string) string {
	mobile = strings.TrimSpace(mobile)
	if len(mobile) < 10 {
		return ""
	}

	key := cache.GetReferrerCacheKey(mobile)
	if s.cache != nil {
		var name string
		if err := s.cache.Get(ctx, key, &name); err == nil {
			s.metrics.IncrementCounter(metrics.CacheHits)
			return name
		}
		s.metrics.IncrementCounter(metrics.CacheMisses)
	}

	user, err := s.platform.GetUserDetails(ctx, mobile)
	if err != nil {
		log.Debug().Err(err).Str("mobile", mobile).Msg("Referrer not found or error fetching details")
		return ""
	}

	name := user.FullName()
	if s.cache != nil && name != "" {
		if err := s.cache.Set(ctx, key, name, s.cacheTTL); err != nil {
			log.Debug().Err(err).Msg("Failed to cache referrer name")
		}
	}
	return name
}

func trimRequest(req models.UserRequest) models.UserRequest {
	req.Mobile = strings.TrimSpace(req.Mobile)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.ReferedByMobile = strings.TrimSpace(req.ReferedByMobile)
	req.ReferedByName = strings.TrimSpace(req.ReferedByName)
	req.Role = strings.TrimSpace(req.Role)
	return req
}
