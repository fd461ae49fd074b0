package service

import (
	"context"
	"fmt"

	"gm-economy-api/internal/gateway"
)

// TargetResolver turns an optional single player and/or an optional group
// into the effective target set for bulk wallet operations: the union of
// both, de-duplicated by ID, preserving first-seen order. Supplying
// neither yields an empty set, which bulk operations report as "no
// targets" rather than an error.
type TargetResolver struct {
	identity gateway.IdentityService
}

// NewTargetResolver creates a new target resolver.
func NewTargetResolver(identity gateway.IdentityService) *TargetResolver {
	return &TargetResolver{identity: identity}
}

// Resolve builds the target set for the given player and/or role ID.
func (r *TargetResolver) Resolve(ctx context.Context, playerID, roleID string) ([]*gateway.MemberProfile, error) {
	targets := []*gateway.MemberProfile{}
	seen := map[string]bool{}

	if playerID != "" {
		profile, err := r.identity.ResolveMember(ctx, playerID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve player %s: %w", playerID, err)
		}
		targets = append(targets, profile)
		seen[profile.ID] = true
	}

	if roleID != "" {
		members, err := r.identity.GroupMembers(ctx, roleID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve role %s: %w", roleID, err)
		}
		for _, member := range members {
			if seen[member.ID] {
				continue
			}
			targets = append(targets, member)
			seen[member.ID] = true
		}
	}

	return targets, nil
}
