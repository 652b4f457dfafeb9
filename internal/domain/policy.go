package domain

import "sort"

// Policy maps a (channel, complaint, service) combination to the owning
// division and SLA window. Nil ChannelID or Service act as wildcards.
// Owned by administrators; the engine only reads it.
type Policy struct {
	ID          int64
	ChannelID   *string
	ComplaintID string
	Service     *string
	SlaHours    int
	UicID       string
	Description string
}

// matchTier ranks how specifically a policy matches the lookup inputs.
// Lower is more specific; -1 means no match.
func (p Policy) matchTier(channelID, complaintID, service string) int {
	if p.ComplaintID != complaintID {
		return -1
	}
	switch {
	case p.ChannelID != nil && p.Service != nil:
		if *p.ChannelID == channelID && *p.Service == service {
			return 0
		}
	case p.ChannelID != nil:
		if *p.ChannelID == channelID {
			return 1
		}
	case p.Service == nil:
		return 2
	}
	return -1
}

// ResolvePolicy picks the most specific matching policy: exact
// (channel, complaint, service), then (channel, complaint, *), then
// (*, complaint, *). Ties within a tier break on the lowest policy id so
// resolution stays deterministic. Returns nil when nothing matches.
func ResolvePolicy(policies []Policy, channelID, complaintID, service string) *Policy {
	best := -1
	bestTier := 0
	for i := range policies {
		tier := policies[i].matchTier(channelID, complaintID, service)
		if tier < 0 {
			continue
		}
		if best < 0 || tier < bestTier || (tier == bestTier && policies[i].ID < policies[best].ID) {
			best = i
			bestTier = tier
		}
	}
	if best < 0 {
		return nil
	}
	match := policies[best]
	return &match
}

// SortPoliciesByID orders policies deterministically for stable listings.
func SortPoliciesByID(policies []Policy) {
	sort.Slice(policies, func(i, j int) bool {
		return policies[i].ID < policies[j].ID
	})
}
