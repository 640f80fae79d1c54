package gateway

import "fmt"

// Role identifies a configured backend slot.
type Role string

const (
	RolePrimary      Role = "primary"
	RoleAlternative1 Role = "alternative-1"
	RoleAlternative2 Role = "alternative-2"
)

// Roles lists every role in chain order.
func Roles() []Role {
	return []Role{RolePrimary, RoleAlternative1, RoleAlternative2}
}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles() {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown provider role %q", s)
}

// ProviderID identifies a backend role and the concrete model it is asked to run.
type ProviderID struct {
	Role  Role   `json:"role"`
	Model string `json:"model"`
}

// String returns the name used when attributing output to this provider.
func (p ProviderID) String() string {
	if p.Model != "" {
		return p.Model
	}
	return string(p.Role)
}

// Insight is the text produced by one gateway call, attributed to its provider.
type Insight struct {
	Provider ProviderID `json:"provider"`
	Text     string     `json:"text"`
}

// Tier selects the model class a task runs on.
type Tier string

const (
	TierLight    Tier = "light"
	TierStandard Tier = "standard"
)

// Routing maps tiers and the insight chain to concrete providers.
type Routing struct {
	Light    ProviderID
	Standard ProviderID
	Chain    []ProviderID
}

// ForTier returns the provider for tier, defaulting to the standard one.
func (r Routing) ForTier(tier Tier) ProviderID {
	if tier == TierLight && r.Light.Role != "" {
		return r.Light
	}
	return r.Standard
}
