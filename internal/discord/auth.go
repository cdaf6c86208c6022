package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/scylladb/go-set/strset"
)

// permissionManageEmojis is MANAGE_GUILD_EXPRESSIONS (formerly MANAGE_EMOJIS_AND_STICKERS)
const permissionManageEmojis int64 = 1 << 30

// RoleGate is the admin allow-list. A member passes when they hold at least
// one allowed role. An empty allow-list admits nobody.
type RoleGate struct {
	roles *strset.Set
}

func NewRoleGate(roleIDs []string) *RoleGate {
	roles := strset.New()
	for _, id := range roleIDs {
		if id != "" {
			roles.Add(id)
		}
	}
	return &RoleGate{roles: roles}
}

// Allowed reports whether member holds an allowed role
func (g *RoleGate) Allowed(member *discordgo.Member) bool {
	if member == nil || g.roles.IsEmpty() {
		return false
	}
	for _, role := range member.Roles {
		if g.roles.Has(role) {
			return true
		}
	}
	return false
}

// Size returns the number of allowed roles
func (g *RoleGate) Size() int {
	return g.roles.Size()
}

// canManageEmojis checks the permissions resolved for the interaction
func canManageEmojis(member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	return member.Permissions&(permissionManageEmojis|discordgo.PermissionAdministrator) != 0
}
