// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"github.com/olegiv/folio-go/internal/model"
)

// Gate derives coarse authorization from the session user.
type Gate struct {
	// LegacyAdminUsername also grants super user access to the account
	// named "admin", whatever its role.
	LegacyAdminUsername bool
}

// IsSuperUser reports whether an authenticated user may manage content.
func (g Gate) IsSuperUser(authenticated bool, u *model.User) bool {
	if !authenticated || u == nil {
		return false
	}
	if u.HasPrivilegedRole() {
		return true
	}
	return g.LegacyAdminUsername && u.Username == model.LegacyAdminUsername
}
