// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"fmt"
	"net/url"

	"github.com/olegiv/folio-go/internal/model"
)

// Fragment parameters set by the backend after an OAuth login.
const (
	fragmentToken        = "token"
	fragmentRefreshToken = "refreshToken"
)

// ParseFragment extracts an OAuth token pair from the URL fragment and
// returns the URL with those parameters removed. Other fragment
// parameters are kept. pair is nil when the fragment carries no token.
func ParseFragment(rawURL string) (clean string, pair *model.TokenPair, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, nil, fmt.Errorf("parsing redirect URL: %w", err)
	}
	if u.Fragment == "" {
		return rawURL, nil, nil
	}

	values, err := url.ParseQuery(u.EscapedFragment())
	if err != nil || values.Get(fragmentToken) == "" {
		return rawURL, nil, nil
	}

	pair = &model.TokenPair{
		AccessToken:  values.Get(fragmentToken),
		RefreshToken: values.Get(fragmentRefreshToken),
	}
	values.Del(fragmentToken)
	values.Del(fragmentRefreshToken)

	u.Fragment = ""
	u.RawFragment = ""
	if rest := values.Encode(); rest != "" {
		if u, err = u.Parse("#" + rest); err != nil {
			return rawURL, nil, fmt.Errorf("rebuilding redirect URL: %w", err)
		}
	}
	return u.String(), pair, nil
}
