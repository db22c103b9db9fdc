// auth_service.go
//
// Visit card storage and reconciliation service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of callcard.
// callcard is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// callcard is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with callcard.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"fmt"
	"sync"

	authorizer "github.com/localnerve/authorizer-go"
	"github.com/localnerve/callcard/internal/config"
	"github.com/localnerve/callcard/internal/utils"
	"go.uber.org/zap"
)

// SessionUser is the authenticated caller of a request.
type SessionUser struct {
	ID    string
	Roles []string
}

// SessionValidator checks a session cookie against the required roles.
type SessionValidator interface {
	ValidateSession(cookie string, roles []string) (*SessionUser, error)
}

// AuthorizerSessions validates sessions with an Authorizer server. The
// client is created on first use.
type AuthorizerSessions struct {
	cfg *config.Config
	log *zap.Logger

	once   sync.Once
	client *authorizer.AuthorizerClient
	err    error
}

func NewAuthorizerSessions(cfg *config.Config, log *zap.Logger) *AuthorizerSessions {
	return &AuthorizerSessions{cfg: cfg, log: log}
}

func (a *AuthorizerSessions) init() error {
	a.once.Do(func() {
		if err := utils.PingAuthorizer(a.cfg.AuthzURL); err != nil {
			a.err = fmt.Errorf("authorizer ping failed: %w", err)
			return
		}
		a.log.Info("initializing authorizer",
			zap.String("authorizerUrl", a.cfg.AuthzURL),
			zap.String("clientId", a.cfg.AuthzClientID),
			zap.String("redirectUrl", a.cfg.AuthzRedirectURL))

		a.client, a.err = authorizer.NewAuthorizerClient(a.cfg.AuthzClientID, a.cfg.AuthzURL, a.cfg.AuthzRedirectURL, nil)
		if a.err != nil {
			a.err = fmt.Errorf("failed to create authorizer client: %w", a.err)
		}
	})
	return a.err
}

// ValidateSession validates a session cookie for the given roles
func (a *AuthorizerSessions) ValidateSession(cookie string, roles []string) (*SessionUser, error) {
	if err := a.init(); err != nil {
		return nil, err
	}

	rolesPtrs := make([]*string, len(roles))
	for i := range roles {
		rolesPtrs[i] = &roles[i]
	}

	res, err := a.client.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: cookie,
		Roles:  rolesPtrs,
	})
	if err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if res == nil || !res.IsValid || res.User == nil {
		return nil, fmt.Errorf("session is not valid")
	}

	return &SessionUser{ID: res.User.ID, Roles: roles}, nil
}
