// common.go
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

package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/callcard/internal/callcard"
	"github.com/localnerve/callcard/internal/middleware"
	"github.com/localnerve/callcard/internal/services"
)

// parseList extracts the values of a query parameter, supporting both
// repeated keys and comma-separated values. Order is kept, duplicates dropped.
func parseList(c *fiber.Ctx, name string) []string {
	seen := make(map[string]struct{})
	var out []string

	args := c.Context().QueryArgs()
	for key, value := range args.All() {
		if string(key) != name {
			continue
		}
		for _, v := range strings.Split(string(value), ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// parseStatuses reads a list of status codes.
func parseStatuses(c *fiber.Ctx, name string) (callcard.StatusSet, error) {
	var out callcard.StatusSet
	for _, v := range parseList(c, name) {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a status code", name, v)
		}
		out = append(out, callcard.Status(n))
	}
	return out, nil
}

// parseTime accepts RFC3339 timestamps and plain dates.
func parseTime(c *fiber.Ctx, name string) (*time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s: %q is not a date", name, v)
}

// getUser returns the session user set by the auth middleware.
func getUser(c *fiber.Ctx) (*services.SessionUser, error) {
	user, ok := c.Locals(middleware.UserKey).(*services.SessionUser)
	if !ok || user == nil || user.ID == "" {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// scopeOf builds the caller scope from the session user and the groupId
// and gameTypeId query parameters.
func scopeOf(c *fiber.Ctx, user *services.SessionUser) (callcard.Scope, error) {
	scope := callcard.Scope{
		UserID:      user.ID,
		UserGroupID: c.Query("groupId"),
	}
	if v := c.Query("gameTypeId"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return scope, fmt.Errorf("gameTypeId: %q is not a number", v)
		}
		scope.GameTypeID = n
	}
	return scope, nil
}

// parsePaging reads the page and pageSize query parameters and applies the
// listing defaults.
func parsePaging(c *fiber.Ctx) (callcard.Paging, error) {
	var p callcard.Paging
	for name, dst := range map[string]*int{"page": &p.Page, "pageSize": &p.PageSize} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("%s: %q is not a number", name, v)
		}
		*dst = n
	}
	return p.Normalize()
}

// setPageHeaders describes the returned page of a listing.
func setPageHeaders(c *fiber.Ctx, p callcard.Paging, total int64) {
	pages := (total + int64(p.PageSize) - 1) / int64(p.PageSize)
	c.Set("X-Total-Count", strconv.FormatInt(total, 10))
	c.Set("X-Page", strconv.Itoa(p.Page))
	c.Set("X-Page-Size", strconv.Itoa(p.PageSize))
	c.Set("X-Total-Pages", strconv.FormatInt(pages, 10))
}
