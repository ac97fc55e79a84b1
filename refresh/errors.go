/*
 * Copyright 2019 Kopano and its licensors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License, version 3,
 * as published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package refresh

import (
	"fmt"
)

// TokenEndpointError is the error returned when the identity provider's
// token endpoint responds with a non success status. It carries the OAuth2
// error fields of the response when available.
type TokenEndpointError struct {
	Status int `json:"-"`

	Code             string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Error implements the error interface.
func (err *TokenEndpointError) Error() string {
	return fmt.Sprintf("token endpoint error: %s (status %d)", err.Code, err.Status)
}

// Description implements the utils.ErrorWithDescription interface.
func (err *TokenEndpointError) Description() string {
	return err.ErrorDescription
}
