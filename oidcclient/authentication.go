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

package oidcclient

// An Authentication represents a completed logon at the identity provider.
// It exposes the identity claims the session lifecycle needs without binding
// it to a particular OAuth2 client implementation.
type Authentication interface {
	// PrincipalName returns the identity provider's name for the principal,
	// the sub claim of the identity token.
	PrincipalName() string
	// Email returns the principal's email address, if any.
	Email() string
	// DisplayName returns the principal's display name, if any.
	DisplayName() string
	// IDToken returns the serialized identity token of the logon, or the
	// empty string when the identity provider did not include one.
	IDToken() string
}

type authentication struct {
	sub     string
	email   string
	name    string
	idToken string
}

// PrincipalName implements the Authentication interface.
func (a *authentication) PrincipalName() string {
	return a.sub
}

// Email implements the Authentication interface.
func (a *authentication) Email() string {
	return a.email
}

// DisplayName implements the Authentication interface.
func (a *authentication) DisplayName() string {
	return a.name
}

// IDToken implements the Authentication interface.
func (a *authentication) IDToken() string {
	return a.idToken
}
