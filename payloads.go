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

package kbridge

import (
	"net/http"

	"stash.kopano.io/kc/kbridge/utils"
)

// Error IDs used in kbridge error responses.
const (
	ErrorIDMissingSession  = "MISSING_SESSION"
	ErrorIDInvalidSession  = "INVALID_SESSION"
	ErrorIDSessionNotFound = "SESSION_NOT_FOUND"
	ErrorIDBadGateway      = "BAD_GATEWAY"
)

// ErrorResponse defines the JSON payload returned by kbridge endpoints when
// a request fails.
type ErrorResponse struct {
	Status  int    `json:"status"`
	ErrorID string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteErrorResponse writes an error response with the provided HTTP status
// code and error details to the provided http.ResponseWriter. When hardened
// is true only the status code is sent, without any detail in the body.
func WriteErrorResponse(rw http.ResponseWriter, code int, errorID string, message string, hardened bool) error {
	if hardened {
		rw.WriteHeader(code)
		return nil
	}

	return utils.WriteJSON(rw, code, &ErrorResponse{
		Status:  code,
		ErrorID: errorID,
		Message: message,
	}, "")
}

// UserInfoResponse defines the data returned by the kbridge user endpoint. It
// carries the display claims of the current principal as found in the session
// token.
type UserInfoResponse struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
}
