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

package signing

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io/ioutil"
)

// LoadSigningKeyFromFile reads the file with the provided name and parses it
// as a PEM encoded RSA private key in either PKCS#1 or PKCS#8 form.
func LoadSigningKeyFromFile(fn string) (*rsa.PrivateKey, error) {
	pemBytes, err := ioutil.ReadFile(fn)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %v", err)
	}

	return ParseSigningKeyPEM(pemBytes)
}

// ParseSigningKeyPEM parses the provided bytes as a PEM encoded RSA private
// key in either PKCS#1 or PKCS#8 form.
func ParseSigningKeyPEM(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key: %v", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("key is not a RSA private key")
	}

	return key, nil
}
