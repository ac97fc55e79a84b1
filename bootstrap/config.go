/*
 * Copyright 2019 Kopano and its licensors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package bootstrap

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// LoadConfigFromFile reads the YAML file at the provided path and merges its
// values into the provided Config. Values already set in the Config win over
// values from the file.
func LoadConfigFromFile(cfg *Config, fn string) error {
	configBytes, err := ioutil.ReadFile(fn)
	if err != nil {
		return fmt.Errorf("failed to read config file: %v", err)
	}

	fileConfig := &Config{}
	if err = yaml.Unmarshal(configBytes, fileConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %v", err)
	}

	mergeConfig(cfg, fileConfig)
	return nil
}

func mergeConfig(cfg *Config, fileConfig *Config) {
	if cfg.Iss == "" {
		cfg.Iss = fileConfig.Iss
	}
	if cfg.Listen == "" {
		cfg.Listen = fileConfig.Listen
	}
	if cfg.URIBasePath == "" {
		cfg.URIBasePath = fileConfig.URIBasePath
	}
	if cfg.FrontendURI == "" {
		cfg.FrontendURI = fileConfig.FrontendURI
	}
	if cfg.GatewayURI == "" {
		cfg.GatewayURI = fileConfig.GatewayURI
	}
	if cfg.ProviderURI == "" {
		cfg.ProviderURI = fileConfig.ProviderURI
	}
	if cfg.ClientID == "" {
		cfg.ClientID = fileConfig.ClientID
	}
	if cfg.ClientSecret == "" {
		cfg.ClientSecret = fileConfig.ClientSecret
	}
	if cfg.RegistrationID == "" {
		cfg.RegistrationID = fileConfig.RegistrationID
	}
	if len(cfg.Scope) == 0 {
		cfg.Scope = fileConfig.Scope
	}
	if cfg.SigningPrivateKeyFile == "" {
		cfg.SigningPrivateKeyFile = fileConfig.SigningPrivateKeyFile
	}
	if cfg.SigningMethod == "" {
		cfg.SigningMethod = fileConfig.SigningMethod
	}
	if cfg.SessionStore == "" {
		cfg.SessionStore = fileConfig.SessionStore
	}
	if cfg.RedisURI == "" {
		cfg.RedisURI = fileConfig.RedisURI
	}
	if cfg.SessionDurationMinutes == 0 {
		cfg.SessionDurationMinutes = fileConfig.SessionDurationMinutes
	}
	if cfg.RefreshBufferSeconds == 0 {
		cfg.RefreshBufferSeconds = fileConfig.RefreshBufferSeconds
	}
	if cfg.CookieName == "" {
		cfg.CookieName = fileConfig.CookieName
	}
	if cfg.SecondaryCookieName == "" {
		cfg.SecondaryCookieName = fileConfig.SecondaryCookieName
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = fileConfig.AllowedOrigins
	}
	if cfg.CORSMaxAgeSeconds == 0 {
		cfg.CORSMaxAgeSeconds = fileConfig.CORSMaxAgeSeconds
	}
	cfg.CookieSecure = cfg.CookieSecure || fileConfig.CookieSecure
	cfg.Hardened = cfg.Hardened || fileConfig.Hardened
	cfg.Insecure = cfg.Insecure || fileConfig.Insecure
}
