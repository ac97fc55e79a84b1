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
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"stash.kopano.io/kc/kbridge/config"
)

var logger = &logrus.Logger{
	Out:       os.Stderr,
	Formatter: &logrus.TextFormatter{DisableColors: true},
	Level:     logrus.DebugLevel,
}

func writeTestSigningKey(t *testing.T) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatal(err)
	}

	fn := filepath.Join(t.TempDir(), "signing.pem")
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	if err := ioutil.WriteFile(fn, pemBytes, 0600); err != nil {
		t.Fatal(err)
	}

	return fn
}

func newTestBootstrapConfig(t *testing.T) *Config {
	return &Config{
		Iss:         "https://bff.kopano.local",
		Listen:      "127.0.0.1:8778",
		FrontendURI: "https://frontend.kopano.local",
		GatewayURI:  "https://gateway.kopano.local",
		ProviderURI: "https://idp.kopano.local/auth/realms/test",

		ClientID: "kbridge-client",

		SigningPrivateKeyFile: writeTestSigningKey(t),

		SessionStore: sessionStoreNameMemory,
	}
}

func TestBoot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bs, err := Boot(ctx, newTestBootstrapConfig(t), &config.Config{
		Logger: logger,
	})
	if err != nil {
		t.Fatal(err)
	}

	if bs.Server() == nil {
		t.Error("boot without server")
	}
	if bs.Config().ListenAddr != "127.0.0.1:8778" {
		t.Errorf("boot with wrong listen addr: %v", bs.Config().ListenAddr)
	}
}

func TestBootRequiresIss(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bsConf := newTestBootstrapConfig(t)
	bsConf.Iss = ""

	if _, err := Boot(ctx, bsConf, &config.Config{Logger: logger}); err == nil {
		t.Error("boot without iss did not fail")
	}
}

func TestBootRequiresSigningKey(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bsConf := newTestBootstrapConfig(t)
	bsConf.SigningPrivateKeyFile = ""

	if _, err := Boot(ctx, bsConf, &config.Config{Logger: logger}); err == nil {
		t.Error("boot without signing key did not fail")
	}
}

func TestBootRejectsUnknownSessionStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bsConf := newTestBootstrapConfig(t)
	bsConf.SessionStore = "flatfile"

	if _, err := Boot(ctx, bsConf, &config.Config{Logger: logger}); err == nil {
		t.Error("boot with unknown session store did not fail")
	}
}
