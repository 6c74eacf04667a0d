package security_test

import (
	"strings"
	"testing"

	"github.com/warehouse-incentives/incentives-backend/pkg/config"
	"github.com/warehouse-incentives/incentives-backend/pkg/security"
)

var testCfg = config.PasswordConfig{
	ArgonMemoryKB:    32768,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("very-secure-password", testCfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=32768,t=1,p=1$") {
		t.Fatalf("unexpected hash layout %q", hash)
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil || !ok {
		t.Fatalf("expected correct password to verify, ok=%v err=%v", ok, err)
	}
	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil || ok {
		t.Fatalf("expected wrong password to fail, ok=%v err=%v", ok, err)
	}
	if security.NeedsRehash(hash, testCfg) {
		t.Fatal("a fresh hash must not need rehash")
	}

	if _, err := security.HashPassword("", testCfg); err == nil {
		t.Fatal("expected empty password to fail")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	for _, encoded := range []string{
		"not-a-hash",
		"$argon2id$v=18$m=8,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8,t=1,p=1$$aGFzaA",
	} {
		if _, err := security.VerifyPassword("irrelevant", encoded); err == nil {
			t.Fatalf("expected error for %q", encoded)
		}
	}
}

func TestNeedsRehashForWeakArgon(t *testing.T) {
	weak := testCfg
	weak.ArgonMemoryKB = 8
	hash, err := security.HashPassword("picker123", weak)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !security.NeedsRehash(hash, testCfg) {
		t.Fatal("a hash below the configured memory cost should be upgraded")
	}
	if security.NeedsRehash("garbage", testCfg) {
		t.Fatal("unparseable hashes are not rehash candidates")
	}
}

func TestVerifyLegacyHashes(t *testing.T) {
	cases := map[string]string{
		"pbkdf2": "pbkdf2:sha256:1000$abcdefgh$d56ff0fafc259e4ac4000a7b9cb8220e8c494bd8001148b3efdbc9713e5064b9",
		"scrypt": "scrypt:16384:8:1$saltsalt$a23248fb31619595b68e0daa8a3f187c1fd3b3e36e46c47c94af254ec772a33c7fc6059318b06b5034de10dd58eec03d2573d73055df6184fa2a466f260a708c",
	}
	for name, encoded := range cases {
		t.Run(name, func(t *testing.T) {
			if !security.NeedsRehash(encoded, testCfg) {
				t.Fatal("expected legacy hash to need rehash")
			}
			ok, err := security.VerifyPassword("picker123", encoded)
			if err != nil || !ok {
				t.Fatalf("expected legacy hash to verify, ok=%v err=%v", ok, err)
			}
			ok, err = security.VerifyPassword("picker124", encoded)
			if err != nil || ok {
				t.Fatalf("expected wrong password to fail, ok=%v err=%v", ok, err)
			}
		})
	}

	if _, err := security.VerifyPassword("x", "pbkdf2:md5:10$salt$00"); err == nil {
		t.Fatal("expected unsupported digest to fail")
	}
}

func TestGenerateTempPassword(t *testing.T) {
	pw, err := security.GenerateTempPassword(12)
	if err != nil {
		t.Fatalf("GenerateTempPassword returned error: %v", err)
	}
	if len(pw) != 12 {
		t.Fatalf("expected 12 characters, got %d", len(pw))
	}
	if strings.ContainsAny(pw, "0O1lI") {
		t.Fatalf("temp password contains look-alike glyphs: %q", pw)
	}
	if _, err := security.GenerateTempPassword(0); err == nil {
		t.Fatal("expected zero length to fail")
	}
}
