package krypto_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/webtrio/webfolio/internal/krypto"
)

func failTextToArgon2Hash() map[string]string {
	return map[string]string{
		"fail, wrong variant":           "$argon2i$v=19$m=47104,t=1,p=1$fYJT8cAysfuYCBjxTEmCkaCz0RfRtlLQOw2Fj8gM5Uw$DVpK1dNdPRmhL8oTSo+RlA",
		"fail, non-numeric version":     "$argon2id$v=abc$m=47104,t=1,p=1$fYJT8cAysfuYCBjxTEmCkaCz0RfRtlLQOw2Fj8gM5Uw$DVpK1dNdPRmhL8oTSo+RlA",
		"fail, non-matching version":    "$argon2id$v=18$m=47104,t=1,p=1$fYJT8cAysfuYCBjxTEmCkaCz0RfRtlLQOw2Fj8gM5Uw$DVpK1dNdPRmhL8oTSo+RlA",
		"fail, non-numeric memory":      "$argon2id$v=19$m=abc,t=1,p=1$fYJT8cAysfuYCBjxTEmCkaCz0RfRtlLQOw2Fj8gM5Uw$DVpK1dNdPRmhL8oTSo+RlA",
		"fail, non-numeric iterations":  "$argon2id$v=19$m=47104,t=abc,p=1$fYJT8cAysfuYCBjxTEmCkaCz0RfRtlLQOw2Fj8gM5Uw$DVpK1dNdPRmhL8oTSo+RlA",
		"fail, non-numeric parallelism": "$argon2id$v=19$m=47104,t=1,p=abc$fYJT8cAysfuYCBjxTEmCkaCz0RfRtlLQOw2Fj8gM5Uw$DVpK1dNdPRmhL8oTSo+RlA",
		"fail, non-base64 salt":         "$argon2id$v=19$m=47104,t=1,p=1$???????????????????????????????????????????$DVpK1dNdPRmhL8oTSo+RlA",
		"fail, non-base64 hash":         "$argon2id$v=19$m=47104,t=1,p=1$fYJT8cAysfuYCBjxTEmCkaCz0RfRtlLQOw2Fj8gM5Uw$??????????????????????",
		"fail, missing segments":        "$argon2id$v=19$m=47104,t=1,p=1$fYJT8cAysfuYCBjxTEmCkaCz0RfRtlLQOw2Fj8gM5Uw",
	}
}

type argon2HashTest struct {
	raw     string
	hashStr string
	hash    krypto.Argon2Hash
}

func okTextToArgon2Hash() map[string]argon2HashTest {
	return map[string]argon2HashTest{
		"ascii": {
			raw:     "12345678",
			hashStr: "$argon2id$v=19$m=47104,t=1,p=1$vP9U4C5jsOzFQLj0gvUkYw$YLrSb2dGfcVohlm8syynqHs6/NHxXS9rt/t6TjL7pi0",
			hash: krypto.Argon2Hash{
				Variant:     "argon2id",
				Version:     19,
				MemoryKiB:   47104,
				Iterations:  1,
				Parallelism: 1,
				Salt: []byte{
					0xbc, 0xff, 0x54, 0xe0, 0x2e, 0x63, 0xb0, 0xec,
					0xc5, 0x40, 0xb8, 0xf4, 0x82, 0xf5, 0x24, 0x63,
				},
				Hash: []byte{
					0x60, 0xba, 0xd2, 0x6f, 0x67, 0x46, 0x7d, 0xc5,
					0x68, 0x86, 0x59, 0xbc, 0xb3, 0x2c, 0xa7, 0xa8,
					0x7b, 0x3a, 0xfc, 0xd1, 0xf1, 0x5d, 0x2f, 0x6b,
					0xb7, 0xfb, 0x7a, 0x4e, 0x32, 0xfb, 0xa6, 0x2d,
				},
			},
		},
		"numeric code": {
			raw:     "482913",
			hashStr: "",
			hash:    krypto.Argon2Hash{},
		},
	}
}

func Test_Argon2Hash_HashArgon2AndMatch(t *testing.T) {
	for name, tc := range okTextToArgon2Hash() {
		t.Run(name, func(t *testing.T) {
			got, err := krypto.HashArgon2([]byte(tc.raw))
			if err != nil {
				t.Fatalf("failed to hash argon2: %v", err)
			}

			// The new hash and any existing hash should not be equal
			// because of the random salt.
			if reflect.DeepEqual(got, tc.hash) {
				t.Errorf("did not expect\n%#v\nto equal\n%#v\n", got, tc.hash)
			}

			// Additionaly, the raw value should match the new hash.
			if !got.MatchBytes([]byte(tc.raw)) {
				t.Errorf("expected raw value to match hash, but it did not")
			}

			// And a different value should not.
			if got.MatchBytes([]byte(tc.raw + "x")) {
				t.Errorf("expected different value to not match hash, but it did")
			}
		})
	}

	t.Run("fail, empty", func(t *testing.T) {
		_, err := krypto.HashArgon2(nil)
		if !errors.Is(err, krypto.ErrInvalidInput) {
			t.Fatalf("expected %v, but got %v (via errors.Is)", krypto.ErrInvalidInput, err)
		}
	})
}

func Test_Argon2Hash_ParseArgon2HashAndMatch(t *testing.T) {
	tc := okTextToArgon2Hash()["ascii"]

	t.Run("ok, ascii", func(t *testing.T) {
		got, err := krypto.ParseArgon2Hash(tc.hashStr)
		if err != nil {
			t.Fatalf("failed to parse argon2 hash: %v", err)
		}

		// The parsed hash should match the existing hash exactly.
		if !reflect.DeepEqual(got, tc.hash) {
			t.Errorf("wanted\n%#v\nbut got\n%#v\n", got, tc.hash)
		}

		// The raw value should match the parsed hash.
		if !got.MatchBytes([]byte(tc.raw)) {
			t.Errorf("expected raw value to match hash, but it did not")
		}

		// Formatting the parsed hash should roundtrip.
		if got.String() != tc.hashStr {
			t.Errorf("wanted\n%s\nbut got\n%s\n", tc.hashStr, got.String())
		}
	})

	for name, txt := range failTextToArgon2Hash() {
		t.Run(name, func(t *testing.T) {
			_, err := krypto.ParseArgon2Hash(txt)
			if !errors.Is(err, krypto.ErrInvalidInput) {
				t.Errorf("expected error to match (using errors.Is)\n%v\ngot\n%v\n", krypto.ErrInvalidInput, err)
			}
		})
	}
}
