package domain

import (
	"testing"
)

// FuzzParseWalletID checks that parsing never panics on arbitrary input and
// that accepted values round-trip unchanged.
func FuzzParseWalletID(f *testing.F) {
	f.Add("")
	f.Add("wallet-1")
	f.Add("'; DROP TABLE identity_bindings;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		w, err := ParseWalletID(input)
		if err != nil {
			return
		}
		roundTrip, err2 := ParseWalletID(w.String())
		if err2 != nil {
			t.Errorf("accepted wallet id failed round-trip: %v", err2)
		}
		if roundTrip != w {
			t.Error("round-trip changed wallet id")
		}
	})
}
