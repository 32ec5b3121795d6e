package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPermissions(t *testing.T) {
	tests := []struct {
		name    string
		p       int32
		modify  bool
		extract bool
		denied  []string
	}{
		{"all granted", -4, true, true, nil},
		{"print only", int32(-8192) | 0xC3 | 0x04, false, false, []string{"modify", "copy", "annotate", "fill_forms", "extract", "assemble", "print_high_quality"}},
		{"no modify", -4 &^ 0x08, false, true, []string{"modify"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perms := NewPermissions(tt.p)
			assert.Equal(t, tt.modify, perms.Modify)
			assert.Equal(t, tt.extract, perms.Extract)
			assert.Equal(t, tt.modify, perms.AllowsTagging())
			assert.Equal(t, tt.denied, perms.Denied())
		})
	}
}

func TestPermissionsRoundTrip(t *testing.T) {
	perms := Permissions{Print: true, Extract: true}
	p := perms.ToInt32()
	assert.Equal(t, int32(0xC3), p&0xC3, "reserved bits")
	assert.Less(t, p, int32(0))
	assert.Equal(t, perms, NewPermissions(p))
	assert.Equal(t, NewFullPermissions(), NewPermissions(NewFullPermissions().ToInt32()))
}

func TestCheckTagging(t *testing.T) {
	require.NoError(t, NewFullPermissions().CheckTagging())

	err := Permissions{Print: true}.CheckTagging()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modify")

	assert.Equal(t, "No permissions granted", Permissions{}.String())
	assert.Equal(t, "Allowed: print, extract", Permissions{Print: true, Extract: true}.String())
}
