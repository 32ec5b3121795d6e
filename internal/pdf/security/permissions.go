package security

import (
	"fmt"
	"strings"
)

// Permissions are the user access flags from the P entry of an encryption
// dictionary. Tagging a document rewrites its content streams and adds a
// structure tree, which needs Modify.
type Permissions struct {
	Print            bool // Bit 3
	Modify           bool // Bit 4
	Copy             bool // Bit 5
	Annotate         bool // Bit 6
	FillForms        bool // Bit 9
	Extract          bool // Bit 10, text extraction for accessibility
	Assemble         bool // Bit 11
	PrintHighQuality bool // Bit 12
}

// NewPermissions decodes a P value
func NewPermissions(perms int32) Permissions {
	return Permissions{
		Print:            perms&0x04 != 0,
		Modify:           perms&0x08 != 0,
		Copy:             perms&0x10 != 0,
		Annotate:         perms&0x20 != 0,
		FillForms:        perms&0x200 != 0,
		Extract:          perms&0x400 != 0,
		Assemble:         perms&0x800 != 0,
		PrintHighQuality: perms&0x1000 != 0,
	}
}

// NewFullPermissions is what an unencrypted document grants
func NewFullPermissions() Permissions {
	return Permissions{
		Print: true, Modify: true, Copy: true, Annotate: true,
		FillForms: true, Extract: true, Assemble: true, PrintHighQuality: true,
	}
}

// ToInt32 encodes the flags as a P value with the reserved bits set
func (p Permissions) ToInt32() int32 {
	perms := int32(-8192) | 0xC3
	for _, f := range p.flags() {
		if f.allowed {
			perms |= f.bit
		}
	}
	return perms
}

type flag struct {
	name    string
	bit     int32
	allowed bool
}

func (p Permissions) flags() []flag {
	return []flag{
		{"print", 0x04, p.Print},
		{"modify", 0x08, p.Modify},
		{"copy", 0x10, p.Copy},
		{"annotate", 0x20, p.Annotate},
		{"fill_forms", 0x200, p.FillForms},
		{"extract", 0x400, p.Extract},
		{"assemble", 0x800, p.Assemble},
		{"print_high_quality", 0x1000, p.PrintHighQuality},
	}
}

// AllowsTagging reports whether the content streams may be rewritten
func (p Permissions) AllowsTagging() bool {
	return p.Modify
}

// Denied returns the names of the operations the document forbids
func (p Permissions) Denied() []string {
	var denied []string
	for _, f := range p.flags() {
		if !f.allowed {
			denied = append(denied, f.name)
		}
	}
	return denied
}

// CheckTagging returns an error naming the restriction when tagging is not allowed
func (p Permissions) CheckTagging() error {
	if p.AllowsTagging() {
		return nil
	}
	return fmt.Errorf("document permissions forbid modification (denied: %s)", strings.Join(p.Denied(), ", "))
}

func (p Permissions) String() string {
	var parts []string
	for _, f := range p.flags() {
		if f.allowed {
			parts = append(parts, f.name)
		}
	}
	if len(parts) == 0 {
		return "No permissions granted"
	}
	return "Allowed: " + strings.Join(parts, ", ")
}
