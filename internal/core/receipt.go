package core

import (
	"path"
	"strings"
)

var allowedReceiptExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// Receipt is a file chosen on the new bill form and not yet submitted.
type Receipt struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReceiptExtension returns the lower-cased extension of name, or "" when there is none.
func ReceiptExtension(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	i := strings.LastIndex(base, ".")
	if i < 0 || i == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[i+1:])
}

// IsAllowedReceipt reports whether a receipt file name has a jpg, jpeg or png extension.
func IsAllowedReceipt(name string) bool {
	_, ok := allowedReceiptExtensions[ReceiptExtension(name)]
	return ok
}

func (r Receipt) Empty() bool {
	return r.Name == "" && len(r.Data) == 0
}
