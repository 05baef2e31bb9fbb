package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAllowedReceipt(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"image.png", true},
		{"image.PNG", true},
		{"photo.jpg", true},
		{"photo.JpEg", true},
		{"scan.jpeg", true},
		{"C:\\fakepath\\facture.png", true},
		{"archive.tar.png", true},
		{"image.txt", false},
		{"image.pdf", false},
		{"image", false},
		{"image.", false},
		{"", false},
		{"png", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAllowedReceipt(tt.name))
		})
	}
}

func TestReceiptExtension(t *testing.T) {
	assert.Equal(t, "png", ReceiptExtension("dir/Image.PNG"))
	assert.Equal(t, "gz", ReceiptExtension("a.tar.gz"))
	assert.Equal(t, "", ReceiptExtension("noext"))
	assert.Equal(t, "", ReceiptExtension("dir.d/noext"))
}
