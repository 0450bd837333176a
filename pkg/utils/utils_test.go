package utils

import (
	"encoding/base64"
	"errors"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestNewULIDFromTimestamp(t *testing.T) {
	u := New()
	now := time.Now()

	id, err := u.NewULIDFromTimestamp(now)
	if err != nil {
		t.Fatalf("NewULIDFromTimestamp: %v", err)
	}

	parsed, err := ulid.Parse(id)
	if err != nil {
		t.Fatalf("ulid.Parse(%q): %v", id, err)
	}
	if parsed.Time() != ulid.Timestamp(now) {
		t.Fatalf("timestamp = %d, want %d", parsed.Time(), ulid.Timestamp(now))
	}
}

func TestValidateImageFile(t *testing.T) {
	header := func(size int64, contentType string) *multipart.FileHeader {
		h := textproto.MIMEHeader{}
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		return &multipart.FileHeader{Filename: "eye.jpg", Size: size, Header: h}
	}

	tests := []struct {
		name string
		file *multipart.FileHeader
		want error
	}{
		{"nil", nil, ErrNoFile},
		{"jpeg", header(1024, "image/jpeg"), nil},
		{"octet stream", header(1024, "application/octet-stream"), nil},
		{"no content type", header(1024, ""), nil},
		{"too large", header(6*1024*1024, "image/png"), ErrFileTooLarge},
		{"text", header(10, "text/plain"), ErrNotAnImage},
	}

	u := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := u.ValidateImageFile(tt.file)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeBase64Image(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}
	raw := base64.StdEncoding.EncodeToString(payload)

	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"raw", raw, false},
		{"data url", "data:image/png;base64," + raw, false},
		{"padded whitespace", "\n" + raw + " ", false},
		{"not base64", "%%%", true},
		{"non image data url", "data:text/plain;base64," + raw, true},
	}

	u := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := u.DecodeBase64Image(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeBase64Image: %v", err)
			}
			if string(got) != string(payload) {
				t.Fatalf("got %v, want %v", got, payload)
			}
		})
	}

	big := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 5*1024*1024+1)))
	if _, err := u.DecodeBase64Image(big); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}
}
