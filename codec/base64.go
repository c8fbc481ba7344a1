package codec

import "encoding/base64"

// B64 returns standard base64 encoding without newlines.
func B64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// B64url returns unpadded base64url encoding as used in JOSE segments.
func B64url(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

// DecodeB64 decodes standard base64.
func DecodeB64(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) }

// DecodeB64url decodes unpadded base64url.
func DecodeB64url(s string) ([]byte, error) { return base64.RawURLEncoding.DecodeString(s) }
