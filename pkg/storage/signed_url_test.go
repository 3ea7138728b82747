package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("doc-1", "2024-05/file.pdf", DispositionAttachment)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	file, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "doc-1", file.ResourceID)
	require.Equal(t, "2024-05/file.pdf", file.Path)
	require.Equal(t, DispositionAttachment, file.Disposition)
	require.WithinDuration(t, expiresAt, file.ExpiresAt, time.Second)
}

func TestSignedURLSignerDefaultsToInline(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("doc-1", "a.pdf", "bogus")
	require.NoError(t, err)

	file, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, DispositionInline, file.Disposition)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	issued := time.Now()
	signer.now = func() time.Time { return issued }
	token, _, err := signer.Generate("doc-1", "a.pdf", DispositionInline)
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = signer.Parse(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("doc-1", "a.pdf", DispositionInline)
	require.NoError(t, err)

	tampered := strings.Replace(token, ".inline.", ".attachment.", 1)
	_, err = signer.Parse(tampered)
	require.ErrorIs(t, err, ErrTokenSignature)

	other := NewSignedURLSigner("other", time.Hour)
	_, err = other.Parse(token)
	require.ErrorIs(t, err, ErrTokenSignature)

	_, err = signer.Parse("not-a-token")
	require.ErrorIs(t, err, ErrTokenFormat)

	_, _, err = signer.Generate("doc.1", "a.pdf", DispositionInline)
	require.Error(t, err)
}
