package archive

import (
	"crypto/x509"
	"fmt"
	"math"

	upstream "github.com/avast/apkparser"
	"github.com/avast/apkverifier"
)

// VerificationResult is the caller-facing summary of VerifySignature: the
// signing scheme that validated and the certificate chains it found.
type VerificationResult struct {
	SigningSchemeID int32
	SignerCerts     [][]*x509.Certificate
}

// VerifySignature validates path's JAR/APK signing block, trying every
// signature scheme version. This is opt-in (spec.md's expansion) and
// never called by the conversion pipeline itself — only cmd/dexjvmc's
// -verify flag reaches it. It takes a path rather than an already-opened
// Archive because the two callers run at different points in main: -verify
// happens before the archive is opened for conversion at all, so there is
// no Archive yet to reuse. Both this function and Archive now open the
// same upstream.ZipReader type, so when a caller does hold an Archive
// already, archive.ZipReader() returns a handle VerifyWithSdkVersion
// accepts directly.
func VerifySignature(path string) (VerificationResult, error) {
	zr, err := upstream.OpenZip(path)
	if err != nil {
		return VerificationResult{}, fmt.Errorf("archive: verify: %w", err)
	}
	defer zr.Close()

	res, err := apkverifier.VerifyWithSdkVersion(path, zr, -1, math.MaxInt32)
	if err != nil {
		return VerificationResult{}, fmt.Errorf("archive: verify: %w", err)
	}
	return VerificationResult{
		SigningSchemeID: res.SigningSchemeId,
		SignerCerts:     res.SignerCerts,
	}, nil
}
