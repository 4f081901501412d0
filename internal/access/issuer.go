package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"coachgate/internal/models"
)

// DownloadTTL is the validity window of a signed download URL. It is
// independent of the grant's expiry window: a 7-day grant still only
// mints 1-hour URLs, one per download attempt.
const DownloadTTL = time.Hour

// URLSigner mints a time-boxed URL redeemable for one stored object.
type URLSigner interface {
	MintSignedURL(path string, ttl time.Duration) (string, error)
}

// Download is a redeemable URL plus the name the client should save as.
type Download struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

// Issuer converts a positive access decision into a signed download. It
// never trusts a caller-supplied claim of approval: the decision is
// re-evaluated on every call.
type Issuer struct {
	Engine Engine
	Signer URLSigner
	TTL    time.Duration
}

func (i Issuer) ttl() time.Duration {
	if i.TTL > 0 {
		return i.TTL
	}
	return DownloadTTL
}

// IssueDownload re-runs the access decision for the caller and, when it
// allows, mints a signed URL for the resource's stored object.
func (i Issuer) IssueDownload(ctx context.Context, caller Caller, resourceID int64) (Download, error) {
	var res models.Resource
	if err := i.Engine.DB.WithContext(ctx).First(&res, resourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Download{}, ErrNotFound
		}
		return Download{}, fmt.Errorf("load resource: %w", err)
	}

	st, err := i.Engine.CanAccess(ctx, caller, res)
	if err != nil {
		return Download{}, err
	}
	if !st.Allowed() {
		if st == StateUnauthenticated {
			return Download{}, ErrUnauthenticated
		}
		return Download{}, ErrForbidden
	}

	// Link-type resources have no stored object to sign for.
	if !res.HasFile() {
		return Download{}, ErrNotFound
	}

	url, err := i.Signer.MintSignedURL(res.FileLocation, i.ttl())
	if err != nil {
		return Download{}, fmt.Errorf("mint signed url: %w", err)
	}
	return Download{URL: url, FileName: res.FileName}, nil
}
