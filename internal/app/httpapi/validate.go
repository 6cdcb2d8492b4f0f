package httpapi

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"

	"github.com/R3E-Network/neostream/internal/app/domain/stream"
	"github.com/R3E-Network/neostream/internal/app/services/streams"
)

type createStreamRequest struct {
	Sender          string  `json:"sender"`
	Recipient       string  `json:"recipient"`
	AssetCode       string  `json:"asset_code"`
	TotalAmount     float64 `json:"total_amount"`
	DurationSeconds int64   `json:"duration_seconds"`
	StartAt         int64   `json:"start_at,omitempty"`
}

// requestValidator checks the HTTP-level constraints the service layer does
// not know about: timestamp encoding, the asset allowlist and address format.
type requestValidator struct {
	allowedAssets  map[string]struct{}
	checkAddresses bool
}

func newRequestValidator(assets []string, checkAddresses bool) *requestValidator {
	v := &requestValidator{checkAddresses: checkAddresses}
	if len(assets) > 0 {
		v.allowedAssets = make(map[string]struct{}, len(assets))
		for _, a := range assets {
			a = strings.ToUpper(strings.TrimSpace(a))
			if a != "" {
				v.allowedAssets[a] = struct{}{}
			}
		}
	}
	return v
}

// createRequest validates the payload and resolves the optional start_at
// timestamp. A zero return time means the stream starts at creation.
func (v *requestValidator) createRequest(req *createStreamRequest) (time.Time, error) {
	var startAt time.Time
	if req.StartAt != 0 {
		if req.StartAt < 0 {
			return time.Time{}, fmt.Errorf("start_at must be a positive unix timestamp")
		}
		startAt = time.Unix(req.StartAt, 0).UTC()
	}

	if v.allowedAssets != nil {
		code := strings.ToUpper(strings.TrimSpace(req.AssetCode))
		if _, ok := v.allowedAssets[code]; !ok {
			return time.Time{}, fmt.Errorf("asset_code %q is not supported", code)
		}
	}

	if v.checkAddresses {
		if _, err := address.StringToUint160(strings.TrimSpace(req.Sender)); err != nil {
			return time.Time{}, fmt.Errorf("sender must be a valid Neo N3 address")
		}
		if _, err := address.StringToUint160(strings.TrimSpace(req.Recipient)); err != nil {
			return time.Time{}, fmt.Errorf("recipient must be a valid Neo N3 address")
		}
	}

	return startAt, nil
}

// listFilter builds a stream filter from list query parameters.
func (v *requestValidator) listFilter(q url.Values) (streams.Filter, error) {
	f := streams.Filter{
		Sender:    strings.TrimSpace(q.Get("sender")),
		Recipient: strings.TrimSpace(q.Get("recipient")),
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status := stream.Status(strings.ToLower(raw))
		if !status.Valid() {
			return streams.Filter{}, fmt.Errorf("status must be one of scheduled, active, completed, canceled")
		}
		f.Status = status
	}
	return f, nil
}
