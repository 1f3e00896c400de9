package tracking

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/abyuwono/bagasi/internal/domain/listing"
	"github.com/abyuwono/bagasi/internal/usecase/shopperad"
)

var ErrNoTracking = errors.New("no tracking number yet")

// courier name -> tracking page, %s is the escaped number
var courierURLs = map[string]string{
	"jne":      "https://www.jne.co.id/tracking-package?awb=%s",
	"jnt":      "https://www.jet.co.id/track?awb=%s",
	"j&t":      "https://www.jet.co.id/track?awb=%s",
	"sicepat":  "https://www.sicepat.com/checkAwb?awb=%s",
	"anteraja": "https://anteraja.id/tracking?awb=%s",
	"pos":      "https://www.posindonesia.co.id/id/tracking?barcode=%s",
}

const fallbackURL = "https://cekresi.com/?noresi=%s"

type Tracking struct {
	AdID    string         `json:"adId"`
	Status  listing.Status `json:"status"`
	Number  string         `json:"trackingNumber"`
	Courier string         `json:"courier,omitempty"`
	URL     string         `json:"url"`
}

// ShopperAds is the part of the shopper ad usecase tracking depends on.
type ShopperAds interface {
	Get(ctx context.Context, id string, viewer shopperad.Viewer) (*shopperad.ShopperAd, error)
	Ship(ctx context.Context, id string, viewer shopperad.Viewer, trackingNumber string) (*shopperad.ShopperAd, error)
}

type Usecase struct {
	ads ShopperAds
}

func New(ads ShopperAds) *Usecase {
	return &Usecase{ads: ads}
}

func (u *Usecase) Get(ctx context.Context, adID string, viewer shopperad.Viewer) (*Tracking, error) {
	sa, err := u.ads.Get(ctx, adID, viewer)
	if err != nil {
		return nil, err
	}
	if rel := listing.RelationOf(viewer.ID, sa); rel == listing.RelationOther {
		return nil, listing.ErrForbidden
	}
	return build(sa)
}

// AttachNumber is the ship transition, done by the selected traveler of an accepted ad.
func (u *Usecase) AttachNumber(ctx context.Context, adID string, viewer shopperad.Viewer, number string) (*Tracking, error) {
	sa, err := u.ads.Ship(ctx, adID, viewer, number)
	if err != nil {
		return nil, err
	}
	return build(sa)
}

func (u *Usecase) URL(ctx context.Context, adID string, viewer shopperad.Viewer) (string, error) {
	t, err := u.Get(ctx, adID, viewer)
	if err != nil {
		return "", err
	}
	return t.URL, nil
}

func build(sa *shopperad.ShopperAd) (*Tracking, error) {
	if sa.TrackingNumber == nil || *sa.TrackingNumber == "" {
		return nil, ErrNoTracking
	}
	t := &Tracking{AdID: sa.ID, Status: sa.Status, Number: *sa.TrackingNumber}
	if sa.LocalCourier != nil {
		t.Courier = *sa.LocalCourier
	}
	t.URL = CourierURL(t.Courier, t.Number)
	return t, nil
}

func CourierURL(courier, number string) string {
	tmpl, ok := courierURLs[strings.ToLower(strings.TrimSpace(courier))]
	if !ok {
		tmpl = fallbackURL
	}
	return fmt.Sprintf(tmpl, url.QueryEscape(number))
}
