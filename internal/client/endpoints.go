package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/abyuwono/bagasi/internal/domain/listing"
	aduc "github.com/abyuwono/bagasi/internal/usecase/ad"
	authuc "github.com/abyuwono/bagasi/internal/usecase/auth"
	chatuc "github.com/abyuwono/bagasi/internal/usecase/chat"
	notifuc "github.com/abyuwono/bagasi/internal/usecase/notification"
	payuc "github.com/abyuwono/bagasi/internal/usecase/payment"
	reviewuc "github.com/abyuwono/bagasi/internal/usecase/review"
	sauc "github.com/abyuwono/bagasi/internal/usecase/shopperad"
	suggestuc "github.com/abyuwono/bagasi/internal/usecase/suggest"
	trackinguc "github.com/abyuwono/bagasi/internal/usecase/tracking"
)

// Account is /auth/me. Deactivated is only set by the deactivated-account 403.
type Account struct {
	authuc.User
	Deactivated bool   `json:"deactivated"`
	Message     string `json:"message,omitempty"`
}

func pathf(format string, ids ...string) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, args...)
}

// Auth

func (c *Client) Register(ctx context.Context, in authuc.RegisterInput) (*authuc.LoginResult, error) {
	var out authuc.LoginResult
	return &out, c.Do(ctx, http.MethodPost, "/auth/register", in, &out)
}

func (c *Client) Login(ctx context.Context, email, password string) (*authuc.LoginResult, error) {
	var out authuc.LoginResult
	err := c.Do(ctx, http.MethodPost, "/auth/login", authuc.LoginInput{Email: email, Password: password}, &out)
	return &out, err
}

func (c *Client) Me(ctx context.Context) (*Account, error) {
	var out Account
	return &out, c.Do(ctx, http.MethodGet, "/auth/me", nil, &out)
}

// Travel ads

func (c *Client) Ads(ctx context.Context, departure, arrival string) ([]aduc.View, error) {
	q := url.Values{}
	if departure != "" {
		q.Set("departure", departure)
	}
	if arrival != "" {
		q.Set("arrival", arrival)
	}
	path := "/ads"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []aduc.View
	err := c.Do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) Ad(ctx context.Context, id string) (*aduc.View, error) {
	var out aduc.View
	return &out, c.Do(ctx, http.MethodGet, pathf("/ads/%s", id), nil, &out)
}

func (c *Client) UpdateAd(ctx context.Context, id string, in aduc.UpdateInput) (*aduc.View, error) {
	var out aduc.View
	return &out, c.Do(ctx, http.MethodPatch, pathf("/ads/%s", id), in, &out)
}

func (c *Client) BookAd(ctx context.Context, id string, in aduc.BookInput) (*aduc.View, error) {
	var out aduc.View
	return &out, c.Do(ctx, http.MethodPost, pathf("/ads/%s/book", id), in, &out)
}

// Shopper ads

func (c *Client) ShopperAds(ctx context.Context, status listing.Status) ([]sauc.ShopperAd, error) {
	path := "/shopper-ads"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var out []sauc.ShopperAd
	err := c.Do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) MyShopperAds(ctx context.Context) ([]sauc.ShopperAd, error) {
	var out []sauc.ShopperAd
	err := c.Do(ctx, http.MethodGet, "/shopper-ads/mine", nil, &out)
	return out, err
}

func (c *Client) ShopperAd(ctx context.Context, id string) (*sauc.ShopperAd, error) {
	var out sauc.ShopperAd
	return &out, c.Do(ctx, http.MethodGet, pathf("/shopper-ads/%s", id), nil, &out)
}

func (c *Client) CreateShopperAd(ctx context.Context, in sauc.CreateInput) (*sauc.ShopperAd, error) {
	var out sauc.ShopperAd
	return &out, c.Do(ctx, http.MethodPost, "/shopper-ads", in, &out)
}

func (c *Client) UpdateShopperAd(ctx context.Context, id string, in sauc.UpdateInput) (*sauc.ShopperAd, error) {
	var out sauc.ShopperAd
	return &out, c.Do(ctx, http.MethodPatch, pathf("/shopper-ads/%s", id), in, &out)
}

func (c *Client) shopperAdAction(ctx context.Context, id, action string) (*sauc.ShopperAd, error) {
	var out sauc.ShopperAd
	return &out, c.Do(ctx, http.MethodPost, pathf("/shopper-ads/%s/", id)+action, nil, &out)
}

func (c *Client) RequestHelp(ctx context.Context, id string) (*sauc.ShopperAd, error) {
	return c.shopperAdAction(ctx, id, "request")
}

func (c *Client) AcceptTraveler(ctx context.Context, id string) (*sauc.ShopperAd, error) {
	return c.shopperAdAction(ctx, id, "accept-traveler")
}

func (c *Client) RejectTraveler(ctx context.Context, id string) (*sauc.ShopperAd, error) {
	return c.shopperAdAction(ctx, id, "reject-traveler")
}

func (c *Client) CancelShopperAd(ctx context.Context, id string) (*sauc.ShopperAd, error) {
	return c.shopperAdAction(ctx, id, "cancel")
}

func (c *Client) CompleteShopperAd(ctx context.Context, id string) (*sauc.ShopperAd, error) {
	return c.shopperAdAction(ctx, id, "complete")
}

func (c *Client) Scrape(ctx context.Context, productURL string) (*sauc.Product, error) {
	var out sauc.Product
	return &out, c.Do(ctx, http.MethodPost, "/shopper-ads/scrape", map[string]string{"url": productURL}, &out)
}

func (c *Client) CalculateFees(ctx context.Context, in sauc.FeeInput) (*sauc.FeeQuote, error) {
	var out sauc.FeeQuote
	return &out, c.Do(ctx, http.MethodPost, "/shopper-ads/calculate-fees", in, &out)
}

// Chat

func (c *Client) Messages(ctx context.Context, adID string) ([]chatuc.Message, error) {
	var out []chatuc.Message
	err := c.Do(ctx, http.MethodGet, pathf("/chat/ad/%s/messages", adID), nil, &out)
	return out, err
}

func (c *Client) SendMessage(ctx context.Context, adID, body string) (*chatuc.Message, error) {
	var out chatuc.Message
	return &out, c.Do(ctx, http.MethodPost, pathf("/chat/ad/%s/messages", adID), map[string]string{"body": body}, &out)
}

// Notifications

func (c *Client) Notifications(ctx context.Context) ([]notifuc.Notification, error) {
	var out []notifuc.Notification
	err := c.Do(ctx, http.MethodGet, "/notifications", nil, &out)
	return out, err
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	err := c.Do(ctx, http.MethodGet, "/notifications/unread", nil, &out)
	return out.Count, err
}

func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, "/notifications/read", nil, nil)
}

func (c *Client) SavePushSubscription(ctx context.Context, sub notifuc.PushSubscription) error {
	return c.Do(ctx, http.MethodPost, "/notifications/push-subscription", sub, nil)
}

// Reviews

func (c *Client) Reviews(ctx context.Context, adID string) ([]reviewuc.Review, error) {
	var out []reviewuc.Review
	err := c.Do(ctx, http.MethodGet, pathf("/reviews/%s", adID), nil, &out)
	return out, err
}

func (c *Client) CreateReview(ctx context.Context, adID string, in reviewuc.CreateInput) (*reviewuc.Review, error) {
	var out reviewuc.Review
	return &out, c.Do(ctx, http.MethodPost, pathf("/reviews/%s", adID), in, &out)
}

func (c *Client) ReportReview(ctx context.Context, reviewID, reason string) (*reviewuc.Review, error) {
	var out reviewuc.Review
	return &out, c.Do(ctx, http.MethodPost, pathf("/reviews/%s/report", reviewID), reviewuc.ReportInput{Reason: reason}, &out)
}

func (c *Client) HandleReport(ctx context.Context, reviewID, action string) (*reviewuc.Review, error) {
	var out reviewuc.Review
	return &out, c.Do(ctx, http.MethodPost, pathf("/reviews/%s/handle-report", reviewID), reviewuc.HandleInput{Action: action}, &out)
}

// Tracking

func (c *Client) Tracking(ctx context.Context, adID string) (*trackinguc.Tracking, error) {
	var out trackinguc.Tracking
	return &out, c.Do(ctx, http.MethodGet, pathf("/tracking/%s", adID), nil, &out)
}

func (c *Client) TrackingURL(ctx context.Context, adID string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := c.Do(ctx, http.MethodGet, pathf("/tracking/%s/url", adID), nil, &out)
	return out.URL, err
}

func (c *Client) AttachTrackingNumber(ctx context.Context, adID, number string) (*trackinguc.Tracking, error) {
	var out trackinguc.Tracking
	return &out, c.Do(ctx, http.MethodPost, pathf("/tracking/%s/number", adID), map[string]string{"trackingNumber": number}, &out)
}

// Payments

func (c *Client) CreatePaymentIntent(ctx context.Context, shopperAdID string) (*payuc.Intent, error) {
	var out payuc.Intent
	return &out, c.Do(ctx, http.MethodPost, "/payments/create-payment-intent", map[string]string{"shopperAdId": shopperAdID}, &out)
}

func (c *Client) CreateAdPostingIntent(ctx context.Context, draft aduc.CreateInput, provider payuc.Provider) (*payuc.Intent, error) {
	body := struct {
		Ad       aduc.CreateInput `json:"ad"`
		Provider payuc.Provider   `json:"provider"`
	}{draft, provider}
	var out payuc.Intent
	return &out, c.Do(ctx, http.MethodPost, "/payments/create-ad-posting-intent", body, &out)
}

func (c *Client) CreateMembershipIntent(ctx context.Context, provider payuc.Provider) (*payuc.Intent, error) {
	var out payuc.Intent
	return &out, c.Do(ctx, http.MethodPost, "/payments/membership/create-intent", map[string]payuc.Provider{"provider": provider}, &out)
}

func (c *Client) MembershipPrice(ctx context.Context) (*payuc.MembershipPrice, error) {
	var out payuc.MembershipPrice
	return &out, c.Do(ctx, http.MethodGet, "/payments/membership-price", nil, &out)
}

func (c *Client) PaymentStatus(ctx context.Context, orderID string) (*payuc.StatusView, error) {
	var out payuc.StatusView
	return &out, c.Do(ctx, http.MethodGet, pathf("/payments/status/%s", orderID), nil, &out)
}

func PaymentStreamPath(orderID string) string {
	return pathf("/payments/status/%s/stream", orderID)
}

// Search

func (c *Client) Suggestions(ctx context.Context, q string) ([]suggestuc.Suggestion, error) {
	var out []suggestuc.Suggestion
	err := c.Do(ctx, http.MethodGet, "/search/suggestions?q="+url.QueryEscape(q), nil, &out)
	return out, err
}

// Admin

func (c *Client) Users(ctx context.Context) ([]authuc.User, error) {
	var out struct {
		Items []authuc.User `json:"items"`
	}
	err := c.Do(ctx, http.MethodGet, "/admin/users", nil, &out)
	return out.Items, err
}

func (c *Client) SetUserActive(ctx context.Context, userID string, active bool) (*authuc.User, error) {
	action := "deactivate"
	if active {
		action = "reactivate"
	}
	var out authuc.User
	return &out, c.Do(ctx, http.MethodPost, pathf("/admin/users/%s/", userID)+action, nil, &out)
}
