package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/abyuwono/bagasi/internal/avatar"
	"github.com/abyuwono/bagasi/internal/domain/account"
	"github.com/abyuwono/bagasi/internal/domain/listing"
	"github.com/abyuwono/bagasi/internal/feed"
	"github.com/abyuwono/bagasi/internal/lifecycle"
	"github.com/abyuwono/bagasi/internal/payflow"
	"github.com/abyuwono/bagasi/internal/search"
	"github.com/abyuwono/bagasi/internal/session"
	"github.com/abyuwono/bagasi/internal/validation"
	aduc "github.com/abyuwono/bagasi/internal/usecase/ad"
	authuc "github.com/abyuwono/bagasi/internal/usecase/auth"
	chatuc "github.com/abyuwono/bagasi/internal/usecase/chat"
	payuc "github.com/abyuwono/bagasi/internal/usecase/payment"
	reviewuc "github.com/abyuwono/bagasi/internal/usecase/review"
	sauc "github.com/abyuwono/bagasi/internal/usecase/shopperad"
	trackinguc "github.com/abyuwono/bagasi/internal/usecase/tracking"
)

func flags(name string, args []string, define func(fs *flag.FlagSet)) (*flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if define != nil {
		define(fs)
	}
	return fs, fs.Parse(args)
}

func need(fs *flag.FlagSet, n int, usage string) error {
	if fs.NArg() < n {
		return fmt.Errorf("usage: bagasi %s", usage)
	}
	return nil
}

func (a *app) viewer() account.Viewer {
	u := a.sess.CurrentUser()
	if u == nil {
		return account.Viewer{}
	}
	return account.Viewer{ID: u.ID, Role: u.Role}
}

// Session

func (a *app) login(ctx context.Context, args []string) error {
	fs, err := flags("login", args, nil)
	if err != nil {
		return err
	}
	if err := need(fs, 1, "login <email>"); err != nil {
		return err
	}

	password := os.Getenv("BAGASI_PASSWORD")
	if password == "" {
		fmt.Fprint(a.out, "Password: ")
		line, err := bufio.NewReader(a.in).ReadString('\n')
		if err != nil && line == "" {
			return err
		}
		password = strings.TrimRight(line, "\r\n")
	}

	in := authuc.LoginInput{Email: fs.Arg(0), Password: password}
	if err := validation.Struct(in); err != nil {
		return err
	}

	u, err := a.sess.Login(ctx, in.Email, in.Password)
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		return errors.New("email or password is wrong")
	case errors.Is(err, session.ErrAccountDeactivated):
		fmt.Fprintln(a.out, "Your account is deactivated. Contact support@bagasi.id to reactivate it.")
		return err
	case err != nil:
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", u.Name, u.Role)
	return nil
}

func (a *app) logout(ctx context.Context, _ []string) error {
	a.sess.Logout(ctx)
	return nil
}

func (a *app) whoami(ctx context.Context, _ []string) error {
	u := a.sess.CurrentUser()
	fmt.Fprintf(a.out, "%s <%s>\nrole: %s\n", u.Name, u.Email, u.Role)
	if u.MembershipExpiresAt != nil && u.HasMembership(time.Now()) {
		fmt.Fprintf(a.out, "membership until %s\n", u.MembershipExpiresAt.Format("2 Jan 2006"))
	}
	return nil
}

// Browsing

func (a *app) home(ctx context.Context, args []string) error {
	var q string
	if _, err := flags("home", args, func(fs *flag.FlagSet) {
		fs.StringVar(&q, "q", "", "filter by departure or arrival city")
	}); err != nil {
		return err
	}

	var ads []aduc.View
	var requests []sauc.ShopperAd
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ads, err = a.api.Ads(gctx, "", "")
		return err
	})
	g.Go(func() error {
		var err error
		requests, err = a.api.ShopperAds(gctx, listing.StatusActive)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if q != "" {
		ads = search.Filter(ads, q)
		if _, err := a.history.Add(ctx, q); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(a.out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "TRAVEL ADS\t\t\t\t")
	fmt.Fprintln(w, "ID\tROUTE\tDEPARTS\tAVAILABLE\tPRICE/KG")
	for _, ad := range ads {
		fmt.Fprintf(w, "%s\t%s → %s\t%s\t%s kg\t%s\n", ad.ID, ad.DepartureCity, ad.ArrivalCity,
			ad.DepartureDate.Format("2 Jan 2006"), ad.AvailableWeight.String(), money(ad.PricePerKg, string(ad.Currency)))
	}
	fmt.Fprintln(w, "\t\t\t\t")
	fmt.Fprintln(w, "SHOPPING REQUESTS\t\t\t\t")
	fmt.Fprintln(w, "ID\tPRODUCT\tTO\tWEIGHT\tCOMMISSION")
	for _, sa := range requests {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s kg\t%s\n", sa.ID, sa.ProductName, sa.ShippingAddress.City,
			sa.TotalWeight.String(), money(sa.Commission.IDR, "IDR"))
	}
	return w.Flush()
}

func (a *app) suggest(ctx context.Context, args []string) error {
	text := strings.Join(args, " ")
	if text == "" {
		return errors.New("usage: bagasi suggest <text>")
	}

	s := search.NewSuggester(a.api, search.DebounceDelay)
	defer s.Close()

	// replay the keystrokes; only the last one is looked up
	runes := []rune(text)
	for i := range runes {
		s.Type(string(runes[:i+1]))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-s.Results():
			if r.Query != strings.TrimSpace(text) {
				continue
			}
			if r.Err != nil {
				return r.Err
			}
			for _, sg := range r.Suggestions {
				fmt.Fprintf(a.out, "%s (%d)\n", sg.City, sg.Count)
			}
			_, err := a.history.Add(ctx, text)
			return err
		}
	}
}

func (a *app) showHistory(ctx context.Context, args []string) error {
	var forget bool
	if _, err := flags("history", args, func(fs *flag.FlagSet) {
		fs.BoolVar(&forget, "clear", false, "forget recent searches")
	}); err != nil {
		return err
	}
	if forget {
		return a.history.Clear(ctx)
	}
	items, err := a.history.List(ctx)
	if err != nil {
		return err
	}
	for _, s := range items {
		fmt.Fprintln(a.out, s)
	}
	return nil
}

func (a *app) showAd(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: bagasi ad <id>")
	}
	p, err := lifecycle.Load(ctx, a.api, listing.KindTravel, args[0], a.viewer())
	if err != nil {
		return err
	}
	ad := p.TravelAd()
	fmt.Fprintf(a.out, "%s → %s  [%s]\n", ad.DepartureCity, ad.ArrivalCity, ad.Status)
	fmt.Fprintf(a.out, "departs %s, listed until %s\n", ad.DepartureDate.Format("2 Jan 2006"), ad.ExpiresAt.Format("2 Jan 2006"))
	fmt.Fprintf(a.out, "%s kg at %s per kg\n", ad.AvailableWeight.String(), money(ad.PricePerKg, string(ad.Currency)))
	fmt.Fprintf(a.out, "traveler: %s", ad.User.DisplayName)
	if ad.User.Rating != nil {
		fmt.Fprintf(a.out, " (%s★)", *ad.User.Rating)
	}
	fmt.Fprintln(a.out)
	switch {
	case ad.User.ContactNumber != nil:
		fmt.Fprintf(a.out, "contact: %s\n", *ad.User.ContactNumber)
	case ad.User.ContactLocked:
		fmt.Fprintln(a.out, "contact: members only (bagasi membership)")
	}
	printActions(a, p)
	return nil
}

func (a *app) book(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: bagasi book <ad-id> <kg>")
	}
	kg, err := decimal.NewFromString(args[1])
	if err != nil || !kg.IsPositive() {
		return fmt.Errorf("invalid weight %q", args[1])
	}
	p, err := lifecycle.Load(ctx, a.api, listing.KindTravel, args[0], a.viewer())
	if err != nil {
		return err
	}
	if err := p.Book(ctx, aduc.BookInput{Weight: kg}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Booked %s kg. Status: %s\n", kg.String(), p.Status())
	return nil
}

func (a *app) showShopperAd(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: bagasi shopper-ad <id>")
	}
	p, err := lifecycle.Load(ctx, a.api, listing.KindShopper, args[0], a.viewer())
	if err != nil {
		return err
	}
	printShopperAd(a, p)
	return nil
}

func printShopperAd(a *app, p *lifecycle.Page) {
	sa := p.ShopperAd()
	fmt.Fprintf(a.out, "%s x%d  [%s]\n", sa.ProductName, sa.Quantity, sa.Status)
	fmt.Fprintf(a.out, "%s\n", sa.ProductURL)
	fmt.Fprintf(a.out, "price %s (%s), %s kg total\n",
		money(sa.ProductPrice, string(sa.ProductCurrency)), money(sa.TotalPriceIDR, "IDR"), sa.TotalWeight.String())
	fmt.Fprintf(a.out, "commission %s / %s\n", money(sa.Commission.IDR, "IDR"), money(sa.Commission.Native, string(sa.Commission.Currency)))

	addr := p.VisibleAddress()
	if addr.FullAddress != "" {
		fmt.Fprintf(a.out, "ship to: %s, %s, %s\n", addr.FullAddress, addr.City, addr.Country)
	} else {
		fmt.Fprintf(a.out, "ship to: %s, %s\n", addr.City, addr.Country)
	}
	if sa.TrackingNumber != nil {
		fmt.Fprintf(a.out, "tracking: %s\n", *sa.TrackingNumber)
	}
	printActions(a, p)
}

func printActions(a *app, p *lifecycle.Page) {
	actions := p.Actions()
	if len(actions) == 0 {
		return
	}
	names := make([]string, len(actions))
	for i, x := range actions {
		names[i] = string(x)
	}
	fmt.Fprintf(a.out, "you can: %s\n", strings.Join(names, ", "))
}

func (a *app) myShopperAds(ctx context.Context, _ []string) error {
	items, err := a.api.MyShopperAds(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRODUCT\tSTATUS\tUPDATED")
	for _, sa := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sa.ID, sa.ProductName, sa.Status, sa.UpdatedAt.Format("2 Jan 15:04"))
	}
	return w.Flush()
}

func (a *app) act(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: bagasi " + a.commands["act"].usage)
	}
	p, err := lifecycle.Load(ctx, a.api, listing.KindShopper, args[0], a.viewer())
	if err != nil {
		return err
	}

	action := lifecycle.Action(args[1])
	if action == lifecycle.AttachTracking {
		if len(args) < 3 {
			return errors.New("attach_tracking needs a tracking number")
		}
		err = p.AttachTracking(ctx, args[2])
	} else {
		err = p.Run(ctx, action)
	}
	if err != nil {
		return err
	}
	printShopperAd(a, p)
	return nil
}

// Live screens

func (a *app) chat(ctx context.Context, args []string) error {
	var watch bool
	fs, err := flags("chat", args, func(fs *flag.FlagSet) {
		fs.BoolVar(&watch, "watch", false, "keep showing new messages")
	})
	if err != nil {
		return err
	}
	if err := need(fs, 1, a.commands["chat"].usage); err != nil {
		return err
	}
	adID := fs.Arg(0)

	if body := strings.Join(fs.Args()[1:], " "); body != "" {
		if _, err := a.api.SendMessage(ctx, adID, body); err != nil {
			return err
		}
	}

	if !watch {
		msgs, err := a.api.Messages(ctx, adID)
		if err != nil {
			return err
		}
		printMessages(a, msgs)
		return nil
	}

	seen := 0
	for msgs := range feed.Chat(a.api, adID).Watch(ctx) {
		if len(msgs) > seen {
			printMessages(a, msgs[seen:])
			seen = len(msgs)
		}
	}
	return ctx.Err()
}

func printMessages(a *app, msgs []chatuc.Message) {
	for _, m := range msgs {
		fmt.Fprintf(a.out, "[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04"), m.SenderName, m.Body)
	}
}

func (a *app) notifications(ctx context.Context, args []string) error {
	var watch, read bool
	if _, err := flags("notifications", args, func(fs *flag.FlagSet) {
		fs.BoolVar(&watch, "watch", false, "keep showing the unread count")
		fs.BoolVar(&read, "read", false, "mark all as read")
	}); err != nil {
		return err
	}

	if watch {
		for n := range feed.UnreadCount(a.api).Watch(ctx) {
			fmt.Fprintf(a.out, "%s  %d unread\n", time.Now().Format("15:04:05"), n)
		}
		return ctx.Err()
	}

	items, err := a.api.Notifications(ctx)
	if err != nil {
		return err
	}
	for _, n := range items {
		mark := " "
		if !n.Read {
			mark = "•"
		}
		fmt.Fprintf(a.out, "%s %s  %s\n  %s\n", mark, n.CreatedAt.Local().Format("2 Jan 15:04"), n.Title, n.Body)
	}
	if read {
		return a.api.MarkAllRead(ctx)
	}
	return nil
}

func (a *app) tracking(ctx context.Context, args []string) error {
	var watch bool
	fs, err := flags("tracking", args, func(fs *flag.FlagSet) {
		fs.BoolVar(&watch, "watch", false, "refresh until delivered")
	})
	if err != nil {
		return err
	}
	if err := need(fs, 1, a.commands["tracking"].usage); err != nil {
		return err
	}

	show := func(t *trackinguc.Tracking) {
		fmt.Fprintf(a.out, "%s  %s %s  %s\n", time.Now().Format("15:04"), t.Status, t.Number, t.URL)
	}
	if !watch {
		t, err := a.api.Tracking(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		show(t)
		return nil
	}
	for t := range feed.Tracking(a.api, fs.Arg(0)).Watch(ctx) {
		show(t)
	}
	return ctx.Err()
}

func (a *app) reviews(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: bagasi " + a.commands["reviews"].usage)
	}
	adID := args[0]

	var rating int
	var comment, report, reason string
	if _, err := flags("reviews", args[1:], func(fs *flag.FlagSet) {
		fs.IntVar(&rating, "rating", 0, "leave a review with this rating (1-5)")
		fs.StringVar(&comment, "comment", "", "review text")
		fs.StringVar(&report, "report", "", "report this review id")
		fs.StringVar(&reason, "reason", "", "why the review is reported")
	}); err != nil {
		return err
	}

	switch {
	case rating > 0:
		in := reviewuc.CreateInput{Rating: rating, Comment: comment}
		if err := validation.Struct(in); err != nil {
			return err
		}
		if _, err := a.api.CreateReview(ctx, adID, in); err != nil {
			return err
		}
	case report != "":
		if _, err := a.api.ReportReview(ctx, report, reason); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Reported. An admin will look at it.")
		return nil
	}

	items, err := a.api.Reviews(ctx, adID)
	if err != nil {
		return err
	}
	for _, r := range items {
		fmt.Fprintf(a.out, "%s  %s  %d★  %s\n", r.ID, r.AuthorName, r.Rating, r.Comment)
	}
	return nil
}

// Payments

func (a *app) payments() *payflow.Flow {
	watch := func(orderID string) feed.Source[*payuc.StatusView] {
		if a.cfg.StreamPayments {
			return feed.PaymentStream(a.api, orderID)
		}
		return feed.PaymentPoll(a.api, orderID)
	}
	return payflow.New(a.api, watch,
		payflow.PrintWidget{For: payuc.ProviderStripe, Out: a.out},
		payflow.PrintWidget{For: payuc.ProviderMidtrans, Out: a.out},
	)
}

func (a *app) report(res *payflow.Result, err error) error {
	if err != nil {
		return err
	}
	if !res.Paid() {
		return fmt.Errorf("payment %s ended as %s", res.OrderID, res.Status)
	}
	fmt.Fprintf(a.out, "Payment %s succeeded.\n", res.OrderID)
	if res.ReferenceID != nil {
		fmt.Fprintf(a.out, "Reference: %s\n", *res.ReferenceID)
	}
	return nil
}

func (a *app) payShopperAd(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: bagasi pay <shopper-ad-id>")
	}
	return a.report(a.payments().PayShopperAd(ctx, args[0]))
}

func (a *app) postAd(ctx context.Context, args []string) error {
	var file, provider string
	if _, err := flags("post-ad", args, func(fs *flag.FlagSet) {
		fs.StringVar(&file, "file", "", "JSON ad draft")
		fs.StringVar(&provider, "provider", string(payuc.ProviderMidtrans), "stripe or midtrans")
	}); err != nil {
		return err
	}
	if file == "" {
		return errors.New("usage: bagasi " + a.commands["post-ad"].usage)
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	var draft aduc.CreateInput
	if err := json.Unmarshal(raw, &draft); err != nil {
		return fmt.Errorf("read draft: %w", err)
	}
	if err := aduc.ValidateCreate(draft); err != nil {
		return err
	}
	return a.report(a.payments().PostAd(ctx, draft, payuc.Provider(provider)))
}

func (a *app) membership(ctx context.Context, args []string) error {
	var provider string
	var priceOnly bool
	if _, err := flags("membership", args, func(fs *flag.FlagSet) {
		fs.StringVar(&provider, "provider", string(payuc.ProviderMidtrans), "stripe or midtrans")
		fs.BoolVar(&priceOnly, "price", false, "only show the price")
	}); err != nil {
		return err
	}

	price, err := a.api.MembershipPrice(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Membership: %s for %d days\n", money(price.AmountIDR, price.Currency), price.Days)
	if priceOnly {
		return nil
	}
	if !a.sess.IsAuthenticated() {
		return errors.New("not signed in; run: bagasi login <email>")
	}
	return a.report(a.payments().BuyMembership(ctx, payuc.Provider(provider)))
}

// Misc

func (a *app) avatar(_ context.Context, args []string) error {
	var size int
	fs, err := flags("avatar", args, func(fs *flag.FlagSet) {
		fs.IntVar(&size, "size", 40, "pixel size")
	})
	if err != nil {
		return err
	}
	if err := need(fs, 1, a.commands["avatar"].usage); err != nil {
		return err
	}
	fmt.Fprintln(a.out, avatar.SVG(strings.Join(fs.Args(), " "), size))
	return nil
}

func (a *app) admin(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: bagasi " + a.commands["admin"].usage)
	}
	switch args[0] {
	case "users":
		users, err := a.api.Users(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(a.out, 0, 2, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tACTIVE")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", u.ID, u.Name, u.Email, u.Role, u.Active)
		}
		return w.Flush()
	case "deactivate", "reactivate":
		if len(args) < 2 {
			return fmt.Errorf("usage: bagasi admin %s <user-id>", args[0])
		}
		u, err := a.api.SetUserActive(ctx, args[1], args[0] == "reactivate")
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s active=%t\n", u.Email, u.Active)
		return nil
	}
	return fmt.Errorf("unknown admin command %q", args[0])
}
