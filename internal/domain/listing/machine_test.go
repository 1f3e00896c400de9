package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAd struct {
	owner, traveler string
	status          Status
}

func (f fakeAd) ListingKind() Kind { return KindShopper }
func (f fakeAd) ListingID() string { return "ad-1" }
func (f fakeAd) Owner() string { return f.owner }
func (f fakeAd) CurrentStatus() Status { return f.status }
func (f fakeAd) SelectedTravelerID() string { return f.traveler }

func TestShopperAd_TravelerCancelRecyclesAd(t *testing.T) {
	for _, from := range []Status{StatusInDiscussion, StatusAccepted, StatusShipped} {
		tr, err := ShopperAdMachine.Next(from, ActionTravelerCancel, RelationSelectedTraveler)
		require.NoError(t, err, from)
		require.Equal(t, StatusActive, tr.Target(from))
		require.True(t, tr.ClearsTraveler)
		require.False(t, tr.Refund)
	}
}

func TestShopperAd_ShopperCancelIsTerminal(t *testing.T) {
	tr, err := ShopperAdMachine.Next(StatusActive, ActionShopperCancel, RelationOwner)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, tr.To)
	require.True(t, tr.Refund)
	require.True(t, IsTerminal(KindShopper, StatusCancelled))
}

func TestShopperAd_TravelerCancelOutsideAllowedStatuses(t *testing.T) {
	for _, from := range []Status{StatusDraft, StatusActive, StatusCompleted, StatusCancelled} {
		_, err := ShopperAdMachine.Next(from, ActionTravelerCancel, RelationSelectedTraveler)
		require.ErrorIs(t, err, ErrInvalidTransition, from)
	}
}

func TestShopperAd_WrongActorIsForbidden(t *testing.T) {
	_, err := ShopperAdMachine.Next(StatusInDiscussion, ActionAcceptTraveler, RelationSelectedTraveler)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = ShopperAdMachine.Next(StatusActive, ActionRequestHelp, RelationOwner)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestShopperAd_HappyPath(t *testing.T) {
	steps := []struct {
		action Action
		actor  Relation
		want   Status
	}{
		{ActionPublish, RelationOwner, StatusActive},
		{ActionRequestHelp, RelationOther, StatusInDiscussion},
		{ActionAcceptTraveler, RelationOwner, StatusAccepted},
		{ActionShip, RelationSelectedTraveler, StatusShipped},
		{ActionComplete, RelationOwner, StatusCompleted},
	}

	s := StatusDraft
	for _, st := range steps {
		tr, err := ShopperAdMachine.Next(s, st.action, st.actor)
		require.NoError(t, err, st.action)
		s = tr.Target(s)
		require.Equal(t, st.want, s)
	}
	assert.True(t, IsTerminal(KindShopper, s))
}

func TestShopperAd_EditOnlyBeforeAcceptance(t *testing.T) {
	assert.True(t, ShopperAdMachine.Can(StatusActive, ActionEdit, RelationOwner))
	assert.True(t, ShopperAdMachine.Can(StatusInDiscussion, ActionEdit, RelationOwner))
	for _, s := range []Status{StatusAccepted, StatusShipped, StatusCompleted} {
		assert.False(t, ShopperAdMachine.Can(s, ActionEdit, RelationOwner), s)
	}

	tr, err := ShopperAdMachine.Next(StatusActive, ActionEdit, RelationOwner)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, tr.Target(StatusActive))
}

func TestTravelAd_Transitions(t *testing.T) {
	tr, err := TravelAdMachine.Next(StatusActive, ActionBook, RelationOther)
	require.NoError(t, err)
	assert.Equal(t, StatusBooked, tr.To)

	_, err = TravelAdMachine.Next(StatusBooked, ActionBook, RelationOther)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = TravelAdMachine.Next(StatusActive, ActionBook, RelationOwner)
	require.ErrorIs(t, err, ErrForbidden)

	assert.ElementsMatch(t, []Action{ActionExpire}, TravelAdMachine.Allowed(StatusActive, RelationSystem))
	assert.True(t, IsTerminal(KindTravel, StatusExpired))
}

func TestRelationOf(t *testing.T) {
	ad := fakeAd{owner: "u1", traveler: "u2", status: StatusInDiscussion}

	assert.Equal(t, RelationOwner, RelationOf("u1", ad))
	assert.Equal(t, RelationSelectedTraveler, RelationOf("u2", ad))
	assert.Equal(t, RelationOther, RelationOf("u3", ad))
	assert.Equal(t, RelationOther, RelationOf("", ad))
	assert.Equal(t, RelationOther, RelationOf("u2", fakeAd{owner: "u1"}))
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" aud ")
	require.NoError(t, err)
	assert.Equal(t, CurrencyAUD, c)

	_, err = ParseCurrency("EUR")
	require.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestRevealsAddress(t *testing.T) {
	assert.True(t, RevealsAddress(StatusAccepted, "u2", "u2"))

	assert.False(t, RevealsAddress(StatusAccepted, "u1", "u2"))
	assert.False(t, RevealsAddress(StatusAccepted, "", ""))
	for _, s := range []Status{StatusActive, StatusInDiscussion, StatusShipped, StatusCompleted} {
		assert.False(t, RevealsAddress(s, "u2", "u2"), s)
	}
}

func TestParties(t *testing.T) {
	p := Parties{Kind: KindShopper, Status: StatusShipped, OwnerID: "u1", Counterparty: "u2"}
	assert.True(t, p.Includes("u1"))
	assert.True(t, p.Includes("u2"))
	assert.False(t, p.Includes("u3"))
	assert.False(t, p.Includes(""))
	assert.False(t, p.Settled())

	p.Status = StatusCompleted
	assert.True(t, p.Settled())

	travel := Parties{Kind: KindTravel, Status: StatusBooked, OwnerID: "u1"}
	assert.True(t, travel.Settled())
	assert.False(t, travel.Includes(""))
}
