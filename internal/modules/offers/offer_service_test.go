package offers

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"
)

// fakeRepo reproduces the award semantics in memory: the compound transition
// either applies fully or not at all.
type fakeRepo struct {
	carrierRequests map[string]*models.CarrierRequest
	requestOwner    string
	requestStatus   string
	matchedCarrier  string
}

func newFakeRepo(owner string, crs ...*models.CarrierRequest) *fakeRepo {
	fr := &fakeRepo{
		carrierRequests: make(map[string]*models.CarrierRequest),
		requestOwner:    owner,
		requestStatus:   models.RequestStatusMatching,
	}
	for _, cr := range crs {
		fr.carrierRequests[cr.ID] = cr
	}
	return fr
}

func (f *fakeRepo) GetCarrierRequest(ctx context.Context, id string) (*models.CarrierRequest, error) {
	cr, ok := f.carrierRequests[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *cr
	return &cp, nil
}

func (f *fakeRepo) ListOffered(ctx context.Context, transportRequestID string) ([]*models.CarrierRequest, error) {
	var out []*models.CarrierRequest
	for _, cr := range f.carrierRequests {
		if cr.TransportRequestID == transportRequestID && cr.Status == models.CarrierRequestStatusOffered {
			cp := *cr
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) GetRequestOwner(ctx context.Context, transportRequestID string) (string, error) {
	return f.requestOwner, nil
}

func (f *fakeRepo) SubmitOffer(ctx context.Context, id string, in models.SubmitOfferInput) error {
	cr, ok := f.carrierRequests[id]
	if !ok {
		return models.ErrNotFound
	}
	if cr.Status != models.CarrierRequestStatusSent {
		return models.ErrOfferNotOpen
	}
	cr.Status = models.CarrierRequestStatusOffered
	cr.OfferedPrice = &in.Price
	cr.OfferedDeliveryAt = in.DeliveryAt
	cr.OfferedVehicleType = in.VehicleType
	cr.Notes = in.Notes
	now := time.Now()
	cr.RespondedAt = &now
	return nil
}

func (f *fakeRepo) AwardOffer(ctx context.Context, id string) ([]string, error) {
	winner, ok := f.carrierRequests[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if winner.Status != models.CarrierRequestStatusOffered {
		return nil, models.ErrOfferNotOpen
	}
	winner.Status = models.CarrierRequestStatusWon
	var rejected []string
	for _, cr := range f.carrierRequests {
		if cr.ID != id && cr.TransportRequestID == winner.TransportRequestID &&
			cr.Status == models.CarrierRequestStatusOffered {
			cr.Status = models.CarrierRequestStatusRejected
			rejected = append(rejected, cr.ID)
		}
	}
	f.requestStatus = models.RequestStatusMatched
	f.matchedCarrier = winner.CarrierID
	return rejected, nil
}

func (f *fakeRepo) RejectOffer(ctx context.Context, id string) error {
	cr, ok := f.carrierRequests[id]
	if !ok {
		return models.ErrNotFound
	}
	if cr.Status != models.CarrierRequestStatusOffered {
		return models.ErrOfferNotOpen
	}
	cr.Status = models.CarrierRequestStatusRejected
	return nil
}

type fakeNotifier struct {
	accepted []string
	rejected []string
}

func (f *fakeNotifier) NotifyInvitation(ctx context.Context, carrierRequestID string) {}
func (f *fakeNotifier) NotifyOfferAccepted(ctx context.Context, carrierRequestID string) {
	f.accepted = append(f.accepted, carrierRequestID)
}
func (f *fakeNotifier) NotifyOfferRejected(ctx context.Context, carrierRequestID string) {
	f.rejected = append(f.rejected, carrierRequestID)
}

func carrierRequest(id, status string) *models.CarrierRequest {
	return &models.CarrierRequest{
		ID:                 id,
		TransportRequestID: "tr-1",
		CarrierID:          "carrier-" + id,
		Status:             status,
	}
}

func TestSubmitOffer(t *testing.T) {
	fr := newFakeRepo("cust-1", carrierRequest("cr-1", models.CarrierRequestStatusSent))
	s := NewService(fr, &fakeNotifier{})

	in := models.SubmitOfferInput{Price: 980.50, VehicleType: models.VehicleLKW75}
	cr, err := s.SubmitOffer(context.Background(), "cr-1", in)
	if err != nil {
		t.Fatalf("SubmitOffer error: %v", err)
	}
	if cr.Status != models.CarrierRequestStatusOffered {
		t.Errorf("status = %s; want offered", cr.Status)
	}
	if cr.OfferedPrice == nil || *cr.OfferedPrice != 980.50 {
		t.Errorf("offered price = %v; want 980.50", cr.OfferedPrice)
	}
	if cr.RespondedAt == nil {
		t.Error("responded_at should be set")
	}
}

func TestSubmitOfferNotOpen(t *testing.T) {
	tests := []string{
		models.CarrierRequestStatusNew,
		models.CarrierRequestStatusOffered,
		models.CarrierRequestStatusRejected,
	}
	for _, status := range tests {
		fr := newFakeRepo("cust-1", carrierRequest("cr-1", status))
		s := NewService(fr, &fakeNotifier{})

		_, err := s.SubmitOffer(context.Background(), "cr-1", models.SubmitOfferInput{Price: 100})
		if !errors.Is(err, models.ErrOfferNotOpen) {
			t.Errorf("status %s: error = %v; want ErrOfferNotOpen", status, err)
		}
	}
}

func TestAcceptOffer(t *testing.T) {
	fr := newFakeRepo("cust-1",
		carrierRequest("cr-1", models.CarrierRequestStatusOffered),
		carrierRequest("cr-2", models.CarrierRequestStatusOffered),
		carrierRequest("cr-3", models.CarrierRequestStatusOffered),
	)
	fn := &fakeNotifier{}
	s := NewService(fr, fn)

	cr, err := s.AcceptOffer(context.Background(), "cr-2", "cust-1")
	if err != nil {
		t.Fatalf("AcceptOffer error: %v", err)
	}
	if cr.Status != models.CarrierRequestStatusWon {
		t.Errorf("winner status = %s; want won", cr.Status)
	}
	for _, id := range []string{"cr-1", "cr-3"} {
		if got := fr.carrierRequests[id].Status; got != models.CarrierRequestStatusRejected {
			t.Errorf("sibling %s status = %s; want rejected", id, got)
		}
	}
	if fr.requestStatus != models.RequestStatusMatched {
		t.Errorf("request status = %s; want matched", fr.requestStatus)
	}
	if fr.matchedCarrier != "carrier-cr-2" {
		t.Errorf("matched carrier = %s; want carrier-cr-2", fr.matchedCarrier)
	}
	if len(fn.accepted) != 1 || fn.accepted[0] != "cr-2" {
		t.Errorf("accepted notifications = %v; want [cr-2]", fn.accepted)
	}
	if len(fn.rejected) != 2 {
		t.Errorf("rejected notifications = %v; want both siblings", fn.rejected)
	}
}

func TestAcceptSecondOfferFails(t *testing.T) {
	fr := newFakeRepo("cust-1",
		carrierRequest("cr-1", models.CarrierRequestStatusOffered),
		carrierRequest("cr-2", models.CarrierRequestStatusOffered),
	)
	s := NewService(fr, &fakeNotifier{})

	if _, err := s.AcceptOffer(context.Background(), "cr-1", "cust-1"); err != nil {
		t.Fatalf("first accept error: %v", err)
	}
	_, err := s.AcceptOffer(context.Background(), "cr-2", "cust-1")
	if !errors.Is(err, models.ErrOfferNotOpen) {
		t.Fatalf("second accept error = %v; want ErrOfferNotOpen", err)
	}
	// The first award stands untouched.
	if got := fr.carrierRequests["cr-1"].Status; got != models.CarrierRequestStatusWon {
		t.Errorf("first winner status = %s; want won", got)
	}
	if got := fr.carrierRequests["cr-2"].Status; got != models.CarrierRequestStatusRejected {
		t.Errorf("second offer status = %s; want rejected", got)
	}
}

func TestAcceptOfferWrongCustomer(t *testing.T) {
	fr := newFakeRepo("cust-1", carrierRequest("cr-1", models.CarrierRequestStatusOffered))
	s := NewService(fr, &fakeNotifier{})

	_, err := s.AcceptOffer(context.Background(), "cr-1", "cust-2")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("error = %v; want ErrNotFound", err)
	}
	if got := fr.carrierRequests["cr-1"].Status; got != models.CarrierRequestStatusOffered {
		t.Errorf("status = %s; want offered (untouched)", got)
	}
}

func TestDeclineOffer(t *testing.T) {
	fr := newFakeRepo("cust-1",
		carrierRequest("cr-1", models.CarrierRequestStatusOffered),
		carrierRequest("cr-2", models.CarrierRequestStatusOffered),
	)
	fn := &fakeNotifier{}
	s := NewService(fr, fn)

	if err := s.DeclineOffer(context.Background(), "cr-1", "cust-1"); err != nil {
		t.Fatalf("DeclineOffer error: %v", err)
	}
	if got := fr.carrierRequests["cr-1"].Status; got != models.CarrierRequestStatusRejected {
		t.Errorf("declined status = %s; want rejected", got)
	}
	// Declining one offer must not touch the others or the request.
	if got := fr.carrierRequests["cr-2"].Status; got != models.CarrierRequestStatusOffered {
		t.Errorf("sibling status = %s; want offered", got)
	}
	if fr.requestStatus != models.RequestStatusMatching {
		t.Errorf("request status = %s; want matching", fr.requestStatus)
	}
	if len(fn.rejected) != 1 || fn.rejected[0] != "cr-1" {
		t.Errorf("rejected notifications = %v; want [cr-1]", fn.rejected)
	}
}

func TestListOffers(t *testing.T) {
	fr := newFakeRepo("cust-1",
		carrierRequest("cr-1", models.CarrierRequestStatusOffered),
		carrierRequest("cr-2", models.CarrierRequestStatusSent),
	)
	s := NewService(fr, &fakeNotifier{})

	offers, err := s.ListOffers(context.Background(), "tr-1", "cust-1")
	if err != nil {
		t.Fatalf("ListOffers error: %v", err)
	}
	if len(offers) != 1 || offers[0].ID != "cr-1" {
		t.Errorf("offers = %v; want only cr-1", offers)
	}

	if _, err := s.ListOffers(context.Background(), "tr-1", "cust-2"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("wrong customer error = %v; want ErrNotFound", err)
	}
}
