package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/capitalize-ai/trip-assistant/internal/llm"
	"github.com/capitalize-ai/trip-assistant/internal/model"
	"github.com/capitalize-ai/trip-assistant/internal/repository"
)

var errBoom = errors.New("boom")

type fakeTurnStore struct {
	mu        sync.Mutex
	turns     []model.Turn
	appendErr error
	listErr   error
}

func (s *fakeTurnStore) Append(_ context.Context, turn *model.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	turn.ID = fmt.Sprintf("turn-%d", len(s.turns)+1)
	turn.CreatedAt = time.Now().UTC()
	s.turns = append(s.turns, *turn)
	return nil
}

func (s *fakeTurnStore) ListByUser(_ context.Context, userID string) ([]model.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []model.Turn
	for _, t := range s.turns {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeTurnStore) snapshot() []model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Turn(nil), s.turns...)
}

type fakeCatalog struct {
	byCity  map[string][]model.Attraction
	topErr  error
	findErr error
}

func (c *fakeCatalog) TopRated(_ context.Context, city string, limit int) ([]model.Attraction, error) {
	if c.topErr != nil {
		return nil, c.topErr
	}
	var list []model.Attraction
	for k, v := range c.byCity {
		if model.CatalogKey(k) == model.CatalogKey(city) {
			list = v
		}
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (c *fakeCatalog) FindByNames(_ context.Context, city string, names []string) ([]model.Attraction, error) {
	if c.findErr != nil {
		return nil, c.findErr
	}
	var out []model.Attraction
	for k, list := range c.byCity {
		if city != "" && model.CatalogKey(k) != model.CatalogKey(city) {
			continue
		}
		for _, a := range list {
			for _, n := range names {
				if model.CatalogKey(a.Name) == model.CatalogKey(n) {
					out = append(out, a)
				}
			}
		}
	}
	return out, nil
}

func (c *fakeCatalog) Cities(context.Context) ([]string, error) {
	var out []string
	for city := range c.byCity {
		out = append(out, city)
	}
	return out, nil
}

type fakeTrips struct {
	mu        sync.Mutex
	trips     []model.Trip
	points    []model.Point
	images    []model.PointImage
	failPoint int
}

func newFakeTrips() *fakeTrips {
	return &fakeTrips{failPoint: -1}
}

type fakeTx struct {
	parent *fakeTrips
	trips  []model.Trip
	points []model.Point
	images []model.PointImage
}

func (t *fakeTx) CreateTrip(_ context.Context, trip *model.Trip) error {
	trip.ID = fmt.Sprintf("trip-%d", len(t.parent.trips)+1)
	t.trips = append(t.trips, *trip)
	return nil
}

func (t *fakeTx) CreatePoint(_ context.Context, point *model.Point) error {
	if point.Order == t.parent.failPoint {
		return errBoom
	}
	point.ID = fmt.Sprintf("%s-p%d", point.TripID, point.Order)
	t.points = append(t.points, *point)
	return nil
}

func (t *fakeTx) CreatePointImage(_ context.Context, image *model.PointImage) error {
	t.images = append(t.images, *image)
	return nil
}

func (f *fakeTrips) InTx(_ context.Context, fn func(repository.TripWriter) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx := &fakeTx{parent: f}
	if err := fn(tx); err != nil {
		return err
	}
	f.trips = append(f.trips, tx.trips...)
	f.points = append(f.points, tx.points...)
	f.images = append(f.images, tx.images...)
	return nil
}

type fakeLLM struct {
	mu         sync.Mutex
	responses  []string
	err        error
	requests   []*llm.CompletionRequest
	onComplete func()
}

func (f *fakeLLM) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if f.onComplete != nil {
		f.onComplete()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	content := ""
	if len(f.responses) > 0 {
		content = f.responses[0]
		if len(f.responses) > 1 {
			f.responses = f.responses[1:]
		}
	}
	return &llm.CompletionResponse{Content: content, Model: "fake-model", TokensIn: 10, TokensOut: 5}, nil
}

func (f *fakeLLM) Name() string { return "fake" }

type fakeEvents struct {
	mu    sync.Mutex
	turns []*model.TurnLoggedEvent
	trips []*model.TripCreatedEvent
	err   error
}

func (e *fakeEvents) PublishTurnLogged(_ context.Context, event *model.TurnLoggedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.turns = append(e.turns, event)
	return e.err
}

func (e *fakeEvents) PublishTripCreated(_ context.Context, event *model.TripCreatedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.trips = append(e.trips, event)
	return e.err
}

func sochiCatalog() *fakeCatalog {
	var list []model.Attraction
	for i := 0; i < 8; i++ {
		list = append(list, model.Attraction{
			ID:            fmt.Sprintf("a%d", i),
			Name:          fmt.Sprintf("Место %d", i),
			City:          "Сочи",
			Country:       "Россия",
			Latitude:      43.5 + float64(i)/100,
			Longitude:     39.7,
			Rating:        5 - float64(i)/10,
			Description:   fmt.Sprintf("Описание %d", i),
			WorkingStatus: "Открыто",
			Photos:        model.StringList{fmt.Sprintf("https://img.example/%d.jpg", i)},
		})
	}
	return &fakeCatalog{byCity: map[string][]model.Attraction{"Сочи": list}}
}
